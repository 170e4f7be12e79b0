package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestService(t *testing.T) (*Service, func()) {
	t.Helper()

	cfg := models.DatabaseConfig{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Hour,
		PingTimeout:     5 * time.Second,
	}

	service, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	return service, service.Close
}

func createTestUser(t *testing.T, service *Service, name, email string) *models.User {
	t.Helper()

	user, err := service.CreateUser(context.Background(), &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", email, err)
	}
	return user
}

func createTestTrade(t *testing.T, service *Service, ownerId string, amount int64) *models.Trade {
	t.Helper()

	trade, err := service.CreateTrade(context.Background(), &models.Trade{
		UserId:       ownerId,
		Amount:       amount,
		FromCurrency: "cad",
		ToCurrency:   "ngn",
		Rate:         decimal.NewFromInt(245),
	})
	if err != nil {
		t.Fatalf("Failed to create test trade: %v", err)
	}
	return trade
}

func TestCreateTrade_Defaults(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	owner := createTestUser(t, service, "Seller", "seller@example.com")
	trade := createTestTrade(t, service, owner.Id, 1000)

	if trade.Status != models.TradeStatusOpen {
		t.Errorf("Expected status open, got %s", trade.Status)
	}
	if trade.AvailableAmount != 1000 {
		t.Errorf("Expected available amount 1000, got %d", trade.AvailableAmount)
	}
	if trade.Version != 1 {
		t.Errorf("Expected version 1, got %d", trade.Version)
	}
	if !trade.Rate.Equal(decimal.NewFromInt(245)) {
		t.Errorf("Expected rate 245, got %s", trade.Rate.String())
	}
}

func TestGetTradeById_NotFound(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.GetTradeById(context.Background(), "trd_missing")
	if !errors.Is(err, store.ErrTradeNotFound) {
		t.Errorf("Expected ErrTradeNotFound, got %v", err)
	}
}

func TestUpdateTradeStatus_VersionGuard(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	owner := createTestUser(t, service, "Seller", "seller@example.com")
	trade := createTestTrade(t, service, owner.Id, 1000)

	if err := service.UpdateTradeStatus(ctx, trade.Id, models.TradeStatusPartial, trade.Version); err != nil {
		t.Fatalf("UpdateTradeStatus failed: %v", err)
	}

	// Same version again must now conflict.
	err := service.UpdateTradeStatus(ctx, trade.Id, models.TradeStatusFulfilled, trade.Version)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification, got %v", err)
	}

	updated, err := service.GetTradeById(ctx, trade.Id)
	if err != nil {
		t.Fatalf("GetTradeById failed: %v", err)
	}
	if updated.Status != models.TradeStatusPartial {
		t.Errorf("Expected status partial, got %s", updated.Status)
	}
	if updated.Version != trade.Version+1 {
		t.Errorf("Expected version %d, got %d", trade.Version+1, updated.Version)
	}
}

func TestListTrades_FilterAndOrder(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	owner := createTestUser(t, service, "Seller", "seller@example.com")

	first := createTestTrade(t, service, owner.Id, 1000)
	second := createTestTrade(t, service, owner.Id, 2000)
	if err := service.UpdateTradeStatus(ctx, second.Id, models.TradeStatusCancelled, second.Version); err != nil {
		t.Fatalf("UpdateTradeStatus failed: %v", err)
	}

	trades, total, err := service.ListTrades(ctx, store.TradeFilter{
		Statuses: []string{models.TradeStatusOpen},
	}, store.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected total 1, got %d", total)
	}
	if len(trades) != 1 || trades[0].Id != first.Id {
		t.Errorf("Expected only trade %s, got %+v", first.Id, trades)
	}

	trades, total, err = service.ListTrades(ctx, store.TradeFilter{}, store.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected total 2, got %d", total)
	}
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(trades))
	}
}

func TestListTrades_CurrencyFilter(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	owner := createTestUser(t, service, "Seller", "seller@example.com")
	createTestTrade(t, service, owner.Id, 1000)

	_, total, err := service.ListTrades(ctx, store.TradeFilter{
		FromCurrencies: []string{"usd"},
	}, store.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected no usd trades, got %d", total)
	}

	_, total, err = service.ListTrades(ctx, store.TradeFilter{
		FromCurrencies: []string{"cad", "usd"},
		ToCurrencies:   []string{"ngn"},
	}, store.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 cad->ngn trade, got %d", total)
	}
}
