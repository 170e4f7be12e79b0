package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"
)

func createTestOffer(t *testing.T, service *Service, trade *models.Trade, buyerId string, amount int64) *models.Transaction {
	t.Helper()

	offer, err := service.CreateBuyOffer(context.Background(), &models.Transaction{
		TradeId:  trade.Id,
		SellerId: trade.UserId,
		BuyerId:  buyerId,
		Amount:   amount,
		Currency: trade.FromCurrency,
		Type:     models.TransactionTypeBuy,
		Fee:      15,
	})
	if err != nil {
		t.Fatalf("Failed to create test offer: %v", err)
	}
	return offer
}

func TestCreateBuyOffer(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)

	offer := createTestOffer(t, service, trade, buyer.Id, 400)

	if offer.Status != models.TransactionStatusOpen {
		t.Errorf("Expected status open, got %s", offer.Status)
	}
	if !offer.IsBuy() {
		t.Errorf("Expected a buy transaction, got %s", offer.Type)
	}
	if offer.ReferenceTransactionId != "" {
		t.Errorf("Expected empty reference, got %s", offer.ReferenceTransactionId)
	}
}

func TestCreateBuyOffer_TradeNotAcceptable(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)

	if err := service.UpdateTradeStatus(ctx, trade.Id, models.TradeStatusCancelled, trade.Version); err != nil {
		t.Fatalf("UpdateTradeStatus failed: %v", err)
	}

	_, err := service.CreateBuyOffer(ctx, &models.Transaction{
		TradeId:  trade.Id,
		SellerId: seller.Id,
		BuyerId:  buyer.Id,
		Amount:   400,
		Currency: "cad",
		Type:     models.TransactionTypeBuy,
	})
	if !errors.Is(err, store.ErrTradeNotAcceptable) {
		t.Errorf("Expected ErrTradeNotAcceptable, got %v", err)
	}
}

func TestCreateBuyOffer_InsufficientAmount(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	first := createTestUser(t, service, "First", "first@example.com")
	second := createTestUser(t, service, "Second", "second@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)

	offer := createTestOffer(t, service, trade, first.Id, 700)
	if _, _, err := service.AcceptTransactionPair(ctx, offer.Id, ""); err != nil {
		t.Fatalf("AcceptTransactionPair failed: %v", err)
	}

	// Only 300 remains once the first offer is accepted.
	_, err := service.CreateBuyOffer(ctx, &models.Transaction{
		TradeId:  trade.Id,
		SellerId: seller.Id,
		BuyerId:  second.Id,
		Amount:   400,
		Currency: "cad",
		Type:     models.TransactionTypeBuy,
	})
	if !errors.Is(err, store.ErrInsufficientAmount) {
		t.Errorf("Expected ErrInsufficientAmount, got %v", err)
	}
}

func TestCreateBuyOffer_OpenOfferExists(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)

	createTestOffer(t, service, trade, buyer.Id, 200)

	_, err := service.CreateBuyOffer(context.Background(), &models.Transaction{
		TradeId:  trade.Id,
		SellerId: seller.Id,
		BuyerId:  buyer.Id,
		Amount:   100,
		Currency: "cad",
		Type:     models.TransactionTypeBuy,
	})
	if !errors.Is(err, store.ErrOpenOfferExists) {
		t.Errorf("Expected ErrOpenOfferExists, got %v", err)
	}
}

func TestAcceptTransactionPair(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)

	accepted, mirror, err := service.AcceptTransactionPair(ctx, offer.Id, "")
	if err != nil {
		t.Fatalf("AcceptTransactionPair failed: %v", err)
	}

	if accepted.Status != models.TransactionStatusAccepted {
		t.Errorf("Expected accepted status, got %s", accepted.Status)
	}
	if mirror.Status != models.TransactionStatusAccepted {
		t.Errorf("Expected accepted mirror, got %s", mirror.Status)
	}
	if !mirror.IsSell() {
		t.Errorf("Expected sell mirror for a buy offer, got %s", mirror.Type)
	}
	if mirror.Amount != accepted.Amount || mirror.Fee != accepted.Fee {
		t.Errorf("Mirror amount/fee diverged: %+v vs %+v", mirror, accepted)
	}
	if accepted.ReferenceTransactionId != mirror.Id {
		t.Errorf("Expected reciprocal reference %s, got %s", mirror.Id, accepted.ReferenceTransactionId)
	}
	if mirror.ReferenceTransactionId != accepted.Id {
		t.Errorf("Expected reciprocal reference %s, got %s", accepted.Id, mirror.ReferenceTransactionId)
	}

	// Acceptance consumes part of the trade's available amount.
	updated, err := service.GetTradeById(ctx, trade.Id)
	if err != nil {
		t.Fatalf("GetTradeById failed: %v", err)
	}
	if updated.AvailableAmount != 600 {
		t.Errorf("Expected available amount 600, got %d", updated.AvailableAmount)
	}
}

func TestAcceptTransactionPair_ExceedsAvailable(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	first := createTestUser(t, service, "First", "first@example.com")
	second := createTestUser(t, service, "Second", "second@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)

	// Both offers fit while nothing is accepted.
	firstOffer := createTestOffer(t, service, trade, first.Id, 600)
	secondOffer := createTestOffer(t, service, trade, second.Id, 600)

	if _, _, err := service.AcceptTransactionPair(ctx, firstOffer.Id, ""); err != nil {
		t.Fatalf("AcceptTransactionPair failed: %v", err)
	}

	// Accepting the second would take the trade below zero.
	_, _, err := service.AcceptTransactionPair(ctx, secondOffer.Id, "")
	if !errors.Is(err, store.ErrInsufficientAmount) {
		t.Fatalf("Expected ErrInsufficientAmount, got %v", err)
	}

	// The rejected acceptance must leave nothing behind: the offer is
	// still open, no mirror exists, and the available amount holds.
	unchanged, err := service.GetTransactionById(ctx, secondOffer.Id)
	if err != nil {
		t.Fatalf("GetTransactionById failed: %v", err)
	}
	if unchanged.Status != models.TransactionStatusOpen {
		t.Errorf("Expected second offer still open, got %s", unchanged.Status)
	}

	reloaded, err := service.GetTradeById(ctx, trade.Id)
	if err != nil {
		t.Fatalf("GetTradeById failed: %v", err)
	}
	if reloaded.AvailableAmount != 400 {
		t.Errorf("Expected available amount 400, got %d", reloaded.AvailableAmount)
	}
	if reloaded.AvailableAmount < 0 {
		t.Errorf("Available amount went negative: %d", reloaded.AvailableAmount)
	}
}

func TestCreateBuyOffer_Concurrent(t *testing.T) {
	cfg := models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "exchange.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Hour,
		PingTimeout:     5 * time.Second,
	}
	service, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer service.Close()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	first := createTestUser(t, service, "First", "first@example.com")
	second := createTestUser(t, service, "Second", "second@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)

	// Two guarded check-then-inserts racing on the write lock must both
	// land cleanly rather than fail on a stale snapshot.
	buyers := []string{first.Id, second.Id}
	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, buyerId := range buyers {
		wg.Add(1)
		go func(i int, buyerId string) {
			defer wg.Done()
			_, errs[i] = service.CreateBuyOffer(ctx, &models.Transaction{
				TradeId:  trade.Id,
				SellerId: seller.Id,
				BuyerId:  buyerId,
				Amount:   400,
				Currency: "cad",
				Type:     models.TransactionTypeBuy,
			})
		}(i, buyerId)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Concurrent offer %d failed: %v", i, err)
		}
	}

	offers, err := service.ListOpenBuyOffers(ctx, trade.Id)
	if err != nil {
		t.Fatalf("ListOpenBuyOffers failed: %v", err)
	}
	if len(offers) != 2 {
		t.Errorf("Expected 2 open offers, got %d", len(offers))
	}
}

func TestAcceptTransactionPair_NotOpen(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)

	if _, _, err := service.AcceptTransactionPair(ctx, offer.Id, ""); err != nil {
		t.Fatalf("AcceptTransactionPair failed: %v", err)
	}

	_, _, err := service.AcceptTransactionPair(ctx, offer.Id, "")
	if !errors.Is(err, store.ErrTransactionNotOpen) {
		t.Errorf("Expected ErrTransactionNotOpen, got %v", err)
	}
}

func TestRejectTransaction(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)

	if err := service.RejectTransaction(ctx, offer.Id); err != nil {
		t.Fatalf("RejectTransaction failed: %v", err)
	}

	rejected, err := service.GetTransactionById(ctx, offer.Id)
	if err != nil {
		t.Fatalf("GetTransactionById failed: %v", err)
	}
	if rejected.Status != models.TransactionStatusRejected {
		t.Errorf("Expected rejected status, got %s", rejected.Status)
	}

	if err := service.RejectTransaction(ctx, offer.Id); !errors.Is(err, store.ErrTransactionNotOpen) {
		t.Errorf("Expected ErrTransactionNotOpen on second reject, got %v", err)
	}
}

func TestListOpenBuyOffers(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	first := createTestUser(t, service, "First", "first@example.com")
	second := createTestUser(t, service, "Second", "second@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)

	open := createTestOffer(t, service, trade, first.Id, 200)
	accepted := createTestOffer(t, service, trade, second.Id, 300)
	if _, _, err := service.AcceptTransactionPair(ctx, accepted.Id, ""); err != nil {
		t.Fatalf("AcceptTransactionPair failed: %v", err)
	}

	offers, err := service.ListOpenBuyOffers(ctx, trade.Id)
	if err != nil {
		t.Fatalf("ListOpenBuyOffers failed: %v", err)
	}
	if len(offers) != 1 || offers[0].Id != open.Id {
		t.Errorf("Expected only offer %s open, got %+v", open.Id, offers)
	}
}

func TestListTradeTransactions_Visibility(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	outsider := createTestUser(t, service, "Outsider", "outsider@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	createTestOffer(t, service, trade, buyer.Id, 400)

	_, total, err := service.ListTradeTransactions(ctx, trade.Id, buyer.Id, store.TransactionFilter{}, store.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListTradeTransactions failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected buyer to see 1 transaction, got %d", total)
	}

	_, total, err = service.ListTradeTransactions(ctx, trade.Id, outsider.Id, store.TransactionFilter{}, store.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListTradeTransactions failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected outsider to see no transactions, got %d", total)
	}
}
