package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateTradeParams carries a trade creation request. Amount is in
// major units of FromCurrency and is normalized to minor units here.
type CreateTradeParams struct {
	OwnerId          string
	Amount           decimal.Decimal
	FromCurrency     string
	ToCurrency       string
	Rate             decimal.Decimal
	RateBaseCurrency string
}

// CreateTrade validates and persists a new open trade.
func (s *Service) CreateTrade(ctx context.Context, params CreateTradeParams) (*models.Trade, error) {
	from := strings.ToLower(params.FromCurrency)
	to := strings.ToLower(params.ToCurrency)

	if !s.registry.IsSupported(from) {
		return nil, NewValidationError("from_currency", "Invalid currencies.")
	}
	if !s.registry.IsSupported(to) {
		return nil, NewValidationError("to_currency", "Invalid currencies.")
	}
	if from == to {
		return nil, NewValidationError("to_currency", "Can not place a trade with the same currency.")
	}
	if !params.Amount.IsPositive() {
		return nil, NewValidationError("amount", "Amount must be greater than 0.")
	}
	if !params.Rate.IsPositive() {
		return nil, NewValidationError("rate", "Rate must be greater than 0.")
	}
	if base := strings.ToLower(params.RateBaseCurrency); base != "" && base != from && base != to {
		return nil, NewValidationError("rate_base_currency", "Rate base currency must be same with from_currency or to_currency.")
	}

	amountMinor, err := s.registry.ToMinor(params.Amount, from)
	if err != nil {
		return nil, fmt.Errorf("normalizing trade amount: %w", err)
	}

	trade, err := s.store.CreateTrade(ctx, &models.Trade{
		UserId:       params.OwnerId,
		Amount:       amountMinor,
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         params.Rate,
		Status:       models.TradeStatusOpen,
	})
	if err != nil {
		return nil, fmt.Errorf("creating trade: %w", err)
	}
	return trade, nil
}

// AcceptTrade records a buyer's offer against an open or partial trade
// as a new open buy transaction. The trade's own status does not move
// here; it moves when the seller accepts the transaction.
func (s *Service) AcceptTrade(ctx context.Context, tradeId, buyerId string, amount decimal.Decimal) (*models.Transaction, error) {
	trade, err := s.store.GetTradeById(ctx, tradeId)
	if err != nil {
		return nil, err
	}

	if trade.UserId == buyerId {
		return nil, NewDomainError("Can not accept a trade you originated.")
	}
	if !trade.IsAcceptable() {
		return nil, NewDomainError("Can not accept a trade that is not open or partially filled.")
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "Amount must be greater than 0.")
	}

	amountMinor, err := s.registry.ToMinor(amount, trade.FromCurrency)
	if err != nil {
		return nil, fmt.Errorf("normalizing offer amount: %w", err)
	}
	if amountMinor > trade.AvailableAmount {
		return nil, NewValidationError("amount", "Amount is greater than available trade amount.")
	}

	transaction := &models.Transaction{
		TradeId:  trade.Id,
		SellerId: trade.UserId,
		BuyerId:  buyerId,
		Amount:   amountMinor,
		Currency: trade.FromCurrency,
		Type:     models.TransactionTypeBuy,
		Status:   models.TransactionStatusOpen,
	}

	// Fee is assigned exactly once, before the offer is first
	// persisted; the insert and its guards share one database
	// transaction in the store.
	if err := s.fees.Execute(transaction); err != nil {
		return nil, fmt.Errorf("computing offer fee: %w", err)
	}

	created, err := s.store.CreateBuyOffer(ctx, transaction)
	switch {
	case errors.Is(err, store.ErrTradeNotAcceptable):
		return nil, NewDomainError("Can not accept a trade that is not open or partially filled.")
	case errors.Is(err, store.ErrInsufficientAmount):
		// Lost the race against a concurrent offer.
		return nil, NewValidationError("amount", "Amount is greater than available trade amount.")
	case errors.Is(err, store.ErrOpenOfferExists):
		return nil, NewDomainError("Can not accept trade when you still have an offer open.")
	case err != nil:
		return nil, fmt.Errorf("creating offer: %w", err)
	}
	return created, nil
}

// CancelTrade cancels the actor's own open or partial trade, then
// rejects every still-open offer on it. Offer rejections are isolated:
// one failing does not stop the rest.
func (s *Service) CancelTrade(ctx context.Context, tradeId, actorId string) (*models.Trade, error) {
	trade, err := s.store.GetTradeById(ctx, tradeId)
	if err != nil {
		return nil, err
	}

	if trade.UserId != actorId {
		return nil, NewDomainError("Can not cancel a trade not created by you.")
	}

	for attempt := 0; ; attempt++ {
		if !trade.IsAcceptable() {
			return nil, NewDomainError("Can not cancel a trade that is not open or partially filled.")
		}
		err = s.store.UpdateTradeStatus(ctx, trade.Id, models.TradeStatusCancelled, trade.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConcurrentModification) || attempt >= statusUpdateRetries {
			return nil, fmt.Errorf("cancelling trade %s: %w", trade.Id, err)
		}
		if trade, err = s.store.GetTradeById(ctx, trade.Id); err != nil {
			return nil, err
		}
	}

	s.rejectOpenOffers(ctx, trade.Id)

	return s.store.GetTradeById(ctx, trade.Id)
}

// ListTrades returns a page of trades, newest first.
func (s *Service) ListTrades(ctx context.Context, filter store.TradeFilter, page store.Page) ([]models.Trade, int64, error) {
	return s.store.ListTrades(ctx, filter, page)
}

// ListTradeTransactions returns the trade's transactions where the
// actor is buyer or seller.
func (s *Service) ListTradeTransactions(ctx context.Context, tradeId, actorId string, filter store.TransactionFilter, page store.Page) ([]models.Transaction, int64, error) {
	if _, err := s.store.GetTradeById(ctx, tradeId); err != nil {
		return nil, 0, err
	}
	return s.store.ListTradeTransactions(ctx, tradeId, actorId, filter, page)
}

// rejectOpenOffers rejects every open buy offer on the trade,
// continuing past individual failures.
func (s *Service) rejectOpenOffers(ctx context.Context, tradeId string) {
	offers, err := s.store.ListOpenBuyOffers(ctx, tradeId)
	if err != nil {
		zap.L().Error("Failed to list open offers for rejection",
			zap.String("trade_id", tradeId),
			zap.Error(err))
		return
	}

	for i := range offers {
		offer := offers[i]
		if err := s.RejectTransaction(ctx, offer.Id); err != nil {
			zap.L().Error("Failed to reject open offer",
				zap.String("trade_id", tradeId),
				zap.String("transaction_id", offer.Id),
				zap.Error(err))
		}
	}
}

// updateAcceptedTradeTransactions recomputes the trade's status after a
// transaction pair is accepted: fulfilled once the available amount
// reaches zero, partial otherwise. Fulfillment auto-rejects any
// remaining open offers.
func (s *Service) updateAcceptedTradeTransactions(ctx context.Context, event TradeTransactionsAccepted) error {
	trade := event.Trade
	var err error

	for attempt := 0; ; attempt++ {
		// Cancelled is terminal; never move a trade back out of it.
		if trade.Status == models.TradeStatusCancelled {
			return nil
		}

		status := models.TradeStatusPartial
		if trade.AvailableAmount == 0 {
			status = models.TradeStatusFulfilled
		}

		err = s.store.UpdateTradeStatus(ctx, trade.Id, status, trade.Version)
		if err == nil {
			if status == models.TradeStatusFulfilled {
				s.rejectOpenOffers(ctx, trade.Id)
			}
			return nil
		}
		if !errors.Is(err, store.ErrConcurrentModification) || attempt >= statusUpdateRetries {
			return fmt.Errorf("updating trade %s status: %w", trade.Id, err)
		}
		if trade, err = s.store.GetTradeById(ctx, trade.Id); err != nil {
			return err
		}
	}
}
