package exchange

import (
	"context"
	"errors"
	"fmt"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"
)

// AcceptTransaction is the seller's confirmation of a buyer's open
// offer. It flips the offer to accepted, creates the mirrored leg of
// the opposite type, and raises the trade-transactions-accepted event
// once both rows are durably committed. Returns the mirror.
func (s *Service) AcceptTransaction(ctx context.Context, transactionId, sellerId string) (*models.Transaction, error) {
	transaction, err := s.store.GetTransactionById(ctx, transactionId)
	if err != nil {
		return nil, err
	}

	if transaction.BuyerId == sellerId {
		return nil, NewDomainError("Can not accept a transaction you originated.")
	}
	if !transaction.IsOpen() {
		return nil, NewDomainError("Can not accept a transaction that is not open.")
	}

	_, mirror, err := s.store.AcceptTransactionPair(ctx, transaction.Id, "")
	if errors.Is(err, store.ErrTransactionNotOpen) {
		return nil, NewDomainError("Can not accept a transaction that is not open.")
	}
	if errors.Is(err, store.ErrInsufficientAmount) {
		return nil, NewDomainError("Can not accept a transaction that exceeds the available trade amount.")
	}
	if err != nil {
		return nil, fmt.Errorf("accepting transaction %s: %w", transactionId, err)
	}

	trade, err := s.store.GetTradeById(ctx, transaction.TradeId)
	if err != nil {
		return nil, fmt.Errorf("loading trade after acceptance: %w", err)
	}

	s.dispatcher.DispatchTransactionsAccepted(ctx, TradeTransactionsAccepted{Trade: trade})

	return mirror, nil
}

// RejectTransaction marks an open transaction as rejected.
func (s *Service) RejectTransaction(ctx context.Context, transactionId string) error {
	err := s.store.RejectTransaction(ctx, transactionId)
	if errors.Is(err, store.ErrTransactionNotOpen) {
		return NewDomainError("Can not reject a transaction that is not open.")
	}
	if err != nil {
		return fmt.Errorf("rejecting transaction %s: %w", transactionId, err)
	}

	transaction, err := s.store.GetTransactionById(ctx, transactionId)
	if err != nil {
		return fmt.Errorf("loading rejected transaction: %w", err)
	}
	s.dispatcher.DispatchTransactionRejected(ctx, TradeTransactionsRejected{Transaction: transaction})
	return nil
}

// GetTransaction loads a single transaction.
func (s *Service) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	return s.store.GetTransactionById(ctx, transactionId)
}

// GetTrade loads a single trade with its available amount.
func (s *Service) GetTrade(ctx context.Context, tradeId string) (*models.Trade, error) {
	return s.store.GetTradeById(ctx, tradeId)
}
