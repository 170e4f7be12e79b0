package exchange

import (
	"context"

	"plex-exchange-go/internal/models"

	"go.uber.org/zap"
)

// TradeTransactionsAccepted is raised once per transaction-pair
// acceptance, after the pair is durably committed. It names the owning
// trade.
type TradeTransactionsAccepted struct {
	Trade *models.Trade
}

// TradeTransactionsRejected is raised when a transaction is rejected.
type TradeTransactionsRejected struct {
	Transaction *models.Transaction
}

type AcceptedHandler func(ctx context.Context, event TradeTransactionsAccepted) error

type RejectedHandler func(ctx context.Context, event TradeTransactionsRejected) error

// Dispatcher invokes event handlers explicitly, in registration order,
// on the caller's goroutine. Handlers run only after the triggering
// write has committed; a handler failure is logged and the remaining
// handlers still run.
type Dispatcher struct {
	accepted []AcceptedHandler
	rejected []RejectedHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) OnTransactionsAccepted(handler AcceptedHandler) {
	d.accepted = append(d.accepted, handler)
}

func (d *Dispatcher) OnTransactionRejected(handler RejectedHandler) {
	d.rejected = append(d.rejected, handler)
}

func (d *Dispatcher) DispatchTransactionsAccepted(ctx context.Context, event TradeTransactionsAccepted) {
	for _, handler := range d.accepted {
		if err := handler(ctx, event); err != nil {
			zap.L().Error("Accepted-event handler failed",
				zap.String("trade_id", event.Trade.Id),
				zap.Error(err))
		}
	}
}

func (d *Dispatcher) DispatchTransactionRejected(ctx context.Context, event TradeTransactionsRejected) {
	for _, handler := range d.rejected {
		if err := handler(ctx, event); err != nil {
			zap.L().Error("Rejected-event handler failed",
				zap.String("transaction_id", event.Transaction.Id),
				zap.Error(err))
		}
	}
}
