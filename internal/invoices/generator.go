/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plex-exchange-go/internal/exchange"
	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/money"
	"plex-exchange-go/internal/store"

	"go.uber.org/zap"
)

// referenceRetries bounds the regenerate-and-retry loop on reference
// number collisions.
const referenceRetries = 5

// Generator creates invoices for accepted transaction legs. It
// subscribes to the trade-transactions-accepted event.
type Generator struct {
	store    store.MarketStore
	registry *money.Registry
	dueIn    time.Duration
}

func NewGenerator(marketStore store.MarketStore, registry *money.Registry, dueIn time.Duration) *Generator {
	return &Generator{store: marketStore, registry: registry, dueIn: dueIn}
}

// HandleTradeTransactionsAccepted invoices every accepted-or-paid
// transaction on the trade that has none yet. The event fires after
// both legs of a pair exist, so each acceptance yields two invoices.
// Failures are per-transaction: one bad leg is logged and skipped.
func (g *Generator) HandleTradeTransactionsAccepted(ctx context.Context, event TradeTransactionsAcceptedEvent) error {
	transactions, err := g.store.ListClosedTransactionsWithoutInvoice(ctx, event.Trade.Id)
	if err != nil {
		return fmt.Errorf("listing uninvoiced transactions for trade %s: %w", event.Trade.Id, err)
	}

	for i := range transactions {
		transaction := transactions[i]
		if _, err := g.CreateInvoice(ctx, event.Trade, &transaction); err != nil {
			zap.L().Error("Failed to create invoice for transaction",
				zap.String("trade_id", event.Trade.Id),
				zap.String("transaction_id", transaction.Id),
				zap.Error(err))
		}
	}
	return nil
}

// TradeTransactionsAcceptedEvent aliases the orchestrator's event type
// so handler wiring reads naturally at the call site.
type TradeTransactionsAcceptedEvent = exchange.TradeTransactionsAccepted

// CreateInvoice creates exactly one invoice for the transaction leg:
// payer is the leg's payer, currency and amount are the leg's invoice
// currency and converted amount plus fee. Reference numbers that
// collide are regenerated a bounded number of times.
func (g *Generator) CreateInvoice(ctx context.Context, trade *models.Trade, transaction *models.Transaction) (*models.Invoice, error) {
	latest, err := g.store.GetLatestInvoiceForTransaction(ctx, transaction.Id)
	if err != nil && !errors.Is(err, store.ErrInvoiceNotFound) {
		return nil, err
	}
	if latest != nil && latest.IsPending() {
		return nil, exchange.NewDomainError("Can not create invoice for a transaction that has a pending invoice.")
	}

	amount, err := transaction.InvoiceAmount(trade, g.registry)
	if err != nil {
		return nil, fmt.Errorf("computing invoice amount: %w", err)
	}

	var dueDate *time.Time
	if g.dueIn > 0 {
		due := time.Now().Add(g.dueIn)
		dueDate = &due
	}

	for attempt := 0; attempt < referenceRetries; attempt++ {
		invoice, err := g.store.CreateInvoice(ctx, &models.Invoice{
			TransactionId: transaction.Id,
			UserId:        transaction.PayerId(),
			Amount:        amount,
			Currency:      transaction.InvoiceCurrency(trade),
			Status:        models.InvoiceStatusDraft,
			ReferenceNo:   NewReferenceNo(),
			DueDate:       dueDate,
		})
		if errors.Is(err, store.ErrDuplicateReference) {
			zap.L().Warn("Invoice reference collision, regenerating",
				zap.String("transaction_id", transaction.Id),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, err
		}
		return invoice, nil
	}

	return nil, &exchange.IntegrityError{
		Op:  "invoice reference generation",
		Err: store.ErrDuplicateReference,
	}
}
