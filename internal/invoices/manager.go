package invoices

import (
	"context"
	"fmt"
	"time"

	"plex-exchange-go/internal/exchange"
	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"

	"go.uber.org/zap"
)

// Manager handles invoice lifecycle beyond creation: payment via a
// selected gateway and past-due review.
type Manager struct {
	store    store.MarketStore
	selector PaymentGatewaySelector
}

func NewManager(marketStore store.MarketStore, selector PaymentGatewaySelector) *Manager {
	return &Manager{store: marketStore, selector: selector}
}

// PayInvoice attempts to settle the invoice through its gateway. A
// gateway failure marks the invoice failed; acceptance of the
// underlying transaction is already committed and is not unwound.
func (m *Manager) PayInvoice(ctx context.Context, invoiceId string) (*models.Invoice, error) {
	invoice, err := m.store.GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if !invoice.IsPending() {
		return nil, exchange.NewDomainError("Can not pay an invoice that is not pending.")
	}

	gateway, err := m.selector.DeterminePaymentGateway(ctx, invoice)
	if err != nil {
		return nil, fmt.Errorf("selecting payment gateway for invoice %s: %w", invoice.Id, err)
	}

	if err := gateway.Pay(ctx, invoice); err != nil {
		zap.L().Error("Error paying invoice via payment gateway",
			zap.String("invoice_id", invoice.Id),
			zap.Error(err))
		if markErr := m.markAsFailed(ctx, invoice); markErr != nil {
			zap.L().Error("Error marking invoice as failed",
				zap.String("invoice_id", invoice.Id),
				zap.Error(markErr))
		}
		return nil, fmt.Errorf("paying invoice %s: %w", invoice.Id, err)
	}

	now := time.Now()
	if err := m.store.UpdateInvoiceStatus(ctx, invoice.Id, models.InvoiceStatusPaid, &now); err != nil {
		return nil, fmt.Errorf("marking invoice %s paid: %w", invoice.Id, err)
	}

	return m.store.GetInvoiceById(ctx, invoice.Id)
}

// markAsFailed moves a draft invoice to failed.
func (m *Manager) markAsFailed(ctx context.Context, invoice *models.Invoice) error {
	if invoice.Status != models.InvoiceStatusDraft {
		return exchange.NewDomainError("Can not mark a non draft invoice as failed.")
	}
	return m.store.UpdateInvoiceStatus(ctx, invoice.Id, models.InvoiceStatusFailed, nil)
}

// ReviewPastDueInvoices marks draft invoices whose due date has passed
// as past_due. Each invoice is handled independently; a failure is
// logged and the review continues.
func (m *Manager) ReviewPastDueInvoices(ctx context.Context) error {
	invoices, err := m.store.ListDraftInvoicesPastDue(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("listing past due invoices: %w", err)
	}

	for i := range invoices {
		invoice := invoices[i]
		if err := m.store.UpdateInvoiceStatus(ctx, invoice.Id, models.InvoiceStatusPastDue, nil); err != nil {
			zap.L().Error("Error marking invoice as past due",
				zap.String("invoice_id", invoice.Id),
				zap.Error(err))
		}
	}
	return nil
}
