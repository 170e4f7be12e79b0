package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"

	"go.uber.org/zap"
)

func scanInvoice(row interface{ Scan(...any) error }) (*models.Invoice, error) {
	var invoice models.Invoice
	var dueDate, paidAt sql.NullTime
	err := row.Scan(&invoice.Id, &invoice.TransactionId, &invoice.UserId,
		&invoice.Amount, &invoice.Currency, &invoice.Status, &invoice.ReferenceNo,
		&dueDate, &paidAt, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		invoice.DueDate = &dueDate.Time
	}
	if paidAt.Valid {
		invoice.PaidAt = &paidAt.Time
	}
	return &invoice, nil
}

// CreateInvoice inserts the invoice as written; the reference number is
// never updated afterwards. A reference collision surfaces as
// store.ErrDuplicateReference so the caller can regenerate and retry.
func (s *Service) CreateInvoice(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if invoice.Id == "" {
		invoice.Id = models.NewId(models.InvoiceIdPrefix)
	}
	if invoice.Status == "" {
		invoice.Status = models.InvoiceStatusDraft
	}

	var dueDate any
	if invoice.DueDate != nil {
		dueDate = invoice.DueDate.UTC()
	}

	_, err := s.db.ExecContext(ctx, queryInsertInvoice, invoice.Id, invoice.TransactionId,
		invoice.UserId, invoice.Amount, invoice.Currency, invoice.Status,
		invoice.ReferenceNo, dueDate)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateReference
		}
		return nil, fmt.Errorf("error inserting invoice: %w", err)
	}

	zap.L().Info("Invoice created",
		zap.String("invoice_id", invoice.Id),
		zap.String("transaction_id", invoice.TransactionId),
		zap.String("reference_no", invoice.ReferenceNo),
		zap.Int64("amount", invoice.Amount),
		zap.String("currency", invoice.Currency))

	return s.GetInvoiceById(ctx, invoice.Id)
}

func (s *Service) GetInvoiceById(ctx context.Context, invoiceId string) (*models.Invoice, error) {
	invoice, err := scanInvoice(s.db.QueryRowContext(ctx, queryGetInvoiceById, invoiceId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying invoice %s: %w", invoiceId, err)
	}
	return invoice, nil
}

func (s *Service) GetLatestInvoiceForTransaction(ctx context.Context, transactionId string) (*models.Invoice, error) {
	invoice, err := scanInvoice(s.db.QueryRowContext(ctx, queryGetLatestInvoiceForTransaction, transactionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying invoice for transaction %s: %w", transactionId, err)
	}
	return invoice, nil
}

func (s *Service) ListDraftInvoicesPastDue(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, queryListDraftInvoicesPastDue, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying past due invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning invoice: %w", err)
		}
		invoices = append(invoices, *invoice)
	}
	return invoices, rows.Err()
}

func (s *Service) UpdateInvoiceStatus(ctx context.Context, invoiceId, status string, paidAt *time.Time) error {
	var paid any
	if paidAt != nil {
		paid = paidAt.UTC()
	}

	result, err := s.db.ExecContext(ctx, queryUpdateInvoiceStatus, status, paid, invoiceId)
	if err != nil {
		return fmt.Errorf("error updating invoice %s: %w", invoiceId, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking invoice update result: %w", err)
	}
	if affected == 0 {
		return store.ErrInvoiceNotFound
	}

	zap.L().Info("Invoice status updated",
		zap.String("invoice_id", invoiceId),
		zap.String("status", status))
	return nil
}
