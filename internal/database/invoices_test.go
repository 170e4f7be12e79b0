package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"
)

func createTestInvoice(t *testing.T, service *Service, transactionId, userId, referenceNo string) *models.Invoice {
	t.Helper()

	due := time.Now().Add(72 * time.Hour)
	invoice, err := service.CreateInvoice(context.Background(), &models.Invoice{
		TransactionId: transactionId,
		UserId:        userId,
		Amount:        415,
		Currency:      "cad",
		ReferenceNo:   referenceNo,
		DueDate:       &due,
	})
	if err != nil {
		t.Fatalf("Failed to create test invoice: %v", err)
	}
	return invoice
}

func TestCreateInvoice(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)

	invoice := createTestInvoice(t, service, offer.Id, buyer.Id, "PLEX-AB12C-1700000000")

	if invoice.Status != models.InvoiceStatusDraft {
		t.Errorf("Expected draft status, got %s", invoice.Status)
	}
	if invoice.DueDate == nil {
		t.Error("Expected a due date on the stored invoice")
	}
	if invoice.PaidAt != nil {
		t.Errorf("Expected no paid_at on a draft invoice, got %v", invoice.PaidAt)
	}
}

func TestCreateInvoice_DuplicateReference(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)

	createTestInvoice(t, service, offer.Id, buyer.Id, "PLEX-AB12C-1700000000")

	_, err := service.CreateInvoice(context.Background(), &models.Invoice{
		TransactionId: offer.Id,
		UserId:        buyer.Id,
		Amount:        415,
		Currency:      "cad",
		ReferenceNo:   "PLEX-AB12C-1700000000",
	})
	if !errors.Is(err, store.ErrDuplicateReference) {
		t.Errorf("Expected ErrDuplicateReference, got %v", err)
	}
}

func TestUpdateInvoiceStatus_ReferenceImmutable(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)
	invoice := createTestInvoice(t, service, offer.Id, buyer.Id, "PLEX-AB12C-1700000000")

	paidAt := time.Now()
	if err := service.UpdateInvoiceStatus(ctx, invoice.Id, models.InvoiceStatusPaid, &paidAt); err != nil {
		t.Fatalf("UpdateInvoiceStatus failed: %v", err)
	}

	updated, err := service.GetInvoiceById(ctx, invoice.Id)
	if err != nil {
		t.Fatalf("GetInvoiceById failed: %v", err)
	}
	if updated.Status != models.InvoiceStatusPaid {
		t.Errorf("Expected paid status, got %s", updated.Status)
	}
	if updated.PaidAt == nil {
		t.Error("Expected paid_at to be set")
	}
	if updated.ReferenceNo != invoice.ReferenceNo {
		t.Errorf("Reference changed from %s to %s", invoice.ReferenceNo, updated.ReferenceNo)
	}
}

func TestGetLatestInvoiceForTransaction(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)

	_, err := service.GetLatestInvoiceForTransaction(ctx, offer.Id)
	if !errors.Is(err, store.ErrInvoiceNotFound) {
		t.Errorf("Expected ErrInvoiceNotFound, got %v", err)
	}

	invoice := createTestInvoice(t, service, offer.Id, buyer.Id, "PLEX-AB12C-1700000000")

	latest, err := service.GetLatestInvoiceForTransaction(ctx, offer.Id)
	if err != nil {
		t.Fatalf("GetLatestInvoiceForTransaction failed: %v", err)
	}
	if latest.Id != invoice.Id {
		t.Errorf("Expected invoice %s, got %s", invoice.Id, latest.Id)
	}
}

func TestListDraftInvoicesPastDue(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	seller := createTestUser(t, service, "Seller", "seller@example.com")
	buyer := createTestUser(t, service, "Buyer", "buyer@example.com")
	trade := createTestTrade(t, service, seller.Id, 1000)
	offer := createTestOffer(t, service, trade, buyer.Id, 400)
	invoice := createTestInvoice(t, service, offer.Id, buyer.Id, "PLEX-AB12C-1700000000")

	overdue, err := service.ListDraftInvoicesPastDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListDraftInvoicesPastDue failed: %v", err)
	}
	if len(overdue) != 0 {
		t.Errorf("Expected no overdue invoices yet, got %d", len(overdue))
	}

	overdue, err = service.ListDraftInvoicesPastDue(ctx, time.Now().Add(100*time.Hour))
	if err != nil {
		t.Fatalf("ListDraftInvoicesPastDue failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].Id != invoice.Id {
		t.Errorf("Expected invoice %s overdue, got %+v", invoice.Id, overdue)
	}
}

func TestListClosedTransactionsWithoutInvoice(t *testing.T) {
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

	uninvoiced, err := service.ListClosedTransactionsWithoutInvoice(ctx, trade.Id)
	if err != nil {
		t.Fatalf("ListClosedTransactionsWithoutInvoice failed: %v", err)
	}
	if len(uninvoiced) != 2 {
		t.Fatalf("Expected both legs uninvoiced, got %d", len(uninvoiced))
	}

	createTestInvoice(t, service, accepted.Id, buyer.Id, "PLEX-AB12C-1700000000")

	uninvoiced, err = service.ListClosedTransactionsWithoutInvoice(ctx, trade.Id)
	if err != nil {
		t.Fatalf("ListClosedTransactionsWithoutInvoice failed: %v", err)
	}
	if len(uninvoiced) != 1 || uninvoiced[0].Id != mirror.Id {
		t.Errorf("Expected only the mirror leg %s uninvoiced, got %+v", mirror.Id, uninvoiced)
	}
}
