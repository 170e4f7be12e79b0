package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"

	"go.uber.org/zap"
)

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(&tx.Id, &tx.TradeId, &tx.SellerId, &tx.BuyerId, &tx.Amount,
		&tx.Currency, &tx.Type, &tx.Status, &tx.Fee,
		&tx.ReferenceTransactionId, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// CreateBuyOffer inserts a buyer's open offer against a trade. The
// trade-state, available-amount and one-open-offer-per-buyer checks run
// inside the same database transaction as the insert, so two
// concurrent offers can never oversubscribe the trade.
func (s *Service) CreateBuyOffer(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if transaction.Id == "" {
		transaction.Id = models.NewId(models.TransactionIdPrefix)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var status string
	var tradeAmount int64
	err = dbTx.QueryRowContext(ctx,
		`SELECT status, amount FROM trades WHERE id = ? AND deleted_at IS NULL`,
		transaction.TradeId).Scan(&status, &tradeAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error locking trade %s: %w", transaction.TradeId, err)
	}

	if status != models.TradeStatusOpen && status != models.TradeStatusPartial {
		return nil, store.ErrTradeNotAcceptable
	}

	var closedSum int64
	if err := dbTx.QueryRowContext(ctx, querySumClosedBuyOffers, transaction.TradeId).Scan(&closedSum); err != nil {
		return nil, fmt.Errorf("error summing closed offers: %w", err)
	}
	if transaction.Amount > tradeAmount-closedSum {
		return nil, store.ErrInsufficientAmount
	}

	var openCount int64
	if err := dbTx.QueryRowContext(ctx, queryCountOpenBuyerOffers, transaction.TradeId, transaction.BuyerId).Scan(&openCount); err != nil {
		return nil, fmt.Errorf("error counting buyer offers: %w", err)
	}
	if openCount > 0 {
		return nil, store.ErrOpenOfferExists
	}

	_, err = dbTx.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.TradeId, transaction.SellerId, transaction.BuyerId,
		transaction.Amount, transaction.Currency, transaction.Type, models.TransactionStatusOpen,
		transaction.Fee, "")
	if err != nil {
		return nil, fmt.Errorf("error inserting offer: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing offer: %w", err)
	}

	zap.L().Info("Buy offer created",
		zap.String("transaction_id", transaction.Id),
		zap.String("trade_id", transaction.TradeId),
		zap.String("buyer_id", transaction.BuyerId),
		zap.Int64("amount", transaction.Amount),
		zap.Int64("fee", transaction.Fee))

	return s.GetTransactionById(ctx, transaction.Id)
}

func (s *Service) GetTransactionById(ctx context.Context, transactionId string) (*models.Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransactionById, transactionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying transaction %s: %w", transactionId, err)
	}
	return tx, nil
}

// AcceptTransactionPair flips the open transaction to accepted, inserts
// its mirror with the opposite type and reciprocal references, and
// commits both writes atomically. A pair is never observable half-made,
// and an acceptance that would take the trade's available amount below
// zero fails with ErrInsufficientAmount.
func (s *Service) AcceptTransactionPair(ctx context.Context, transactionId, mirrorId string) (*models.Transaction, *models.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	original, err := scanTransaction(dbTx.QueryRowContext(ctx, queryGetTransactionById, transactionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.ErrTransactionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error locking transaction %s: %w", transactionId, err)
	}
	if !original.IsOpen() {
		return nil, nil, store.ErrTransactionNotOpen
	}

	// Open offers reserve no capacity, so an offer that fit when it was
	// placed may no longer fit now. Re-check what remains before this
	// acceptance consumes it.
	var tradeAmount int64
	err = dbTx.QueryRowContext(ctx,
		`SELECT amount FROM trades WHERE id = ? AND deleted_at IS NULL`,
		original.TradeId).Scan(&tradeAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.ErrTradeNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error locking trade %s: %w", original.TradeId, err)
	}
	var closedSum int64
	if err := dbTx.QueryRowContext(ctx, querySumClosedBuyOffers, original.TradeId).Scan(&closedSum); err != nil {
		return nil, nil, fmt.Errorf("error summing closed offers: %w", err)
	}
	if original.Amount > tradeAmount-closedSum {
		return nil, nil, store.ErrInsufficientAmount
	}

	result, err := dbTx.ExecContext(ctx, queryUpdateTransactionStatus, models.TransactionStatusAccepted, original.Id)
	if err != nil {
		return nil, nil, fmt.Errorf("error accepting transaction: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil || affected == 0 {
		if err != nil {
			return nil, nil, fmt.Errorf("error checking accept result: %w", err)
		}
		return nil, nil, store.ErrTransactionNotOpen
	}

	mirrorType := models.TransactionTypeSell
	if original.IsSell() {
		mirrorType = models.TransactionTypeBuy
	}
	if mirrorId == "" {
		mirrorId = models.NewId(models.TransactionIdPrefix)
	}

	_, err = dbTx.ExecContext(ctx, queryInsertTransaction,
		mirrorId, original.TradeId, original.SellerId, original.BuyerId,
		original.Amount, original.Currency, mirrorType, models.TransactionStatusAccepted,
		original.Fee, original.Id)
	if err != nil {
		return nil, nil, fmt.Errorf("error inserting mirror transaction: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, querySetReferenceTransaction, mirrorId, original.Id); err != nil {
		return nil, nil, fmt.Errorf("error linking mirror transaction: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("error committing acceptance: %w", err)
	}

	zap.L().Info("Transaction pair accepted",
		zap.String("transaction_id", original.Id),
		zap.String("mirror_id", mirrorId),
		zap.String("trade_id", original.TradeId))

	accepted, err := s.GetTransactionById(ctx, original.Id)
	if err != nil {
		return nil, nil, err
	}
	mirror, err := s.GetTransactionById(ctx, mirrorId)
	if err != nil {
		return nil, nil, err
	}
	return accepted, mirror, nil
}

// RejectTransaction moves an open transaction to rejected. Serves both
// user-initiated trade cancellation and fulfillment auto-rejection.
func (s *Service) RejectTransaction(ctx context.Context, transactionId string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateTransactionStatus, models.TransactionStatusRejected, transactionId)
	if err != nil {
		return fmt.Errorf("error rejecting transaction %s: %w", transactionId, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking reject result: %w", err)
	}
	if affected == 0 {
		return store.ErrTransactionNotOpen
	}

	zap.L().Info("Transaction rejected", zap.String("transaction_id", transactionId))
	return nil
}

func (s *Service) ListOpenBuyOffers(ctx context.Context, tradeId string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryListOpenBuyOffers, tradeId)
	if err != nil {
		return nil, fmt.Errorf("error querying open offers: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTradeTransactions returns the trade's transactions visible to
// the user (rows where they are buyer or seller), newest first.
func (s *Service) ListTradeTransactions(ctx context.Context, tradeId, userId string, filter store.TransactionFilter, page store.Page) ([]models.Transaction, int64, error) {
	where := []string{
		"trade_id = ?",
		"(buyer_id = ? OR seller_id = ?)",
		"deleted_at IS NULL",
	}
	args := []any{tradeId, userId, userId}

	appendIn := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
		where = append(where, fmt.Sprintf("%s IN (%s)", column, placeholders))
		for _, v := range values {
			args = append(args, strings.ToLower(v))
		}
	}

	appendIn("status", filter.Statuses)
	appendIn("currency", filter.Currencies)
	appendIn("type", filter.Types)

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM transactions WHERE " + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting transactions: %w", err)
	}

	limit := page.Limit
	if limit <= 0 || limit > store.MaxPageLimit {
		limit = store.MaxPageLimit
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + whereClause +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	transactions, err := collectTransactions(rows)
	return transactions, total, err
}

func (s *Service) ListClosedTransactionsWithoutInvoice(ctx context.Context, tradeId string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryListClosedTransactionsWithoutInvoice, tradeId)
	if err != nil {
		return nil, fmt.Errorf("error querying uninvoiced transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}
