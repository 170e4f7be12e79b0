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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanTrade(row interface{ Scan(...any) error }) (*models.Trade, error) {
	var trade models.Trade
	var rate string
	err := row.Scan(&trade.Id, &trade.UserId, &trade.Amount, &trade.FromCurrency,
		&trade.ToCurrency, &rate, &trade.Status, &trade.Version,
		&trade.CreatedAt, &trade.UpdatedAt, &trade.AvailableAmount)
	if err != nil {
		return nil, err
	}
	trade.Rate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid stored rate %q: %w", rate, err)
	}
	return &trade, nil
}

func (s *Service) CreateTrade(ctx context.Context, trade *models.Trade) (*models.Trade, error) {
	if trade.Id == "" {
		trade.Id = models.NewId(models.TradeIdPrefix)
	}
	if trade.Status == "" {
		trade.Status = models.TradeStatusOpen
	}

	_, err := s.db.ExecContext(ctx, queryInsertTrade, trade.Id, trade.UserId,
		trade.Amount, trade.FromCurrency, trade.ToCurrency, trade.Rate.String(), trade.Status)
	if err != nil {
		return nil, fmt.Errorf("error inserting trade: %w", err)
	}

	zap.L().Info("Trade created",
		zap.String("trade_id", trade.Id),
		zap.String("user_id", trade.UserId),
		zap.Int64("amount", trade.Amount),
		zap.String("from", trade.FromCurrency),
		zap.String("to", trade.ToCurrency))

	return s.GetTradeById(ctx, trade.Id)
}

func (s *Service) GetTradeById(ctx context.Context, tradeId string) (*models.Trade, error) {
	trade, err := scanTrade(s.db.QueryRowContext(ctx, queryGetTradeById, tradeId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying trade %s: %w", tradeId, err)
	}
	return trade, nil
}

// ListTrades returns trades matching the filter, newest first, plus the
// total match count.
func (s *Service) ListTrades(ctx context.Context, filter store.TradeFilter, page store.Page) ([]models.Trade, int64, error) {
	where := []string{"t.deleted_at IS NULL"}
	var args []any

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

	appendIn("t.status", filter.Statuses)
	appendIn("t.from_currency", filter.FromCurrencies)
	appendIn("t.to_currency", filter.ToCurrencies)

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM trades t WHERE " + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting trades: %w", err)
	}

	limit := page.Limit
	if limit <= 0 || limit > store.MaxPageLimit {
		limit = store.MaxPageLimit
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT " + tradeColumns + " FROM trades t WHERE " + whereClause +
		" ORDER BY t.created_at DESC, t.id DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	return trades, total, rows.Err()
}

// UpdateTradeStatus applies a version-guarded status change. A stale
// version means another writer moved the trade first.
func (s *Service) UpdateTradeStatus(ctx context.Context, tradeId, status string, version int64) error {
	result, err := s.db.ExecContext(ctx, queryUpdateTradeStatus, status, tradeId, version)
	if err != nil {
		return fmt.Errorf("error updating trade %s status: %w", tradeId, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking trade update result: %w", err)
	}
	if affected == 0 {
		return store.ErrConcurrentModification
	}

	zap.L().Info("Trade status updated",
		zap.String("trade_id", tradeId),
		zap.String("status", status))
	return nil
}
