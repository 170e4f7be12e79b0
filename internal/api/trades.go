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

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"plex-exchange-go/internal/exchange"
	"plex-exchange-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type newTradeRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	FromCurrency     string          `json:"from_currency"`
	ToCurrency       string          `json:"to_currency"`
	Rate             decimal.Decimal `json:"rate"`
	RateBaseCurrency string          `json:"rate_base_currency"`
}

type acceptTradeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	filter := store.TradeFilter{
		Statuses:       splitParam(r.URL.Query().Get("status")),
		FromCurrencies: splitParam(r.URL.Query().Get("from_currency")),
		ToCurrencies:   splitParam(r.URL.Query().Get("to_currency")),
	}
	page := parsePage(r, "limit")

	trades, total, err := s.services.Exchange.ListTrades(r.Context(), filter, page)
	if err != nil {
		writeFailure(w, "Error listing trades.", err)
		return
	}

	resources := make([]tradeResource, 0, len(trades))
	for i := range trades {
		resources = append(resources, newTradeResource(&trades[i], s.services.Registry))
	}

	writeData(w, http.StatusOK, map[string]any{
		"trades": resources,
		"meta":   pageMeta{Total: total, Limit: page.Limit, Offset: page.Offset},
	})
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserIdFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	var req newTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	trade, err := s.services.Exchange.CreateTrade(r.Context(), exchange.CreateTradeParams{
		OwnerId:          userId,
		Amount:           req.Amount,
		FromCurrency:     req.FromCurrency,
		ToCurrency:       req.ToCurrency,
		Rate:             req.Rate,
		RateBaseCurrency: req.RateBaseCurrency,
	})
	if err != nil {
		writeFailure(w, "Error creating trade.", err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{
		"trade": newTradeResource(trade, s.services.Registry),
	})
}

func (s *Server) handleAcceptTrade(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserIdFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	var req acceptTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	transaction, err := s.services.Exchange.AcceptTrade(r.Context(), chi.URLParam(r, "trade"), userId, req.Amount)
	if err != nil {
		writeFailure(w, "Error accepting trade.", err)
		return
	}

	trade, err := s.services.Exchange.GetTrade(r.Context(), transaction.TradeId)
	if err != nil {
		writeFailure(w, "Error accepting trade.", err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{
		"trade":       newTradeResource(trade, s.services.Registry),
		"transaction": newTransactionResource(transaction),
	})
}

func (s *Server) handleCancelTrade(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserIdFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	trade, err := s.services.Exchange.CancelTrade(r.Context(), chi.URLParam(r, "trade"), userId)
	if err != nil {
		writeFailure(w, "Error cancelling trade.", err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"trade": newTradeResource(trade, s.services.Registry),
	})
}

func (s *Server) handleListTradeTransactions(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserIdFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	filter := store.TransactionFilter{
		Statuses:   splitParam(r.URL.Query().Get("status")),
		Currencies: splitParam(r.URL.Query().Get("currency")),
		Types:      splitParam(r.URL.Query().Get("type")),
	}
	page := parsePage(r, "size")

	transactions, total, err := s.services.Exchange.ListTradeTransactions(r.Context(),
		chi.URLParam(r, "trade"), userId, filter, page)
	if err != nil {
		writeFailure(w, "Error listing transactions.", err)
		return
	}

	resources := make([]transactionResource, 0, len(transactions))
	for i := range transactions {
		resources = append(resources, newTransactionResource(&transactions[i]))
	}

	writeData(w, http.StatusOK, map[string]any{
		"transactions": resources,
		"meta":         pageMeta{Total: total, Limit: page.Limit, Offset: page.Offset},
	})
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"currencies": s.services.Registry.Codes(),
	})
}

// splitParam parses a comma-separated multi-value query parameter.
func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// parsePage reads pagination from the query string: the named limit
// parameter (default 10, capped at 100) and a 1-based page number.
func parsePage(r *http.Request, limitParam string) store.Page {
	limit := 10
	if raw := r.URL.Query().Get(limitParam); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > store.MaxPageLimit {
		limit = store.MaxPageLimit
	}

	pageNo := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageNo = parsed
		}
	}

	return store.Page{Limit: limit, Offset: (pageNo - 1) * limit}
}
