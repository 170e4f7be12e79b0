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
	"net/http"

	"plex-exchange-go/internal/common"
	"plex-exchange-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the marketplace over HTTP, mirroring the original
// /api/v1 route surface.
type Server struct {
	services *common.Services
	cfg      models.ServerConfig
	limiter  *clientLimiter
}

func NewServer(services *common.Services, cfg models.ServerConfig) *Server {
	return &Server{
		services: services,
		cfg:      cfg,
		limiter:  newClientLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.RateLimited)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/currencies", s.handleListCurrencies)
		r.Get("/trades", s.handleListTrades)

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticated)

			r.Get("/users/{user}", s.handleShowUser)

			r.Post("/trades", s.handleCreateTrade)
			r.Post("/trades/{trade}/accept", s.handleAcceptTrade)
			r.Post("/trades/{trade}/cancel", s.handleCancelTrade)
			r.Get("/trades/{trade}/transactions", s.handleListTradeTransactions)

			r.Post("/transactions/{transaction}/accept", s.handleAcceptTransaction)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Resource Not Found.", nil)
	})

	return r
}
