package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAcceptTransaction(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserIdFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	mirror, err := s.services.Exchange.AcceptTransaction(r.Context(), chi.URLParam(r, "transaction"), userId)
	if err != nil {
		writeFailure(w, "Error accepting transaction.", err)
		return
	}

	trade, err := s.services.Exchange.GetTrade(r.Context(), mirror.TradeId)
	if err != nil {
		writeFailure(w, "Error accepting transaction.", err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{
		"trade":       newTradeResource(trade, s.services.Registry),
		"transaction": newTransactionResource(mirror),
	})
}
