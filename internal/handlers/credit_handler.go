package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/interfaces"
)

// CreditHandler exposes credit balances over HTTP
type CreditHandler struct {
	ledger interfaces.CreditLedger
	logger arbor.ILogger
}

// NewCreditHandler creates a credit handler
func NewCreditHandler(ledger interfaces.CreditLedger, logger arbor.ILogger) *CreditHandler {
	return &CreditHandler{
		ledger: ledger,
		logger: logger,
	}
}

// BalanceHandler handles GET /api/credits/{ownerId}
func (h *CreditHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ownerID := strings.TrimPrefix(r.URL.Path, "/api/credits/")
	if ownerID == "" || strings.Contains(ownerID, "/") {
		WriteError(w, http.StatusBadRequest, "owner ID is required")
		return
	}

	balance, err := h.ledger.Balance(r.Context(), ownerID)
	if err != nil {
		h.logger.Error().Err(err).Str("owner_id", ownerID).Msg("Balance lookup failed")
		WriteError(w, http.StatusInternalServerError, "balance lookup failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ownerId": ownerID,
		"balance": balance,
	})
}
