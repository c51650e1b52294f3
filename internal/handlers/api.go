package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"finsec/internal/accounts"
	"finsec/internal/apperr"
	"finsec/internal/logging"
	"finsec/internal/models"
	"finsec/internal/validate"
)

// APIKeyHeader carries the key of the calling account.
const APIKeyHeader = "X-API-Key"

// BatchRequest is the body of a batch detection request.
type BatchRequest struct {
	Transactions []models.Transaction `json:"transactions" validate:"required,min=1"`
}

// BatchSummary counts a batch detection response by risk category.
type BatchSummary struct {
	Total      int `json:"total"`
	HighRisk   int `json:"high_risk"`
	MediumRisk int `json:"medium_risk"`
	LowRisk    int `json:"low_risk"`
}

// BatchResponse is the body of a batch detection response.
type BatchResponse struct {
	Results []models.ScoredTransaction `json:"results"`
	Summary BatchSummary               `json:"summary"`
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// authorizeAPI resolves the calling account and checks that live detection
// is open to it. On failure the error response is already written.
func (h *Handlers) authorizeAPI(w http.ResponseWriter, r *http.Request) (*models.AccountView, bool) {
	account, err := h.accounts.AccountByAPIKey(r.Header.Get(APIKeyHeader))
	if errors.Is(err, apperr.ErrAuthenticationFailed) {
		writeJSON(w, http.StatusUnauthorized, apiError{Error: "Invalid or missing API key"})
		return nil, false
	}
	if err != nil {
		logging.LogError(h.log, "handlers", "authorizeAPI", nil, err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: apperr.Message(err)})
		return nil, false
	}

	settings, err := h.accounts.Settings(account.ID)
	if err != nil {
		logging.LogError(h.log, "handlers", "authorizeAPI", account.ID, err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: apperr.Message(err)})
		return nil, false
	}
	if !accounts.LiveAccess(*account, settings) {
		writeJSON(w, http.StatusForbidden, apiError{Error: "Live access requires the premium plan and live access enabled in settings"})
		return nil, false
	}
	return account, true
}

// Detect scores a single transaction.
func (h *Handlers) Detect(w http.ResponseWriter, r *http.Request) {
	account, ok := h.authorizeAPI(w, r)
	if !ok {
		return
	}

	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "Invalid JSON body"})
		return
	}

	result, err := h.engine.ScoreSingle(r.Context(), tx)
	if err != nil {
		h.log.WithField("func", "Detect").WithField("account", account.ID).Warnf("scoring aborted: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "Error: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// BatchDetect scores a list of transactions.
func (h *Handlers) BatchDetect(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorizeAPI(w, r); !ok {
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "Invalid JSON body"})
		return
	}
	if fields := validate.FieldErrors(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "No transactions to score", Fields: fields})
		return
	}

	results, summary := h.engine.ScoreBatch(req.Transactions)
	writeJSON(w, http.StatusOK, BatchResponse{
		Results: results,
		Summary: BatchSummary{
			Total:      summary.Total,
			HighRisk:   summary.HighCount,
			MediumRisk: summary.MediumCount,
			LowRisk:    summary.LowCount,
		},
	})
}
