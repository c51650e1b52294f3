package handlers

import (
	"bytes"
	"net/http"

	"finsec/internal/apperr"
	"finsec/internal/logging"
	"finsec/internal/models"
	"finsec/internal/navigation"
	"finsec/internal/report"
)

// ScanItem is a scan in the history table.
type ScanItem struct {
	models.ScanRecord
	Date string
}

// HistoryViewModel is the data passed to the history template.
type HistoryViewModel struct {
	Layout
	Scans             []ScanItem
	TotalTransactions int
	TotalHighRisk     int
	Error             string
}

// History renders the scan history of the signed-in account.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	state, notice, ok := h.enter(w, r, navigation.PageHistory)
	if !ok {
		return
	}
	view := HistoryViewModel{Layout: layoutFor(state, notice)}

	scans, err := h.db.ListScans(state.Account.ID)
	if err != nil {
		logging.LogError(h.log, "handlers", "History", state.Account.ID, err)
		view.Error = apperr.Message(err)
		h.renderStatus(w, r, http.StatusServiceUnavailable, "history.html", view)
		return
	}

	view.Scans = make([]ScanItem, 0, len(scans))
	for _, s := range scans {
		view.Scans = append(view.Scans, ScanItem{ScanRecord: s, Date: s.ScanDate.Format("2006-01-02 15:04")})
		view.TotalTransactions += s.Total
		view.TotalHighRisk += s.HighRisk
	}
	h.render(w, r, "history.html", view)
}

// HistoryCSV downloads the scan history as CSV.
func (h *Handlers) HistoryCSV(w http.ResponseWriter, r *http.Request) {
	state, _, ok := h.enter(w, r, navigation.PageHistory)
	if !ok {
		return
	}
	scans, err := h.db.ListScans(state.Account.ID)
	if err != nil {
		logging.LogError(h.log, "handlers", "HistoryCSV", state.Account.ID, err)
		http.Error(w, apperr.Message(err), http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteHistoryCSV(&buf, scans); err != nil {
		logging.LogError(h.log, "handlers", "HistoryCSV", state.Account.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sendFile(w, "text/csv", report.HistoryCSVName, buf.Bytes())
}
