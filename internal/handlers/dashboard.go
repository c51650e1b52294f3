package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"finsec/internal/accounts"
	"finsec/internal/apperr"
	"finsec/internal/logging"
	"finsec/internal/models"
	"finsec/internal/navigation"
	"finsec/internal/report"
	"finsec/internal/upload"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Messages shown on the dashboard.
const (
	AnalysisCompleteNotice = "Analysis complete!"
	NoFileMessage          = "Please choose a CSV or Excel file to upload"
	UpgradeMessage         = "Live monitoring is available only for Premium users. Please upgrade your plan."
	LiveDisabledMessage    = "Live access is not enabled. Please enable it in the Settings page."
	HighRiskAlert          = "High risk transaction detected! Alert email would be sent in a production environment."
)

var minLiveAmount = decimal.NewFromInt(1)

// Metric is one headline figure of the dashboard.
type Metric struct {
	Value string
	Label string
}

var platformMetrics = []Metric{
	{Value: "98.7%", Label: "Detection Accuracy"},
	{Value: "24/7", Label: "Monitoring"},
	{Value: "< 1s", Label: "Response Time"},
	{Value: "100+", Label: "Fraud Patterns"},
}

// LiveViewModel is the live monitoring tab.
type LiveViewModel struct {
	Premium bool
	Enabled bool

	TransactionID string
	Amount        string
	Merchant      string
	Location      string

	Result *models.ScoredTransaction
	Style  RiskStyle
	Alert  string
	Error  string
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Layout
	Metrics     []Metric
	Tab         string
	UploadError string
	Stats       *StatsViewModel
	Live        LiveViewModel
}

// settingsFor returns the settings of the signed-in account. Lookup failures
// are logged and yield the defaults.
func (h *Handlers) settingsFor(state navigation.State) models.AccountSettings {
	settings, err := h.accounts.Settings(state.Account.ID)
	if err != nil {
		logging.LogError(h.log, "handlers", "settingsFor", state.Account.ID, err)
	}
	return settings
}

func (h *Handlers) dashboardView(state navigation.State, notice string, settings models.AccountSettings) DashboardViewModel {
	return DashboardViewModel{
		Layout:  layoutFor(state, notice),
		Metrics: platformMetrics,
		Tab:     "upload",
		Stats:   buildStats(state.Analysis),
		Live: LiveViewModel{
			Premium:       state.Account.IsPremium(),
			Enabled:       accounts.LiveAccess(*state.Account, settings),
			TransactionID: uuid.NewString(),
			Amount:        "100.00",
			Merchant:      "Example Store",
			Location:      "New York, USA",
		},
	}
}

// Dashboard renders the dashboard.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	state, notice, ok := h.enter(w, r, navigation.PageDashboard)
	if !ok {
		return
	}
	view := h.dashboardView(state, notice, h.settingsFor(state))
	if r.URL.Query().Get("tab") == "live" {
		view.Tab = "live"
	}
	h.render(w, r, "dashboard.html", view)
}

// Analyze scores an uploaded transaction file, records the scan and keeps
// the results on the session.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	state, _, ok := h.enter(w, r, navigation.PageDashboard)
	if !ok {
		return
	}
	fail := func(status int, msg string) {
		view := h.dashboardView(state, "", h.settingsFor(state))
		view.UploadError = msg
		h.renderStatus(w, r, status, "dashboard.html", view)
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxSize)
	if err := r.ParseMultipartForm(upload.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(http.StatusRequestEntityTooLarge, "The uploaded file is larger than 10 MB")
			return
		}
		fail(http.StatusBadRequest, NoFileMessage)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		fail(http.StatusBadRequest, NoFileMessage)
		return
	}
	defer file.Close()

	batch, err := upload.Parse(header.Filename, file)
	if err != nil {
		fail(http.StatusBadRequest, apperr.Message(err))
		return
	}

	results, summary := h.engine.ScoreBatch(batch.Transactions)
	scanID, err := h.db.RecordScan(state.Account.ID, batch.Filename,
		summary.Total, summary.HighCount, summary.MediumCount, summary.LowCount)
	if err != nil {
		logging.LogError(h.log, "handlers", "Analyze", state.Account.ID, err)
		fail(http.StatusServiceUnavailable, apperr.Message(err))
		return
	}

	rows := make([][]string, len(batch.Transactions))
	for i, tx := range batch.Transactions {
		rows[i] = tx.Values
	}
	next := h.nav.WithAnalysis(state, &models.Analysis{
		Filename: batch.Filename,
		ScanID:   scanID,
		Columns:  batch.Columns,
		Rows:     rows,
		Results:  results,
		Summary:  summary,
	})
	next.Notice = AnalysisCompleteNotice
	h.save(w, r, next)

	h.log.WithField("func", "Analyze").WithField("account", state.Account.ID).Infof("scored %d transactions", summary.Total)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ClearAnalysis drops the analysis kept on the session.
func (h *Handlers) ClearAnalysis(w http.ResponseWriter, r *http.Request) {
	state, _, ok := h.enter(w, r, navigation.PageDashboard)
	if !ok {
		return
	}
	h.save(w, r, h.nav.ClearAnalysis(state))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ReportCSV downloads the current analysis as CSV.
func (h *Handlers) ReportCSV(w http.ResponseWriter, r *http.Request) {
	h.downloadReport(w, r, "text/csv", report.ReportCSVName, report.WriteCSV)
}

// ReportXLSX downloads the current analysis as an Excel workbook.
func (h *Handlers) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	h.downloadReport(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		report.ReportXLSXName, report.WriteXLSX)
}

func (h *Handlers) downloadReport(w http.ResponseWriter, r *http.Request, contentType, filename string,
	write func(w io.Writer, a *models.Analysis) error) {
	state, _, ok := h.enter(w, r, navigation.PageDashboard)
	if !ok {
		return
	}
	if state.Analysis == nil {
		http.Error(w, "No analysis results to download", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, state.Analysis); err != nil {
		logging.LogError(h.log, "handlers", "downloadReport", filename, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sendFile(w, contentType, filename, buf.Bytes())
}

func sendFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

// LiveScore scores a single transaction from the live monitoring form.
func (h *Handlers) LiveScore(w http.ResponseWriter, r *http.Request) {
	state, _, ok := h.enter(w, r, navigation.PageDashboard)
	if !ok {
		return
	}
	settings := h.settingsFor(state)
	view := h.dashboardView(state, "", settings)
	view.Tab = "live"
	if !view.Live.Enabled {
		view.Live.Error = LiveDisabledMessage
		if !view.Live.Premium {
			view.Live.Error = UpgradeMessage
		}
		h.renderStatus(w, r, http.StatusForbidden, "dashboard.html", view)
		return
	}

	live := &view.Live
	live.TransactionID = strings.TrimSpace(r.FormValue("transaction_id"))
	live.Amount = strings.TrimSpace(r.FormValue("amount"))
	live.Merchant = strings.TrimSpace(r.FormValue("merchant"))
	live.Location = strings.TrimSpace(r.FormValue("location"))

	amount, err := upload.ParseAmount(live.Amount)
	if err != nil || amount.LessThan(minLiveAmount) {
		live.Error = "Please enter an amount of at least 1.00"
		h.renderStatus(w, r, http.StatusBadRequest, "dashboard.html", view)
		return
	}

	result, err := h.engine.ScoreSingle(r.Context(), models.Transaction{
		TransactionID: live.TransactionID,
		Amount:        amount,
		Merchant:      live.Merchant,
		Location:      live.Location,
	})
	if err != nil {
		live.Error = "Error: " + err.Error()
		h.render(w, r, "dashboard.html", view)
		return
	}

	live.Result = &result
	live.Style = getRiskStyle(result.RiskCategory)
	if result.RiskCategory == models.RiskHigh && settings.EmailAlerts {
		live.Alert = HighRiskAlert
	}
	h.render(w, r, "dashboard.html", view)
}
