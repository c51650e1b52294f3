package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskCategory is the bucket a risk score falls into.
type RiskCategory string

const (
	RiskLow    RiskCategory = "Low"
	RiskMedium RiskCategory = "Medium"
	RiskHigh   RiskCategory = "High"
)

// Transaction is a single transaction submitted for scoring, either one row
// of an uploaded file or one request to the detection API.
type Transaction struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Merchant      string          `json:"merchant,omitempty"`
	Location      string          `json:"location,omitempty"`
	Timestamp     string          `json:"timestamp,omitempty"`
	CustomerID    string          `json:"customer_id,omitempty"`

	// Values holds the raw cells of an uploaded row, aligned with the
	// batch columns.
	Values []string `json:"-"`
}

// ScoredTransaction is the scoring result for one transaction. Its JSON form
// is the response body of the detection API.
type ScoredTransaction struct {
	TransactionID   string       `json:"transaction_id"`
	RiskScore       float64      `json:"risk_score"`
	RiskCategory    RiskCategory `json:"risk_category"`
	FraudIndicators []string     `json:"fraud_indicators"`
	Timestamp       time.Time    `json:"timestamp"`
}

// Summary aggregates a scored batch. Percentages are rounded independently
// and need not add up to 100.
type Summary struct {
	Total         int    `json:"total"`
	HighCount     int    `json:"high_count"`
	MediumCount   int    `json:"medium_count"`
	LowCount      int    `json:"low_count"`
	HighPercent   int    `json:"high_percent"`
	MediumPercent int    `json:"medium_percent"`
	LowPercent    int    `json:"low_percent"`
	Text          string `json:"summary"`
}

// Batch is a parsed upload: column names plus one transaction per row.
type Batch struct {
	Filename     string
	Columns      []string
	Transactions []Transaction
}

// Analysis is the result of scoring an uploaded batch, kept with the session
// so it can be redisplayed and downloaded until cleared.
type Analysis struct {
	Filename string              `json:"filename"`
	ScanID   string              `json:"scan_id"`
	Columns  []string            `json:"columns"`
	Rows     [][]string          `json:"rows"`
	Results  []ScoredTransaction `json:"results"`
	Summary  Summary             `json:"summary"`
}
