package models

import "time"

// ScanRecord is one persisted batch analysis run.
type ScanRecord struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Filename   string    `json:"filename"`
	Total      int       `json:"total"`
	HighRisk   int       `json:"high_risk"`
	MediumRisk int       `json:"medium_risk"`
	LowRisk    int       `json:"low_risk"`
	ScanDate   time.Time `json:"scan_date"`
}
