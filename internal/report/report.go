// Package report renders analysis results and scan history as downloadable
// tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"finsec/internal/models"

	"github.com/xuri/excelize/v2"
)

// Default download file names.
const (
	ReportCSVName  = "finsec_report.csv"
	ReportXLSXName = "finsec_report.xlsx"
	HistoryCSVName = "finsec_history.csv"
)

// ScoreColumns are appended after the uploaded columns.
var ScoreColumns = []string{"risk_score", "risk_category", "fraud_indicators"}

var historyColumns = []string{
	"Scan ID", "Filename", "Total Transactions", "High Risk", "Medium Risk", "Low Risk", "Scan Date",
}

// Table returns the header and rows of an analysis export: the uploaded
// columns followed by risk_score, risk_category and fraud_indicators.
func Table(a *models.Analysis) ([]string, [][]string) {
	header := append(append([]string{}, a.Columns...), ScoreColumns...)

	rows := make([][]string, len(a.Results))
	for i, res := range a.Results {
		var values []string
		if i < len(a.Rows) {
			values = a.Rows[i]
		}
		row := make([]string, 0, len(header))
		row = append(row, values...)
		for len(row) < len(a.Columns) {
			row = append(row, "")
		}
		row = append(row,
			strconv.FormatFloat(res.RiskScore, 'f', -1, 64),
			string(res.RiskCategory),
			strings.Join(res.FraudIndicators, ", "),
		)
		rows[i] = row
	}
	return header, rows
}

// WriteCSV writes the analysis export as CSV.
func WriteCSV(w io.Writer, a *models.Analysis) error {
	header, rows := Table(a)
	return writeCSV(w, header, rows)
}

// WriteXLSX writes the analysis export as an XLSX workbook.
func WriteXLSX(w io.Writer, a *models.Analysis) error {
	header, rows := Table(a)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for j, h := range header {
		if err := setCell(f, sheet, j, 0, h); err != nil {
			return err
		}
	}

	scoreCol := len(a.Columns)
	for i, row := range rows {
		for j, v := range row {
			var value any = v
			if j == scoreCol {
				value = a.Results[i].RiskScore
			}
			if err := setCell(f, sheet, j, i+1, value); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// WriteHistoryCSV writes the scan history as CSV.
func WriteHistoryCSV(w io.Writer, scans []models.ScanRecord) error {
	rows := make([][]string, len(scans))
	for i, s := range scans {
		rows[i] = []string{
			s.ID,
			s.Filename,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.HighRisk),
			strconv.Itoa(s.MediumRisk),
			strconv.Itoa(s.LowRisk),
			s.ScanDate.Format("2006-01-02 15:04"),
		}
	}
	return writeCSV(w, historyColumns, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Errorf("cell %d,%d: %w", col, row, err)
	}
	return f.SetCellValue(sheet, name, value)
}
