// Package upload parses uploaded transaction files into batches.
package upload

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"finsec/internal/apperr"
	"finsec/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// MaxSize is the largest accepted upload.
const MaxSize = 10 << 20

// Well-known column names, matched case-insensitively.
const (
	colTransactionID = "transaction_id"
	colAmount        = "amount"
	colMerchant      = "merchant"
	colLocation      = "location"
	colTimestamp     = "timestamp"
	colCustomerID    = "customer_id"
)

var amountNoise = regexp.MustCompile(`[^\d.\-]`)

// Parse reads a CSV or XLSX file. The first row is the header and every
// following non-blank row becomes one transaction.
func Parse(filename string, r io.Reader) (models.Batch, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return models.Batch{}, apperr.Validation("Unsupported file type %q: upload a .csv or .xlsx file", filepath.Ext(filename))
	}
	if err != nil {
		return models.Batch{}, apperr.Validation("Error: %v", err)
	}

	batch, err := toBatch(records)
	if err != nil {
		return models.Batch{}, err
	}
	batch.Filename = filename
	return batch, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	return reader.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func toBatch(records [][]string) (models.Batch, error) {
	if len(records) == 0 {
		return models.Batch{}, apperr.Validation("The uploaded file is empty")
	}

	header := make([]string, len(records[0]))
	colMap := make(map[string]int)
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		name := strings.ToLower(header[i])
		if _, dup := colMap[name]; !dup {
			colMap[name] = i
		}
	}

	batch := models.Batch{Columns: header}
	for i := 1; i < len(records); i++ {
		row := records[i]
		if blank(row) {
			continue
		}

		if len(row) > len(header) && !blank(row[len(header):]) {
			return models.Batch{}, apperr.Validation("Error: row %d has %d cells but the header has %d", i+1, len(row), len(header))
		}

		// Spreadsheet rows drop trailing empty cells
		values := make([]string, len(header))
		copy(values, row)

		tx := models.Transaction{
			TransactionID: cell(values, colMap, colTransactionID),
			Merchant:      cell(values, colMap, colMerchant),
			Location:      cell(values, colMap, colLocation),
			Timestamp:     cell(values, colMap, colTimestamp),
			CustomerID:    cell(values, colMap, colCustomerID),
			Values:        values,
		}

		if raw := cell(values, colMap, colAmount); raw != "" {
			amount, err := ParseAmount(raw)
			if err != nil {
				return models.Batch{}, apperr.Validation("Error: row %d: invalid amount %q", i+1, raw)
			}
			tx.Amount = amount
		}

		batch.Transactions = append(batch.Transactions, tx)
	}

	if len(batch.Transactions) == 0 {
		return models.Batch{}, apperr.Validation("The uploaded file contains no transactions")
	}
	return batch, nil
}

// ParseAmount parses an amount, ignoring currency symbols and thousands
// separators.
func ParseAmount(raw string) (decimal.Decimal, error) {
	clean := amountNoise.ReplaceAllString(strings.TrimSpace(raw), "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("no digits in %q", raw)
	}
	return decimal.NewFromString(clean)
}

func cell(values []string, colMap map[string]int, name string) string {
	i, ok := colMap[name]
	if !ok || i >= len(values) {
		return ""
	}
	return strings.TrimSpace(values[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
