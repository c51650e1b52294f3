package handlers

import (
	"testing"

	"finsec/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStats(t *testing.T) {
	assert.Nil(t, buildStats(nil))

	a := &models.Analysis{
		Filename: "batch.csv",
		Columns:  []string{"transaction_id"},
		Rows:     [][]string{{"t1"}, {"t2"}, {"t3"}},
		Results: []models.ScoredTransaction{
			{TransactionID: "t1", RiskScore: 0.9, RiskCategory: models.RiskHigh, FraudIndicators: []string{"Unusual location", "Suspicious IP address"}},
			{TransactionID: "t2", RiskScore: 0.5, RiskCategory: models.RiskMedium, FraudIndicators: []string{"Suspicious IP address"}},
			{TransactionID: "t3", RiskScore: 0.1, RiskCategory: models.RiskLow, FraudIndicators: []string{}},
		},
		Summary: models.Summary{Total: 3, HighCount: 1, MediumCount: 1, LowCount: 1, HighPercent: 33, MediumPercent: 33, LowPercent: 33},
	}

	stats := buildStats(a)
	require.NotNil(t, stats)
	assert.Equal(t, "batch.csv", stats.Filename)

	require.Len(t, stats.Distribution, 3)
	assert.Equal(t, models.RiskHigh, stats.Distribution[0].Category)
	assert.Equal(t, 1, stats.Distribution[0].Count)
	assert.Equal(t, 33, stats.Distribution[0].Percentage)
	assert.Equal(t, riskStyles[models.RiskHigh], stats.Distribution[0].Style)

	require.Len(t, stats.Indicators, 2)
	assert.Equal(t, IndicatorCount{Indicator: "Suspicious IP address", Count: 2, Width: 100}, stats.Indicators[0])
	assert.Equal(t, IndicatorCount{Indicator: "Unusual location", Count: 1, Width: 50}, stats.Indicators[1])

	require.Len(t, stats.Rows, 3)
	assert.Equal(t, []string{"t2"}, stats.Rows[1].Values)
	assert.Equal(t, models.RiskMedium, stats.Rows[1].Category)
	assert.Equal(t, riskStyles[models.RiskLow], stats.Rows[2].Style)
}

func TestIndicatorCountsTieBreak(t *testing.T) {
	items := indicatorCounts(map[string]int{"b": 1, "a": 1})
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Indicator)
	assert.Equal(t, "b", items[1].Indicator)

	assert.Empty(t, indicatorCounts(map[string]int{}))
}

func TestGetRiskStyleUnknown(t *testing.T) {
	style := getRiskStyle("Unknown")
	assert.NotEqual(t, riskStyles[models.RiskHigh], style)
	assert.NotEmpty(t, style.Color)
}
