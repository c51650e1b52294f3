package handlers

import (
	"html/template"
	"sort"

	"finsec/internal/models"
)

// RiskStyle defines the visual style for a risk category.
type RiskStyle struct {
	Color      template.CSS
	Background template.CSS
}

var riskStyles = map[models.RiskCategory]RiskStyle{
	models.RiskHigh:   {Color: "#ff4b4b", Background: "rgba(255, 75, 75, 0.2)"},
	models.RiskMedium: {Color: "#ffa500", Background: "rgba(255, 165, 0, 0.2)"},
	models.RiskLow:    {Color: "#00cc96", Background: "rgba(0, 204, 150, 0.2)"},
}

func getRiskStyle(c models.RiskCategory) RiskStyle {
	if s, ok := riskStyles[c]; ok {
		return s
	}
	return RiskStyle{Color: "#94a3b8", Background: "transparent"}
}

// RiskBucket is one slice of the risk distribution.
type RiskBucket struct {
	Category   models.RiskCategory
	Label      string
	Count      int
	Percentage int
	Style      RiskStyle
}

// IndicatorCount is how often a fraud indicator was raised in a batch.
type IndicatorCount struct {
	Indicator string
	Count     int
	// Width is the bar length relative to the most frequent indicator.
	Width int
}

// ResultRow is one row of the detailed results table.
type ResultRow struct {
	Values     []string
	Score      float64
	Category   models.RiskCategory
	Indicators []string
	Style      RiskStyle
}

// StatsViewModel is the analysis part of the dashboard.
type StatsViewModel struct {
	Filename     string
	Summary      models.Summary
	Distribution []RiskBucket
	Indicators   []IndicatorCount
	Columns      []string
	Rows         []ResultRow
}

// buildStats prepares an analysis for display: the risk distribution, the
// indicator frequencies and the detailed table.
func buildStats(a *models.Analysis) *StatsViewModel {
	if a == nil {
		return nil
	}
	s := a.Summary

	distribution := []RiskBucket{
		{Category: models.RiskHigh, Label: "High Risk Transactions", Count: s.HighCount, Percentage: s.HighPercent},
		{Category: models.RiskMedium, Label: "Medium Risk Transactions", Count: s.MediumCount, Percentage: s.MediumPercent},
		{Category: models.RiskLow, Label: "Low Risk Transactions", Count: s.LowCount, Percentage: s.LowPercent},
	}
	for i := range distribution {
		distribution[i].Style = getRiskStyle(distribution[i].Category)
	}

	counts := make(map[string]int)
	rows := make([]ResultRow, 0, len(a.Results))
	for i, res := range a.Results {
		for _, ind := range res.FraudIndicators {
			counts[ind]++
		}
		var values []string
		if i < len(a.Rows) {
			values = a.Rows[i]
		}
		rows = append(rows, ResultRow{
			Values:     values,
			Score:      res.RiskScore,
			Category:   res.RiskCategory,
			Indicators: res.FraudIndicators,
			Style:      getRiskStyle(res.RiskCategory),
		})
	}

	return &StatsViewModel{
		Filename:     a.Filename,
		Summary:      s,
		Distribution: distribution,
		Indicators:   indicatorCounts(counts),
		Columns:      a.Columns,
		Rows:         rows,
	}
}

// indicatorCounts orders indicators by frequency, most frequent first.
func indicatorCounts(counts map[string]int) []IndicatorCount {
	items := make([]IndicatorCount, 0, len(counts))
	top := 0
	for ind, n := range counts {
		items = append(items, IndicatorCount{Indicator: ind, Count: n})
		if n > top {
			top = n
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Indicator < items[j].Indicator
	})
	for i := range items {
		items[i].Width = items[i].Count * 100 / top
	}
	return items
}
