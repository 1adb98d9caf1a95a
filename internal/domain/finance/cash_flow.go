package finance

import (
	"sort"
	"time"
)

// CashFlowLine is the total of one category and direction over a period
type CashFlowLine struct {
	Category  Category  `json:"category"`
	Direction Direction `json:"direction"`
	Total     int64     `json:"total"`
	Count     int64     `json:"count"`
}

// CashFlowSummary aggregates ledger entries over a date range
type CashFlowSummary struct {
	From    time.Time      `json:"from"`
	To      time.Time      `json:"to"`
	Inflow  int64          `json:"inflow"`
	Outflow int64          `json:"outflow"`
	Net     int64          `json:"net"`
	Lines   []CashFlowLine `json:"lines"`
}

// NewCashFlowSummary totals the lines, ordered by category then direction
func NewCashFlowSummary(from, to time.Time, lines []CashFlowLine) CashFlowSummary {
	sorted := make([]CashFlowLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Direction < sorted[j].Direction
	})

	s := CashFlowSummary{From: from, To: to, Lines: sorted}
	for _, l := range sorted {
		if l.Direction == DirectionInflow {
			s.Inflow += l.Total
		} else {
			s.Outflow += l.Total
		}
	}
	s.Net = s.Inflow - s.Outflow
	return s
}
