// Package stats derives an analytics snapshot from a receipt list. Every
// computation is a pure function of its input and the reference time; there
// is no retained state and no incremental update, a snapshot is always a
// full recompute.
package stats

import (
	"sort"
	"time"

	"receipts/internal/core"
)

// TopExpenseLimit is how many receipts the top-expense section carries.
const TopExpenseLimit = 5

type (
	// Summary holds the headline aggregates. This-month and last-month
	// windows are calendar months, not rolling 30-day spans.
	Summary struct {
		TotalAmount     int64   `json:"totalAmount"`
		TotalCount      int     `json:"totalCount"`
		AverageAmount   float64 `json:"averageAmount"`
		ThisMonthAmount int64   `json:"thisMonthAmount"`
		ThisMonthCount  int     `json:"thisMonthCount"`
		LastMonthAmount int64   `json:"lastMonthAmount"`
		LastMonthCount  int     `json:"lastMonthCount"`
		MonthlyGrowth   float64 `json:"monthlyGrowth"`
	}

	MonthlyPoint struct {
		Month  string `json:"month"`
		Amount int64  `json:"amount"`
		Count  int    `json:"count"`
	}

	CategoryShare struct {
		Category   core.Category `json:"category"`
		Amount     int64         `json:"amount"`
		Count      int           `json:"count"`
		Percentage float64       `json:"percentage"`
	}

	DailyPoint struct {
		Date   string `json:"date"`
		Amount int64  `json:"amount"`
		Count  int    `json:"count"`
	}

	Statistics struct {
		Summary     Summary         `json:"summary"`
		Monthly     []MonthlyPoint  `json:"monthlyData"`
		Categories  []CategoryShare `json:"categoryData"`
		Daily       []DailyPoint    `json:"dailyData"`
		TopExpenses []core.Receipt  `json:"topExpenses"`
	}
)

// Compute builds the full snapshot for the collection relative to now.
// An empty collection yields an all-zero summary and empty sections.
func Compute(receipts []core.Receipt, now time.Time) Statistics {
	st := Statistics{
		Monthly:     []MonthlyPoint{},
		Categories:  []CategoryShare{},
		Daily:       []DailyPoint{},
		TopExpenses: []core.Receipt{},
	}
	if len(receipts) == 0 {
		return st
	}

	st.Summary = computeSummary(receipts, now)
	st.Monthly = computeMonthly(receipts, now)
	st.Categories = computeCategories(receipts, st.Summary.TotalAmount)
	st.Daily = computeDaily(receipts, now)
	st.TopExpenses = computeTopExpenses(receipts)
	return st
}

func computeSummary(receipts []core.Receipt, now time.Time) Summary {
	var s Summary
	// Anchor on the first of the month before stepping back, otherwise e.g.
	// March 31 minus one month lands in March again.
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := firstOfMonth.AddDate(0, -1, 0)

	for _, r := range receipts {
		s.TotalAmount += r.Amount
		s.TotalCount++
		if core.SameMonth(r.Date, now) {
			s.ThisMonthAmount += r.Amount
			s.ThisMonthCount++
		}
		if core.SameMonth(r.Date, lastMonth) {
			s.LastMonthAmount += r.Amount
			s.LastMonthCount++
		}
	}

	s.AverageAmount = float64(s.TotalAmount) / float64(s.TotalCount)

	// No spending last month is flat, not infinite growth.
	if s.LastMonthAmount > 0 {
		s.MonthlyGrowth = float64(s.ThisMonthAmount-s.LastMonthAmount) / float64(s.LastMonthAmount) * 100
	}
	return s
}

// computeMonthly walks the trailing six calendar months, oldest first.
// Stepping is exact month arithmetic anchored on the first of the month, so
// short months can never skip or repeat a bucket.
func computeMonthly(receipts []core.Receipt, now time.Time) []MonthlyPoint {
	out := make([]MonthlyPoint, 0, 6)
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 5; i >= 0; i-- {
		target := anchor.AddDate(0, -i, 0)
		p := MonthlyPoint{Month: core.MonthLabel(target)}
		for _, r := range receipts {
			if core.SameMonth(r.Date, target) {
				p.Amount += r.Amount
				p.Count++
			}
		}
		out = append(out, p)
	}
	return out
}

func computeCategories(receipts []core.Receipt, totalAmount int64) []CategoryShare {
	idx := map[core.Category]int{}
	out := []CategoryShare{}
	for _, r := range receipts {
		i, ok := idx[r.Category]
		if !ok {
			i = len(out)
			idx[r.Category] = i
			out = append(out, CategoryShare{Category: r.Category})
		}
		out[i].Amount += r.Amount
		out[i].Count++
	}
	for i := range out {
		out[i].Percentage = float64(out[i].Amount) / float64(totalAmount) * 100
	}
	// Descending by amount; equal amounts keep first-appearance order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

func computeDaily(receipts []core.Receipt, now time.Time) []DailyPoint {
	out := make([]DailyPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		target := now.AddDate(0, 0, -i)
		p := DailyPoint{Date: core.DayLabel(target)}
		for _, r := range receipts {
			if core.SameDay(r.Date, target) {
				p.Amount += r.Amount
				p.Count++
			}
		}
		out = append(out, p)
	}
	return out
}

func computeTopExpenses(receipts []core.Receipt) []core.Receipt {
	sorted := append([]core.Receipt(nil), receipts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })
	if len(sorted) > TopExpenseLimit {
		sorted = sorted[:TopExpenseLimit]
	}
	return sorted
}
