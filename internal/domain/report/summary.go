// Package report derives aggregate views from a transaction sequence:
// running totals, the per-category expense breakdown, the balance insight
// and the exportable report document. Everything here is a pure function of
// its input; no I/O happens in this package.
package report

import (
	"math"
	"sort"

	"grana/internal/domain/money"
	"grana/internal/domain/transaction"
)

// CategoryShare is one expense category's slice of the total expense.
type CategoryShare struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"` // of total expense, one decimal
}

// Summary holds the running totals and the category breakdown for a
// transaction sequence.
type Summary struct {
	TotalIncome  float64         `json:"totalIncome"`
	TotalExpense float64         `json:"totalExpense"`
	NetBalance   float64         `json:"netBalance"`
	Categories   []CategoryShare `json:"byCategory"`
}

// Summarize aggregates the sequence in a single pass. Income adds to
// TotalIncome; expense adds to TotalExpense and to its category bucket
// (DefaultCategory when the entry has none). Values are defensively
// coerced: negative or non-finite magnitudes count as 0.
//
// Categories come back sorted by amount descending; equal amounts keep
// first-seen order. Percentages divide by max(TotalExpense, 1) so an
// all-income sequence yields 0% entries instead of a division fault.
func Summarize(list []transaction.Transaction) Summary {
	var s Summary
	byCategory := make(map[string]float64)
	var order []string

	for _, t := range list {
		v := money.Coerce(t.Value)
		if v < 0 {
			v = 0
		}
		switch t.Type {
		case transaction.TypeIncome:
			s.TotalIncome += v
		case transaction.TypeExpense:
			s.TotalExpense += v
			category := t.Category
			if category == "" {
				category = transaction.DefaultCategory
			}
			if _, ok := byCategory[category]; !ok {
				order = append(order, category)
			}
			byCategory[category] += v
		}
	}
	s.NetBalance = s.TotalIncome - s.TotalExpense

	denominator := s.TotalExpense
	if denominator <= 0 {
		denominator = 1
	}
	for _, name := range order {
		amount := byCategory[name]
		s.Categories = append(s.Categories, CategoryShare{
			Name:    name,
			Amount:  amount,
			Percent: math.Round(amount/denominator*1000) / 10,
		})
	}
	sort.SliceStable(s.Categories, func(i, j int) bool {
		return s.Categories[i].Amount > s.Categories[j].Amount
	})

	return s
}
