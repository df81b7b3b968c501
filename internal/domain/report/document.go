package report

import (
	"errors"
	"fmt"
	"time"

	"grana/internal/domain/money"
	"grana/internal/domain/transaction"
)

// ErrNoTransactions is returned when an export is requested for an empty
// filtered view. Callers surface it as a warning; no document is produced.
var ErrNoTransactions = errors.New("no transactions to export")

// DefaultTitle is the report heading.
const DefaultTitle = "Relatório Financeiro"

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// FilterLabels describes the active filter in the report header.
type FilterLabels struct {
	Month string
	Year  string
	Type  string
}

// LabelsFromFilter renders the filter state as header labels, with
// "Todos"/"Todas" for unset fields.
func LabelsFromFilter(f transaction.FilterState) FilterLabels {
	labels := FilterLabels{Month: "Todos", Year: "Todos", Type: "Todas"}
	if f.Month >= 1 && f.Month <= 12 {
		labels.Month = monthNames[f.Month-1]
	}
	if f.Year != 0 {
		labels.Year = fmt.Sprintf("%d", f.Year)
	}
	switch f.Type {
	case transaction.TypeIncome:
		labels.Type = "Receitas"
	case transaction.TypeExpense:
		labels.Type = "Despesas"
	}
	return labels
}

// Row is one tabular line of the report.
type Row struct {
	Date        string
	Description string
	Value       string // signed, formatted
	Category    string
}

// Document is the structured payload handed to an external renderer.
type Document struct {
	Title       string
	Filters     FilterLabels
	Rows        []Row
	Summary     Summary
	GeneratedAt time.Time

	// Formatted summary lines, part of the payload so renderers don't
	// re-implement the currency contract.
	TotalIncome  string
	TotalExpense string
	NetBalance   string
}

// FileName suggests a download name derived from the filter labels.
func (d *Document) FileName() string {
	return fmt.Sprintf("Relatorio_Financeiro_%s_%s.pdf", d.Filters.Month, d.Filters.Year)
}

// BuildDocument packages a filtered view and its summary for rendering.
// An empty view fails fast with ErrNoTransactions rather than producing an
// empty document.
func BuildDocument(list []transaction.Transaction, labels FilterLabels) (*Document, error) {
	if len(list) == 0 {
		return nil, ErrNoTransactions
	}

	rows := make([]Row, 0, len(list))
	for _, t := range list {
		sign := "+"
		if t.Type == transaction.TypeExpense {
			sign = "-"
		}
		rows = append(rows, Row{
			Date:        t.Date.Format("02/01/2006"),
			Description: t.Description,
			Value:       fmt.Sprintf("%s %s", sign, money.FormatBRL(t.Value)),
			Category:    t.Category,
		})
	}

	summary := Summarize(list)
	return &Document{
		Title:        DefaultTitle,
		Filters:      labels,
		Rows:         rows,
		Summary:      summary,
		GeneratedAt:  time.Now(),
		TotalIncome:  money.FormatBRL(summary.TotalIncome),
		TotalExpense: money.FormatBRL(summary.TotalExpense),
		NetBalance:   money.FormatBRL(summary.NetBalance),
	}, nil
}
