// Package pdf renders a report document into a downloadable PDF.
package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"grana/internal/domain/report"
)

var (
	headerFill = [3]int{63, 81, 181}
	stripeFill = [3]int{245, 245, 245}
	positive   = [3]int{16, 185, 129}
	negative   = [3]int{220, 38, 38}
)

// column widths in mm, A4 portrait
var columns = []struct {
	title string
	width float64
}{
	{"Data", 28},
	{"Descrição", 82},
	{"Valor", 40},
	{"Categoria", 40},
}

type Renderer struct{}

// Render writes doc as a PDF to w. Any failure from the underlying library
// is returned as-is wrapped; callers surface it, never swallow it.
func (Renderer) Render(doc *report.Document, w io.Writer) error {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetAutoPageBreak(true, 20)
	f.AliasNbPages("")
	tr := f.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252

	f.SetFooterFunc(func() {
		f.SetY(-15)
		f.SetFont("Helvetica", "", 8)
		f.SetTextColor(120, 120, 120)
		f.CellFormat(0, 10, fmt.Sprintf("Página %d de {nb}", f.PageNo()), "", 0, "C", false, 0, "")
	})

	f.AddPage()

	f.SetFont("Helvetica", "B", 18)
	f.SetTextColor(33, 33, 33)
	f.Cell(0, 10, tr(doc.Title))
	f.Ln(10)

	f.SetFont("Helvetica", "", 10)
	f.SetTextColor(90, 90, 90)
	filters := fmt.Sprintf("Filtros: Mês=%s, Ano=%s, Tipo=%s",
		doc.Filters.Month, doc.Filters.Year, doc.Filters.Type)
	f.Cell(0, 6, tr(filters))
	f.Ln(12)

	renderTable(f, tr, doc.Rows)
	f.Ln(10)
	renderSummary(f, tr, doc)

	if err := f.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func renderTable(f *fpdf.Fpdf, tr func(string) string, rows []report.Row) {
	f.SetFont("Helvetica", "B", 10)
	f.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	f.SetTextColor(255, 255, 255)
	for _, c := range columns {
		f.CellFormat(c.width, 8, tr(c.title), "", 0, "L", true, 0, "")
	}
	f.Ln(-1)

	f.SetFont("Helvetica", "", 10)
	f.SetTextColor(33, 33, 33)
	for i, row := range rows {
		striped := i%2 == 1
		f.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
		f.CellFormat(columns[0].width, 7, row.Date, "", 0, "L", striped, 0, "")
		f.CellFormat(columns[1].width, 7, tr(clip(row.Description, 52)), "", 0, "L", striped, 0, "")
		f.CellFormat(columns[2].width, 7, tr(row.Value), "", 0, "R", striped, 0, "")
		f.CellFormat(columns[3].width, 7, tr(row.Category), "", 0, "L", striped, 0, "")
		f.Ln(-1)
	}
}

func renderSummary(f *fpdf.Fpdf, tr func(string) string, doc *report.Document) {
	f.SetFont("Helvetica", "B", 14)
	f.SetTextColor(33, 33, 33)
	f.Cell(0, 8, tr("Resumo do Período"))
	f.Ln(10)

	f.SetFont("Helvetica", "", 12)
	f.CellFormat(95, 7, tr("Receitas Totais: "+doc.TotalIncome), "", 0, "L", false, 0, "")
	f.CellFormat(95, 7, tr("Despesas Totais: "+doc.TotalExpense), "", 1, "L", false, 0, "")
	f.Ln(2)

	balance := positive
	if doc.Summary.NetBalance < 0 {
		balance = negative
	}
	f.SetFont("Helvetica", "B", 16)
	f.SetTextColor(balance[0], balance[1], balance[2])
	f.Cell(0, 9, tr("Saldo Líquido: "+doc.NetBalance))
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
