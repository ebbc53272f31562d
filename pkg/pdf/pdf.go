// Package pdf renders simple business documents (work orders, invoices).
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
)

// Party is a named block of address lines.
type Party struct {
	Label string
	Name  string
	Lines []string
}

// Table is a header row followed by data rows. Widths are in millimetres;
// a zero width shares the remaining space.
type Table struct {
	Headers []string
	Widths  []float64
	Align   []string
	Rows    [][]string
}

// Total is a label/amount pair printed under the table.
type Total struct {
	Label  string
	Value  string
	Strong bool
}

// Field is a label/value pair printed in the body.
type Field struct {
	Label string
	Value string
}

// Document is everything the renderer needs; callers do the formatting.
type Document struct {
	Title   string
	Numero  string
	Date    string
	Company Party
	Client  Party
	Fields  []Field
	Table   Table
	Totals  []Total
	Notes   string
	Footer  string
}

const (
	margin     = 15.0
	lineHeight = 6.0
	fontFamily = "Helvetica"
)

// Render lays out doc on A4 pages and returns the PDF bytes.
func Render(doc Document) ([]byte, error) {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetMargins(margin, margin, margin)
	p.SetAutoPageBreak(true, 20)
	tr := p.UnicodeTranslatorFromDescriptor("")

	footer := doc.Footer
	p.SetFooterFunc(func() {
		p.SetY(-15)
		p.SetFont(fontFamily, "I", 8)
		p.SetTextColor(120, 120, 120)
		text := fmt.Sprintf("Page %d", p.PageNo())
		if footer != "" {
			text = footer + " - " + text
		}
		p.CellFormat(0, 10, tr(text), "", 0, "C", false, 0, "")
	})
	p.AddPage()

	pageW, _ := p.GetPageSize()
	contentW := pageW - 2*margin

	// Header: company on the left, title block on the right.
	top := p.GetY()
	writeParty(p, tr, doc.Company, margin, contentW/2)
	leftBottom := p.GetY()
	p.SetXY(margin+contentW/2, top)
	p.SetFont(fontFamily, "B", 18)
	p.CellFormat(contentW/2, 10, tr(doc.Title), "", 2, "R", false, 0, "")
	p.SetFont(fontFamily, "", 10)
	if doc.Numero != "" {
		p.CellFormat(contentW/2, lineHeight, tr("N° "+doc.Numero), "", 2, "R", false, 0, "")
	}
	if doc.Date != "" {
		p.CellFormat(contentW/2, lineHeight, tr(doc.Date), "", 2, "R", false, 0, "")
	}
	p.SetY(max(leftBottom, p.GetY()) + 6)

	if doc.Client.Name != "" {
		writeParty(p, tr, doc.Client, margin+contentW/2, contentW/2)
		p.Ln(4)
	}

	for _, f := range doc.Fields {
		p.SetFont(fontFamily, "B", 10)
		p.CellFormat(45, lineHeight, tr(f.Label), "", 0, "L", false, 0, "")
		p.SetFont(fontFamily, "", 10)
		p.MultiCell(contentW-45, lineHeight, tr(f.Value), "", "L", false)
	}
	if len(doc.Fields) > 0 {
		p.Ln(4)
	}

	if len(doc.Table.Headers) > 0 {
		writeTable(p, tr, doc.Table, contentW)
		p.Ln(2)
	}

	for _, t := range doc.Totals {
		style := ""
		if t.Strong {
			style = "B"
		}
		p.SetFont(fontFamily, style, 10)
		p.SetX(margin + contentW - 90)
		p.CellFormat(55, lineHeight, tr(t.Label), "", 0, "R", false, 0, "")
		p.CellFormat(35, lineHeight, tr(t.Value), "", 1, "R", false, 0, "")
	}

	if strings.TrimSpace(doc.Notes) != "" {
		p.Ln(6)
		p.SetFont(fontFamily, "I", 9)
		p.MultiCell(contentW, 5, tr(doc.Notes), "", "L", false)
	}

	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeParty(p *gofpdf.Fpdf, tr func(string) string, party Party, x, w float64) {
	p.SetX(x)
	if party.Label != "" {
		p.SetFont(fontFamily, "", 8)
		p.SetTextColor(110, 110, 110)
		p.CellFormat(w, 5, tr(party.Label), "", 2, "L", false, 0, "")
		p.SetTextColor(0, 0, 0)
	}
	p.SetFont(fontFamily, "B", 11)
	p.CellFormat(w, lineHeight, tr(party.Name), "", 2, "L", false, 0, "")
	p.SetFont(fontFamily, "", 10)
	for _, l := range party.Lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		p.CellFormat(w, 5, tr(l), "", 2, "L", false, 0, "")
	}
	p.SetX(margin)
}

func writeTable(p *gofpdf.Fpdf, tr func(string) string, t Table, contentW float64) {
	widths := columnWidths(t, contentW)
	align := func(i int) string {
		if i < len(t.Align) && t.Align[i] != "" {
			return t.Align[i]
		}
		return "L"
	}

	p.SetFont(fontFamily, "B", 9)
	p.SetFillColor(230, 230, 230)
	for i, h := range t.Headers {
		p.CellFormat(widths[i], 7, tr(h), "1", 0, align(i), true, 0, "")
	}
	p.Ln(-1)

	p.SetFont(fontFamily, "", 9)
	for _, row := range t.Rows {
		for i := range t.Headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			p.CellFormat(widths[i], 6, tr(truncate(p, cell, widths[i]-2)), "1", 0, align(i), false, 0, "")
		}
		p.Ln(-1)
	}
}

func columnWidths(t Table, contentW float64) []float64 {
	widths := make([]float64, len(t.Headers))
	used, flexible := 0.0, 0
	for i := range widths {
		if i < len(t.Widths) && t.Widths[i] > 0 {
			widths[i] = t.Widths[i]
			used += t.Widths[i]
		} else {
			flexible++
		}
	}
	if flexible > 0 {
		share := max(contentW-used, 0) / float64(flexible)
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

func truncate(p *gofpdf.Fpdf, s string, w float64) string {
	if p.GetStringWidth(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && p.GetStringWidth(string(r)+"...") > w {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
