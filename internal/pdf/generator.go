package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nursan/oiltrade-rates/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the order confirmation: customer block, line table with
// pricing provenance, totals, and the override audit block.
func (g *Generator) Generate(doc model.OrderDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Sales Order Confirmation", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", doc.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.customerBlock(pdf, doc)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Order lines", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 9)

	headers := []string{"Material", "Unit", "Qty", "Rate", "Amount", "Pricing"}
	widths := []float64{40, 12, 18, 20, 25, 65}
	g.tableRow(pdf, headers, widths, true)
	for _, line := range doc.Lines {
		row := []string{
			line.MaterialName,
			line.Unit,
			formatFloat(line.Quantity),
			formatFloat(line.Rate),
			line.Amount.StringFixed(2),
			line.Provenance,
		}
		g.tableRow(pdf, row, widths, false)
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Net: %s    VAT (%s%%): %s    Gross: %s",
		doc.Totals.Net.StringFixed(2),
		doc.Totals.VATRate.String(),
		doc.Totals.VAT.StringFixed(2),
		doc.Totals.Gross.StringFixed(2)), "", 1, "R", false, 0, "")

	if len(doc.Overrides) > 0 {
		pdf.Ln(4)
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Approved rate overrides", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 9)
		for _, record := range doc.Overrides {
			pdf.CellFormat(0, 5, fmt.Sprintf("%s -> %s, reason: %s, approved %s",
				formatFloat(record.OriginalRate),
				formatFloat(record.OverrideRate),
				record.Reason,
				record.ApprovedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) customerBlock(pdf *gofpdf.Fpdf, doc model.OrderDocument) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Customer", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 5, doc.Customer.Name, "", 1, "L", false, 0, "")
	if doc.Customer.BIN != "" {
		pdf.CellFormat(0, 5, "BIN "+doc.Customer.BIN, "", 1, "L", false, 0, "")
	}
	if doc.Customer.Address != "" {
		pdf.CellFormat(0, 5, doc.Customer.Address, "", 1, "L", false, 0, "")
	}
	state := "no active contract"
	if doc.ContractActive {
		state = "active contract"
		if doc.Customer.ContractEndDate != nil {
			state += " until " + formatDate(*doc.Customer.ContractEndDate)
		}
	}
	pdf.CellFormat(0, 5, state, "", 1, "L", false, 0, "")
}

func (g *Generator) tableRow(pdf *gofpdf.Fpdf, cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(g.fontName, style, 9)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
