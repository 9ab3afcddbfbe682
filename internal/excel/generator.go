package excel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nursan/oiltrade-rates/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the order as a two-sheet workbook: a summary with the
// totals and warning log, and a line detail sheet with rate provenance.
func (g *Generator) Generate(doc model.OrderDocument) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, doc); err != nil {
		return nil, err
	}

	linesSheet := "Lines"
	file.NewSheet(linesSheet)
	if err := g.writeLines(file, linesSheet, doc); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, doc model.OrderDocument) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	contractState := "no active contract"
	if doc.ContractActive {
		contractState = "active contract"
	}

	set("A1", "Customer")
	set("B1", doc.Customer.Name)
	set("A2", "BIN")
	set("B2", doc.Customer.BIN)
	set("A3", "Contract")
	set("B3", contractState)
	if doc.Customer.ContractEndDate != nil {
		set("A4", "Contract end date")
		set("B4", formatDate(*doc.Customer.ContractEndDate))
	}
	set("A5", "Generated")
	set("B5", doc.GeneratedAt.Format("2006-01-02 15:04"))

	set("A7", "Net total")
	set("B7", doc.Totals.Net.StringFixed(2))
	set("A8", fmt.Sprintf("VAT %s%%", doc.Totals.VATRate.String()))
	set("B8", doc.Totals.VAT.StringFixed(2))
	set("A9", "Gross total")
	set("B9", doc.Totals.Gross.StringFixed(2))

	row := 11
	if len(doc.Overrides) > 0 {
		set(fmt.Sprintf("A%d", row), "Rate overrides")
		row++
		set(fmt.Sprintf("A%d", row), "Material")
		set(fmt.Sprintf("B%d", row), "Contract rate")
		set(fmt.Sprintf("C%d", row), "Override rate")
		set(fmt.Sprintf("D%d", row), "Reason")
		set(fmt.Sprintf("E%d", row), "Approved at")
		row++
		for _, record := range doc.Overrides {
			set(fmt.Sprintf("A%d", row), materialName(doc, record.MaterialID))
			set(fmt.Sprintf("B%d", row), record.OriginalRate)
			set(fmt.Sprintf("C%d", row), record.OverrideRate)
			set(fmt.Sprintf("D%d", row), record.Reason)
			set(fmt.Sprintf("E%d", row), record.ApprovedAt.Format("2006-01-02 15:04"))
			row++
		}
		row++
	}

	if len(doc.Warnings) > 0 {
		set(fmt.Sprintf("A%d", row), "Warnings")
		row++
		for _, warning := range doc.Warnings {
			set(fmt.Sprintf("A%d", row), string(warning.Type))
			set(fmt.Sprintf("B%d", row), warning.Message)
			row++
		}
	}
	return nil
}

func (g *Generator) writeLines(file *excelize.File, sheet string, doc model.OrderDocument) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Material", "Unit", "Quantity", "Rate", "Amount", "Pricing"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, line := range doc.Lines {
		row := i + 2
		set(fmt.Sprintf("A%d", row), line.MaterialName)
		set(fmt.Sprintf("B%d", row), line.Unit)
		set(fmt.Sprintf("C%d", row), line.Quantity)
		set(fmt.Sprintf("D%d", row), line.Rate)
		set(fmt.Sprintf("E%d", row), line.Amount.StringFixed(2))
		set(fmt.Sprintf("F%d", row), line.Provenance)
	}
	return nil
}

func materialName(doc model.OrderDocument, materialID uuid.UUID) string {
	for _, line := range doc.Lines {
		if line.MaterialID == materialID {
			return line.MaterialName
		}
	}
	return materialID.String()
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
