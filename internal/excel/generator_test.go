package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nursan/oiltrade-rates/internal/model"
)

func testDocument() model.OrderDocument {
	materialID := uuid.New()
	generated := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return model.OrderDocument{
		SessionID:      uuid.New(),
		Customer:       model.Customer{ID: uuid.New(), Name: "Atyrau Fuel Trade LLP", BIN: "123456789012"},
		ContractActive: true,
		GeneratedAt:    generated,
		Lines: []model.OrderLine{{
			LineItem: model.LineItem{
				MaterialID:   materialID,
				MaterialName: "Diesel EN 590",
				Unit:         "L",
				Quantity:     10,
				Rate:         95,
				Amount:       950,
			},
			Amount:     decimal.NewFromInt(950),
			Provenance: "contract rate 90.00 (standard 100.00, savings 10.00)",
		}},
		Overrides: []model.OverrideRecord{{
			MaterialID:   materialID,
			OriginalRate: 90,
			OverrideRate: 95,
			Reason:       "spot deal",
			ApprovedBy:   uuid.New(),
			ApprovedAt:   generated,
		}},
		Warnings: []model.Warning{{
			Type:    model.WarningRateOverrideApplied,
			Message: "rate override applied to Diesel EN 590: 90.00 -> 95.00 (spot deal)",
		}},
		Totals: model.OrderTotals{
			Net:     decimal.NewFromInt(950),
			VATRate: decimal.NewFromInt(12),
			VAT:     decimal.NewFromInt(114),
			Gross:   decimal.NewFromInt(1064),
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	content, err := NewGenerator().Generate(testDocument())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected non-empty workbook")
	}

	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer file.Close()

	customer, err := file.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if customer != "Atyrau Fuel Trade LLP" {
		t.Errorf("unexpected customer cell: %q", customer)
	}

	rate, err := file.GetCellValue("Lines", "D2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if rate != "95" {
		t.Errorf("unexpected rate cell: %q", rate)
	}
}
