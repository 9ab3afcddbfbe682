package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderTotals is the money summary of an order document. Computed in decimal
// so printed documents do not accumulate float error.
type OrderTotals struct {
	Net     decimal.Decimal
	VATRate decimal.Decimal
	VAT     decimal.Decimal
	Gross   decimal.Decimal
}

// OrderLine is a line item with the pricing provenance shown on exported
// documents.
type OrderLine struct {
	LineItem
	Amount     decimal.Decimal
	Provenance string
}

// OrderDocument is the renderable snapshot of an editing session used by the
// xlsx and pdf exports.
type OrderDocument struct {
	SessionID      uuid.UUID
	Customer       Customer
	ContractActive bool
	GeneratedAt    time.Time
	Lines          []OrderLine
	Overrides      []OverrideRecord
	Warnings       []Warning
	Totals         OrderTotals
}
