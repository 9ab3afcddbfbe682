package model

import (
	"time"

	"github.com/google/uuid"
)

// LineItem is one row of an in-progress sales order. Amount is derived and
// must equal Quantity * Rate after every mutation of either field.
type LineItem struct {
	MaterialID   uuid.UUID
	MaterialName string
	Unit         string
	Quantity     float64
	Rate         float64
	Amount       float64
}

// OverrideRecord is the audit trail of one approved rate override. Its
// presence for a material unlocks direct rate editing on that material for
// the remainder of the session.
type OverrideRecord struct {
	MaterialID   uuid.UUID
	OriginalRate float64
	OverrideRate float64
	Reason       string
	ApprovedBy   uuid.UUID
	ApprovedAt   time.Time
}

// PendingOverride is an override request awaiting manager approval. At most
// one exists per session at a time.
type PendingOverride struct {
	MaterialID    uuid.UUID
	ContractRate  float64
	RequestedRate float64
}

type WarningType string

const (
	WarningContractRateApplied     WarningType = "contract_rate_applied"
	WarningContractRateAboveMarket WarningType = "contract_rate_above_market"
	WarningRateOverrideApplied     WarningType = "rate_override_applied"
	WarningContractExpiring        WarningType = "contract_expiring"
)

// Warning is a transient user-facing notice. Warnings keyed to a material
// replace any earlier warning for the same material.
type Warning struct {
	Type       WarningType
	MaterialID *uuid.UUID
	Message    string
}
