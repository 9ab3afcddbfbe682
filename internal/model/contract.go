package model

import (
	"time"

	"github.com/google/uuid"
)

type RateKind string

const (
	RateKindFixed                 RateKind = "FIXED_RATE"
	RateKindDiscountPercentage    RateKind = "DISCOUNT_PERCENTAGE"
	RateKindMinimumPriceGuarantee RateKind = "MINIMUM_PRICE_GUARANTEE"
	// RateKindLegacyFixed is the bare-numeric rate from pre-migration
	// contracts: a fixed price with no expiry and no status tracking.
	RateKindLegacyFixed RateKind = "LEGACY_FIXED"
)

type RateStatus string

const (
	RateStatusActive   RateStatus = "ACTIVE"
	RateStatusPending  RateStatus = "PENDING"
	RateStatusRejected RateStatus = "REJECTED"
)

// ContractRate is the negotiated pricing term for one (customer, material) pair.
type ContractRate struct {
	ID                 uuid.UUID
	CustomerID         uuid.UUID
	MaterialID         uuid.UUID
	Kind               RateKind
	Rate               float64 // absolute price; unused for DISCOUNT_PERCENTAGE
	DiscountPercentage float64 // 0-100; only for DISCOUNT_PERCENTAGE
	Status             RateStatus
	EndDate            *time.Time // nil means legacy, never expires
}

// ActiveOn reports whether the rate applies on the given day. A rate with no
// end date never expires regardless of status; otherwise it must not be past
// its end date and must carry ACTIVE status.
func (r ContractRate) ActiveOn(day time.Time) bool {
	if r.Kind == RateKindLegacyFixed {
		return true
	}
	if r.EndDate == nil {
		return true
	}
	return !r.EndDate.Before(day) && r.Status == RateStatusActive
}

type Customer struct {
	ID              uuid.UUID
	Name            string
	BIN             string
	ContactFullName string
	Address         string
	Phone           string
	ContractEndDate *time.Time
}
