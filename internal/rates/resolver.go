package rates

import (
	"fmt"
	"time"

	"github.com/nursan/oiltrade-rates/internal/model"
)

// Epsilon is the tolerance for every rate comparison in this package. Rates
// travel through JSON and float arithmetic, so exact equality is never used.
const Epsilon = 1e-3

// RatesEqual reports whether two unit prices are the same within Epsilon.
func RatesEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= Epsilon
}

// Result is the outcome of resolving the unit price for one material under
// one (possibly absent) contract entry. It carries enough detail for the
// caller to explain the price without recomputing it.
type Result struct {
	EffectiveRate      float64
	Savings            float64 // standard price minus effective; negative when contract is above market
	IsContractRate     bool
	IsExpired          bool // a contract entry exists but is no longer active
	Kind               model.RateKind
	ContractRate       float64
	DiscountPercentage float64
	ExpiryDate         *time.Time
}

// Resolve computes the effective unit price for material under entry as of
// today. A nil material yields a neutral zero result rather than an error;
// the caller must refuse to submit lines with unresolved materials. A nil
// entry or an inactive one falls back to the material's standard price, with
// IsExpired distinguishing "was under contract, no longer is" from "never
// was".
func Resolve(material *model.Material, entry *model.ContractRate, today time.Time) Result {
	if material == nil {
		return Result{}
	}

	standard := material.StandardPrice
	if entry == nil {
		return Result{EffectiveRate: standard}
	}
	if !entry.ActiveOn(dateOnly(today)) {
		return Result{
			EffectiveRate: standard,
			IsExpired:     true,
			Kind:          entry.Kind,
			ExpiryDate:    entry.EndDate,
		}
	}

	result := Result{
		IsContractRate: true,
		Kind:           entry.Kind,
		ContractRate:   entry.Rate,
		ExpiryDate:     entry.EndDate,
	}

	switch entry.Kind {
	case model.RateKindFixed, model.RateKindLegacyFixed:
		result.EffectiveRate = entry.Rate
	case model.RateKindDiscountPercentage:
		result.DiscountPercentage = entry.DiscountPercentage
		discounted := standard - standard*entry.DiscountPercentage/100
		if discounted < 0 {
			discounted = 0
		}
		result.EffectiveRate = discounted
	case model.RateKindMinimumPriceGuarantee:
		// Customer gets the cheaper of market and contract price.
		if standard < entry.Rate {
			result.EffectiveRate = standard
		} else {
			result.EffectiveRate = entry.Rate
		}
	default:
		return Result{EffectiveRate: standard}
	}

	result.Savings = standard - result.EffectiveRate
	return result
}

// Details renders a one-line explanation of a resolver result for display
// next to the rate field.
func Details(material *model.Material, result Result) string {
	if material == nil {
		return "material not found, rate unresolved"
	}
	if result.IsExpired {
		return fmt.Sprintf("contract rate expired, standard price %.2f applied, renewal pending", material.StandardPrice)
	}
	if !result.IsContractRate {
		return fmt.Sprintf("standard price %.2f", material.StandardPrice)
	}

	suffix := ""
	if result.ExpiryDate != nil {
		suffix = ", valid until " + result.ExpiryDate.Format("2006-01-02")
	}

	switch result.Kind {
	case model.RateKindDiscountPercentage:
		return fmt.Sprintf("contract discount %.1f%% off standard %.2f = %.2f%s",
			result.DiscountPercentage, material.StandardPrice, result.EffectiveRate, suffix)
	case model.RateKindMinimumPriceGuarantee:
		if RatesEqual(result.EffectiveRate, material.StandardPrice) && material.StandardPrice < result.ContractRate {
			return fmt.Sprintf("price guarantee %.2f, standard %.2f is lower and applies%s",
				result.ContractRate, material.StandardPrice, suffix)
		}
		return fmt.Sprintf("guaranteed price %.2f (standard %.2f)%s",
			result.EffectiveRate, material.StandardPrice, suffix)
	default:
		if result.Savings < 0 {
			return fmt.Sprintf("contract rate %.2f is above standard %.2f%s",
				result.EffectiveRate, material.StandardPrice, suffix)
		}
		return fmt.Sprintf("contract rate %.2f (standard %.2f, savings %.2f)%s",
			result.EffectiveRate, material.StandardPrice, result.Savings, suffix)
	}
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
