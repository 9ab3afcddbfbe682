package http

import (
	"time"

	"github.com/nursan/oiltrade-rates/internal/model"
	"github.com/nursan/oiltrade-rates/internal/service"
)

type materialDTO struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	StandardPrice float64 `json:"standard_price"`
	Unit          string  `json:"unit"`
}

func materialResponses(materials []model.Material) []materialDTO {
	dtos := make([]materialDTO, 0, len(materials))
	for _, material := range materials {
		dtos = append(dtos, materialDTO{
			ID:            material.ID.String(),
			Code:          material.Code,
			Name:          material.Name,
			StandardPrice: material.StandardPrice,
			Unit:          material.Unit,
		})
	}
	return dtos
}

type lineItemDTO struct {
	MaterialID   string  `json:"material_id"`
	MaterialName string  `json:"material_name"`
	Unit         string  `json:"unit"`
	Quantity     float64 `json:"quantity"`
	Rate         float64 `json:"rate"`
	Amount       float64 `json:"amount"`
}

type overrideDTO struct {
	MaterialID   string    `json:"material_id"`
	OriginalRate float64   `json:"original_rate"`
	OverrideRate float64   `json:"override_rate"`
	Reason       string    `json:"reason"`
	ApprovedBy   string    `json:"approved_by"`
	ApprovedAt   time.Time `json:"approved_at"`
}

type pendingOverrideDTO struct {
	MaterialID    string  `json:"material_id"`
	ContractRate  float64 `json:"contract_rate"`
	RequestedRate float64 `json:"requested_rate"`
}

type warningDTO struct {
	Type       string  `json:"type"`
	MaterialID *string `json:"material_id,omitempty"`
	Message    string  `json:"message"`
}

type totalsDTO struct {
	Net     string `json:"net"`
	VATRate string `json:"vat_rate"`
	VAT     string `json:"vat"`
	Gross   string `json:"gross"`
}

type sessionDTO struct {
	SessionID      string              `json:"session_id"`
	CustomerID     string              `json:"customer_id"`
	CustomerName   string              `json:"customer_name"`
	ContractActive bool                `json:"contract_active"`
	Items          []lineItemDTO       `json:"items"`
	Overrides      []overrideDTO       `json:"overrides"`
	Warnings       []warningDTO        `json:"warnings"`
	Pending        *pendingOverrideDTO `json:"pending_override,omitempty"`
	Totals         totalsDTO           `json:"totals"`
}

func snapshotResponse(snapshot *service.SessionSnapshot) sessionDTO {
	dto := sessionDTO{
		SessionID:      snapshot.SessionID.String(),
		CustomerID:     snapshot.Customer.ID.String(),
		CustomerName:   snapshot.Customer.Name,
		ContractActive: snapshot.ContractActive,
		Items:          make([]lineItemDTO, 0, len(snapshot.Items)),
		Overrides:      make([]overrideDTO, 0, len(snapshot.Overrides)),
		Warnings:       warningResponses(snapshot.Warnings),
		Totals: totalsDTO{
			Net:     snapshot.Totals.Net.StringFixed(2),
			VATRate: snapshot.Totals.VATRate.String(),
			VAT:     snapshot.Totals.VAT.StringFixed(2),
			Gross:   snapshot.Totals.Gross.StringFixed(2),
		},
	}
	for _, item := range snapshot.Items {
		dto.Items = append(dto.Items, lineItemDTO{
			MaterialID:   item.MaterialID.String(),
			MaterialName: item.MaterialName,
			Unit:         item.Unit,
			Quantity:     item.Quantity,
			Rate:         item.Rate,
			Amount:       item.Amount,
		})
	}
	for _, record := range snapshot.Overrides {
		dto.Overrides = append(dto.Overrides, overrideDTO{
			MaterialID:   record.MaterialID.String(),
			OriginalRate: record.OriginalRate,
			OverrideRate: record.OverrideRate,
			Reason:       record.Reason,
			ApprovedBy:   record.ApprovedBy.String(),
			ApprovedAt:   record.ApprovedAt,
		})
	}
	if snapshot.Pending != nil {
		dto.Pending = &pendingOverrideDTO{
			MaterialID:    snapshot.Pending.MaterialID.String(),
			ContractRate:  snapshot.Pending.ContractRate,
			RequestedRate: snapshot.Pending.RequestedRate,
		}
	}
	return dto
}

func warningResponses(warnings []model.Warning) []warningDTO {
	dtos := make([]warningDTO, 0, len(warnings))
	for _, warning := range warnings {
		dto := warningDTO{
			Type:    string(warning.Type),
			Message: warning.Message,
		}
		if warning.MaterialID != nil {
			id := warning.MaterialID.String()
			dto.MaterialID = &id
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

type rateDetailsDTO struct {
	EffectiveRate      float64 `json:"effective_rate"`
	Savings            float64 `json:"savings"`
	IsContractRate     bool    `json:"is_contract_rate"`
	IsExpired          bool    `json:"is_expired"`
	Kind               string  `json:"kind,omitempty"`
	ContractRate       float64 `json:"contract_rate,omitempty"`
	DiscountPercentage float64 `json:"discount_percentage,omitempty"`
	ExpiryDate         *string `json:"expiry_date,omitempty"`
	Explanation        string  `json:"explanation"`
}

func rateDetailsResponse(details *service.RateExplanation) rateDetailsDTO {
	dto := rateDetailsDTO{
		EffectiveRate:      details.Result.EffectiveRate,
		Savings:            details.Result.Savings,
		IsContractRate:     details.Result.IsContractRate,
		IsExpired:          details.Result.IsExpired,
		Kind:               string(details.Result.Kind),
		ContractRate:       details.Result.ContractRate,
		DiscountPercentage: details.Result.DiscountPercentage,
		Explanation:        details.Explanation,
	}
	if details.Result.ExpiryDate != nil {
		formatted := details.Result.ExpiryDate.Format("2006-01-02")
		dto.ExpiryDate = &formatted
	}
	return dto
}
