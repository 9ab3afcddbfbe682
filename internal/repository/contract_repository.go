package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nursan/oiltrade-rates/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, bin, contact_full_name, address, phone, contract_end_date
		FROM customers
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&customer).Error; err != nil {
		return nil, err
	}
	if customer.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &customer, nil
}

// RatesByCustomer loads the customer's full contract directory. The session
// keeps this snapshot for its lifetime; mid-session contract changes are
// picked up only by a customer re-select.
func (r *ContractRepository) RatesByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.ContractRate, error) {
	var entries []model.ContractRate
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, customer_id, material_id, kind, rate, discount_percentage, status, end_date
		FROM contract_rates
		WHERE customer_id = ?
		ORDER BY created_at ASC
	`, customerID).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
