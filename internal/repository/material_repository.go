package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nursan/oiltrade-rates/internal/model"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var material model.Material
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, name, standard_price, unit
		FROM materials
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&material).Error; err != nil {
		return nil, err
	}
	if material.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &material, nil
}

func (r *MaterialRepository) ListMaterials(ctx context.Context) ([]model.Material, error) {
	var materials []model.Material
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, name, standard_price, unit
		FROM materials
		ORDER BY name ASC
	`).Scan(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}
