package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'rate_kind') THEN
			CREATE TYPE rate_kind AS ENUM ('FIXED_RATE', 'DISCOUNT_PERCENTAGE', 'MINIMUM_PRICE_GUARANTEE', 'LEGACY_FIXED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'rate_status') THEN
			CREATE TYPE rate_status AS ENUM ('ACTIVE', 'PENDING', 'REJECTED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS materials (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		standard_price NUMERIC(18,4) NOT NULL,
		unit VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_materials_code ON materials (code);`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		bin VARCHAR(32),
		contact_full_name VARCHAR(255),
		address TEXT,
		phone VARCHAR(32),
		contract_end_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contract_rates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		customer_id UUID NOT NULL REFERENCES customers(id),
		material_id UUID NOT NULL REFERENCES materials(id),
		kind rate_kind NOT NULL DEFAULT 'FIXED_RATE',
		rate NUMERIC(18,4) NOT NULL DEFAULT 0,
		discount_percentage NUMERIC(5,2) NOT NULL DEFAULT 0,
		status rate_status NOT NULL DEFAULT 'ACTIVE',
		end_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'contract_rates' AND column_name = 'discount_percentage') THEN
			ALTER TABLE contract_rates ADD COLUMN discount_percentage NUMERIC(5,2) NOT NULL DEFAULT 0;
		END IF;
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'contract_rates' AND column_name = 'end_date') THEN
			ALTER TABLE contract_rates ADD COLUMN end_date DATE;
		END IF;
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'customers' AND column_name = 'contract_end_date') THEN
			ALTER TABLE customers ADD COLUMN contract_end_date DATE;
		END IF;
	END
	$$;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_rates_customer_material ON contract_rates (customer_id, material_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_rates_customer_id ON contract_rates (customer_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_rates_status ON contract_rates (status);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
