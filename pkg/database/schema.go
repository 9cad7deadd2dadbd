package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the tables backing the portal API
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	statements := []string{
		createAccountsTable,
		createWeeklyAvailabilityTable,
		createBlockDaysTable,
		createIndexes,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// SQL DDL statements for table creation
const (
	createAccountsTable = `
		CREATE TABLE IF NOT EXISTS accounts (
			id VARCHAR(64) PRIMARY KEY,
			role VARCHAR(20) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			phone_number VARCHAR(20),
			password_hash VARCHAR(100) NOT NULL,
			first_name VARCHAR(50) NOT NULL,
			last_name VARCHAR(50) NOT NULL,
			specialization VARCHAR(100),
			license_number VARCHAR(50),
			years_of_experience INTEGER,
			date_of_birth VARCHAR(10),
			profile JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createWeeklyAvailabilityTable = `
		CREATE TABLE IF NOT EXISTS weekly_availability (
			provider_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
			day VARCHAR(10) NOT NULL,
			from_time CHAR(5) NOT NULL,
			till_time CHAR(5) NOT NULL,
			is_available BOOLEAN DEFAULT TRUE,
			PRIMARY KEY (provider_id, day)
		);`

	createBlockDaysTable = `
		CREATE TABLE IF NOT EXISTS block_days (
			id VARCHAR(64) PRIMARY KEY,
			provider_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
			date DATE NOT NULL,
			from_time CHAR(5) NOT NULL,
			till_time CHAR(5) NOT NULL,
			reason TEXT
		);`

	createIndexes = `
		CREATE INDEX IF NOT EXISTS idx_accounts_phone ON accounts(phone_number);
		CREATE INDEX IF NOT EXISTS idx_block_days_provider_date ON block_days(provider_id, date);`
)
