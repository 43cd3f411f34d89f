// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables and indexes. DuckDB executes
// each statement separately.
var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS customers_id_seq START 1`,

	`CREATE SEQUENCE IF NOT EXISTS environmental_data_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS environmental_data (
		record_id BIGINT PRIMARY KEY DEFAULT nextval('environmental_data_id_seq'),
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		reading_time VARCHAR NOT NULL,
		doy INTEGER NOT NULL,
		observed_at TIMESTAMP NOT NULL,
		air_temperature_degc DOUBLE,
		relative_humidity_pct DOUBLE,
		shortwave_radiation_wm2 DOUBLE,
		rainfall_mm DOUBLE,
		total_precipitation_mm DOUBLE,
		snow_depth_cm DOUBLE,
		wind_speed_ms DOUBLE,
		atmospheric_pressure_kpa DOUBLE,
		soil_temperature_5cm_degc DOUBLE,
		soil_temperature_10cm_degc DOUBLE,
		soil_temperature_20cm_degc DOUBLE,
		soil_temperature_25cm_degc DOUBLE,
		soil_temperature_50cm_degc DOUBLE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_environmental_observed_at
		ON environmental_data(observed_at)`,

	`CREATE INDEX IF NOT EXISTS idx_environmental_year_month
		ON environmental_data(year, month)`,

	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT PRIMARY KEY DEFAULT nextval('customers_id_seq'),
		email VARCHAR NOT NULL UNIQUE,
		name VARCHAR NOT NULL,
		password_hash VARCHAR NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		verify_code VARCHAR,
		code_expires_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	`CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email)`,
}

// createTables applies the schema statements in order.
func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement: %w", err)
		}
	}
	return nil
}
