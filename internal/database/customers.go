// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trentfarmdata/farmdata/internal/metrics"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// CreateCustomer inserts a new unverified customer. Returns
// ErrDuplicateEmail if the email is already registered.
func (db *DB) CreateCustomer(ctx context.Context, c *models.Customer) error {
	start := time.Now()

	err := db.withReconnect(ctx, func() error {
		row := db.conn.QueryRowContext(ctx, `
			INSERT INTO customers (email, name, password_hash, verified, verify_code, code_expires_at)
			VALUES (?, ?, ?, FALSE, ?, ?)
			RETURNING id, created_at`,
			c.Email, c.Name, c.PasswordHash, c.VerifyCode, c.CodeExpiresAt)
		if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
			if isDuplicateKeyError(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("inserting customer: %w", err)
		}
		return nil
	})

	metrics.RecordDBQuery("insert", "customers", time.Since(start), err)
	return err
}

// GetCustomerByEmail fetches a customer by email. Returns ErrNotFound
// when no such customer exists.
func (db *DB) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	start := time.Now()

	const query = `
		SELECT id, email, name, password_hash, verified, verify_code, code_expires_at, created_at
		FROM customers
		WHERE email = ?`

	var c models.Customer
	err := db.withReconnect(ctx, func() error {
		stmt, err := db.getOrPrepare(ctx, query)
		if err != nil {
			return err
		}
		var (
			code    sql.NullString
			expires sql.NullTime
		)
		err = stmt.QueryRowContext(ctx, email).Scan(
			&c.ID, &c.Email, &c.Name, &c.PasswordHash,
			&c.Verified, &code, &expires, &c.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("querying customer: %w", err)
		}
		c.VerifyCode = code.String
		if expires.Valid {
			t := expires.Time
			c.CodeExpiresAt = &t
		}
		return nil
	})

	metrics.RecordDBQuery("select", "customers", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetVerifyCode replaces a customer's verification code and expiry.
func (db *DB) SetVerifyCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	start := time.Now()

	err := db.withReconnect(ctx, func() error {
		res, err := db.conn.ExecContext(ctx, `
			UPDATE customers
			SET verify_code = ?, code_expires_at = ?
			WHERE email = ?`,
			code, expiresAt, email)
		if err != nil {
			return fmt.Errorf("updating verify code: %w", err)
		}
		return requireRowAffected(res)
	})

	metrics.RecordDBQuery("update", "customers", time.Since(start), err)
	return err
}

// MarkVerified marks a customer verified and clears the code.
func (db *DB) MarkVerified(ctx context.Context, email string) error {
	start := time.Now()

	err := db.withReconnect(ctx, func() error {
		res, err := db.conn.ExecContext(ctx, `
			UPDATE customers
			SET verified = TRUE, verify_code = NULL, code_expires_at = NULL
			WHERE email = ?`, email)
		if err != nil {
			return fmt.Errorf("marking customer verified: %w", err)
		}
		return requireRowAffected(res)
	})

	metrics.RecordDBQuery("update", "customers", time.Since(start), err)
	return err
}

// ListCustomers returns all customers, newest first.
func (db *DB) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	start := time.Now()

	var out []models.Customer
	err := db.withReconnect(ctx, func() error {
		rows, err := db.conn.QueryContext(ctx, `
			SELECT id, email, name, verified, created_at
			FROM customers
			ORDER BY created_at DESC`)
		if err != nil {
			return fmt.Errorf("listing customers: %w", err)
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var c models.Customer
			if err := rows.Scan(&c.ID, &c.Email, &c.Name, &c.Verified, &c.CreatedAt); err != nil {
				return fmt.Errorf("scanning customer: %w", err)
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	metrics.RecordDBQuery("select", "customers", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireStaleCodes clears verification codes past their expiry for
// unverified customers. Returns the number of rows cleared.
func (db *DB) ExpireStaleCodes(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()

	var cleared int64
	err := db.withReconnect(ctx, func() error {
		res, err := db.conn.ExecContext(ctx, `
			UPDATE customers
			SET verify_code = NULL, code_expires_at = NULL
			WHERE verified = FALSE
			  AND code_expires_at IS NOT NULL
			  AND code_expires_at < ?`, now)
		if err != nil {
			return fmt.Errorf("expiring stale codes: %w", err)
		}
		cleared, err = res.RowsAffected()
		return err
	})

	metrics.RecordDBQuery("update", "customers", time.Since(start), err)
	return cleared, err
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKeyError matches DuckDB's unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint error")
}
