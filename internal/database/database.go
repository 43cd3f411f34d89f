// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package database provides DuckDB storage for environmental readings
// and customer accounts.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/trentfarmdata/farmdata/internal/config"
	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/metrics"
)

// DB wraps the DuckDB connection with prepared statement caching and
// reconnect support.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	stmtMu    sync.RWMutex
	stmtCache map[string]*sql.Stmt

	maxReconnectTries int
	reconnectDelay    time.Duration
}

// New opens the database, configures the connection pool, and creates
// the schema if needed.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	dbDir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dbDir, err)
	}

	threads := cfg.Threads
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	preserveOrder := "false"
	if cfg.PreserveInsertionOrder {
		preserveOrder = "true"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s",
		cfg.Path, threads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{
		conn:              conn,
		cfg:               cfg,
		stmtCache:         make(map[string]*sql.Stmt),
		maxReconnectTries: cfg.MaxReconnectTries,
		reconnectDelay:    cfg.ReconnectDelay,
	}
	if db.maxReconnectTries < 1 {
		db.maxReconnectTries = 3
	}
	if db.reconnectDelay <= 0 {
		db.reconnectDelay = time.Second
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Str("max_memory", cfg.MaxMemory).
		Msg("Database opened")

	return db, nil
}

// configureConnectionPool tunes the pool for DuckDB's embedded model.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize creates tables and indexes.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return db.createTables(ctx)
}

// getOrPrepare returns a cached prepared statement, preparing and
// caching it on first use.
func (db *DB) getOrPrepare(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtMu.Lock()
	defer db.stmtMu.Unlock()
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

// flushStmtCache closes and removes all cached statements.
func (db *DB) flushStmtCache() {
	db.stmtMu.Lock()
	defer db.stmtMu.Unlock()
	for query, stmt := range db.stmtCache {
		if err := stmt.Close(); err != nil {
			logging.Warn().Err(err).Msg("Closing cached statement")
		}
		delete(db.stmtCache, query)
	}
}

// Ping verifies the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Stats returns connection pool statistics and updates the open
// connections gauge.
func (db *DB) Stats() sql.DBStats {
	stats := db.conn.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	return stats
}

// Close flushes the statement cache and closes the connection.
func (db *DB) Close() error {
	db.flushStmtCache()
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	logging.Info().Msg("Database closed")
	return nil
}
