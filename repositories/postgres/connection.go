package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/provider-manager/backend/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'active',
			kill_switch BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS policies (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			max_requests_per_minute INT NOT NULL DEFAULT 60,
			max_tokens_per_day BIGINT NOT NULL DEFAULT 200000,
			max_cost_per_day_usd DECIMAL(10,4) NOT NULL DEFAULT 0,
			redaction_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			metadata JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (tenant_id)
		);

		CREATE TABLE IF NOT EXISTS providers (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			type VARCHAR(64) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			encrypted_credentials TEXT NOT NULL,
			config JSONB,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS pricing_models (
			id UUID PRIMARY KEY,
			provider_type VARCHAR(64) NOT NULL,
			model VARCHAR(128) NOT NULL,
			input_cost_per_1k DECIMAL(10,6) NOT NULL,
			output_cost_per_1k DECIMAL(10,6) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (provider_type, model)
		);

		CREATE TABLE IF NOT EXISTS tenant_pricings (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			pricing_id UUID NOT NULL REFERENCES pricing_models(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (tenant_id, pricing_id)
		);

		CREATE TABLE IF NOT EXISTS usage_events (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			provider_id UUID NOT NULL,
			model VARCHAR(64) NOT NULL,
			service_code VARCHAR(64),
			tokens_in INT NOT NULL,
			tokens_out INT NOT NULL,
			cost_usd DECIMAL(10,6) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_usage_events_tenant_created
			ON usage_events (tenant_id, created_at);

		CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			action VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			metadata JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_audit_events_tenant_created
			ON audit_events (tenant_id, created_at);

		CREATE TABLE IF NOT EXISTS webhooks (
			id UUID PRIMARY KEY,
			tenant_id UUID,
			url VARCHAR(255) NOT NULL,
			events JSONB NOT NULL,
			encrypted_secret TEXT,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS system_settings (
			key VARCHAR(64) PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized")
	return nil
}
