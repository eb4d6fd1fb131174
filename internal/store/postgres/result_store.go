// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/licensewatch/license-scanner/internal/scanner"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ResultStoreConfig controls the Postgres connection pool used for scan rows.
type ResultStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// ResultStore writes scan result rows into Postgres. Expected schema:
//
//	CREATE TABLE scan_results (
//	    job_id TEXT NOT NULL,
//	    website TEXT NOT NULL,
//	    invalid_url BOOLEAN NOT NULL,
//	    blocked_by_robots BOOLEAN NOT NULL,
//	    license_link TEXT,
//	    license_type TEXT,
//	    relevant_links JSONB NOT NULL,
//	    license_mentions JSONB NOT NULL,
//	    content TEXT,
//	    error_text TEXT,
//	    created_at TIMESTAMPTZ DEFAULT NOW()
//	);
type ResultStore struct {
	pool  execCloser
	table string
}

// NewResultStore creates a Postgres-backed ResultStore using the provided config.
func NewResultStore(ctx context.Context, cfg ResultStoreConfig) (*ResultStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "scan_results"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ResultStore{
		pool:  pool,
		table: table,
	}, nil
}

// NewResultStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewResultStoreWithPool(pool execCloser, table string) (*ResultStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "scan_results"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ResultStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ResultStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveResults inserts one row per scan result for the given job.
func (s *ResultStore) SaveResults(ctx context.Context, jobID string, results []scanner.ScanResult) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("result store is not configured")
	}
	if jobID == "" {
		return fmt.Errorf("job id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
    job_id,
    website,
    invalid_url,
    blocked_by_robots,
    license_link,
    license_type,
    relevant_links,
    license_mentions,
    content,
    error_text
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table)

	for _, result := range results {
		linksJSON, err := json.Marshal(result.RelevantLinks)
		if err != nil {
			return fmt.Errorf("marshal relevant links: %w", err)
		}
		mentionsJSON, err := json.Marshal(result.LicenseMentions)
		if err != nil {
			return fmt.Errorf("marshal license mentions: %w", err)
		}
		if _, err := s.pool.Exec(ctx, query,
			jobID,
			result.Website,
			result.InvalidURL,
			result.BlockedByRobotsTxt,
			result.LicenseLink,
			result.LicenseType,
			linksJSON,
			mentionsJSON,
			result.Content,
			result.Error,
		); err != nil {
			return fmt.Errorf("insert scan result for %s: %w", result.Website, err)
		}
	}
	return nil
}
