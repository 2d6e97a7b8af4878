// internal/storage/postgres.go
// PostgreSQL implementation of the Store interface. Records are stored as
// JSONB documents so both backends round-trip the exact same record shape.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

type postgres struct {
	db *pgxpool.Pool // Connection pool to PostgreSQL database
}

// NewPostgres creates a new PostgreSQL storage implementation.
// It establishes a connection pool to the database and initializes the schema.
func NewPostgres(dsn string) (Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 20
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &postgres{db: pool}, nil
}

// initSchema creates the martyrs table and its indexes if they don't exist.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
		-- Martyr records stored as whole JSONB documents
		CREATE TABLE IF NOT EXISTS martyrs (
		    id TEXT PRIMARY KEY,                     -- Record identifier
		    doc JSONB NOT NULL,                      -- Full record document
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		-- Indexes to keep listing and tag lookups cheap
		CREATE INDEX IF NOT EXISTS idx_martyrs_created_at ON martyrs(created_at);
		CREATE INDEX IF NOT EXISTS idx_martyrs_doc_tags ON martyrs USING GIN ((doc -> 'metadata' -> 'tags'));
	`

	_, err := db.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool
func (p *postgres) Close() {
	p.db.Close()
}

func (p *postgres) CreateRecord(ctx context.Context, record model.MartyrRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `INSERT INTO martyrs (id, doc, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	_, err = p.db.Exec(ctx, query, record.ID, doc, record.Metadata.CreatedAt, record.Metadata.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

func (p *postgres) GetRecord(ctx context.Context, id string) (*model.MartyrRecord, error) {
	query := `SELECT doc FROM martyrs WHERE id = $1`

	var doc []byte
	err := p.db.QueryRow(ctx, query, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record model.MartyrRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

func (p *postgres) ReplaceRecord(ctx context.Context, record model.MartyrRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `UPDATE martyrs SET doc = $1, updated_at = $2 WHERE id = $3`
	result, err := p.db.Exec(ctx, query, doc, record.Metadata.UpdatedAt, record.ID)
	if err != nil {
		return fmt.Errorf("failed to replace record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgres) DeleteRecord(ctx context.Context, id string) error {
	result, err := p.db.Exec(ctx, `DELETE FROM martyrs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgres) ListRecords(ctx context.Context) ([]model.MartyrRecord, error) {
	rows, err := p.db.Query(ctx, `SELECT doc FROM martyrs ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []model.MartyrRecord{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var record model.MartyrRecord
		if err := json.Unmarshal(doc, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// IncrementCounter applies the delta inside a transaction with the row locked,
// so concurrent increments cannot lose updates.
func (p *postgres) IncrementCounter(ctx context.Context, id, counter string, delta int64) (*model.MartyrRecord, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx, `SELECT doc FROM martyrs WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record model.MartyrRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	if !bumpCounter(&record.Statistics, counter, delta) {
		return nil, fmt.Errorf("unknown counter: %s", counter)
	}
	record.Metadata.UpdatedAt = time.Now().UTC()

	updated, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE martyrs SET doc = $1, updated_at = $2 WHERE id = $3`, updated, record.Metadata.UpdatedAt, id); err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit increment: %w", err)
	}

	return &record, nil
}

func (p *postgres) Metadata(ctx context.Context) (model.StoreMetadata, error) {
	meta := model.StoreMetadata{
		Version: storeVersion,
		Schema: map[string]any{
			"name":     "martyr-archive",
			"revision": storeVersion,
			"backend":  "postgres",
		},
	}

	var lastUpdated *time.Time
	err := p.db.QueryRow(ctx, `SELECT COUNT(*), MAX(updated_at) FROM martyrs`).Scan(&meta.TotalCount, &lastUpdated)
	if err != nil {
		return model.StoreMetadata{}, fmt.Errorf("failed to read store metadata: %w", err)
	}
	if lastUpdated != nil {
		meta.LastUpdated = *lastUpdated
	}
	return meta, nil
}
