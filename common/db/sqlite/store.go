// Package sqlite provides a SQLite-backed request store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/tradepost/go-mediation/common/db/sqlite/migrations"
	"github.com/tradepost/go-mediation/models"
)

var _ models.RequestRepository = &Store{}

// Store persists mediation requests in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if len(strings.TrimSpace(path)) == 0 {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err = applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) GetRequest(ctx context.Context, id string) (*models.MediationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, requester_id, status, claimant_id, created_at, updated_at, version, payload_json
FROM mediation_requests
WHERE id = ?
`, strings.TrimSpace(id))

	var (
		req         models.MediationRequest
		createdAt   int64
		updatedAt   int64
		payloadJSON string
	)
	if err := row.Scan(
		&req.Id,
		&req.RequesterId,
		&req.Status,
		&req.ClaimantId,
		&createdAt,
		&updatedAt,
		&req.Version,
		&payloadJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRequestNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	if err := json.Unmarshal([]byte(payloadJSON), &req.Payload); err != nil {
		return nil, fmt.Errorf("decode request payload: %w", err)
	}
	req.CreatedAt = fromMillis(createdAt)
	req.UpdatedAt = fromMillis(updatedAt)
	return &req, nil
}

func (s *Store) CreateRequest(ctx context.Context, req *models.MediationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := req.ValidForCreate(); err != nil {
		return err
	}
	payloadJSON, err := json.Marshal(req.Payload)
	if err != nil {
		return fmt.Errorf("encode request payload: %w", err)
	}
	if _, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO mediation_requests (id, requester_id, status, claimant_id, created_at, updated_at, version, payload_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		req.Id,
		req.RequesterId,
		string(req.Status),
		req.ClaimantId,
		toMillis(req.CreatedAt),
		toMillis(req.UpdatedAt),
		req.Version,
		string(payloadJSON),
	); err != nil {
		if isUniqueViolation(err) {
			return models.ErrRequestExists
		}
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (s *Store) UpdateRequest(ctx context.Context, expected *models.MediationRequest, next *models.MediationRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	if err := next.Valid(); err != nil {
		return false, err
	}
	payloadJSON, err := json.Marshal(next.Payload)
	if err != nil {
		return false, fmt.Errorf("encode request payload: %w", err)
	}
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE mediation_requests
SET status = ?, claimant_id = ?, updated_at = ?, version = ?, payload_json = ?
WHERE id = ? AND status = ? AND version = ?
`,
		string(next.Status),
		next.ClaimantId,
		toMillis(next.UpdatedAt),
		next.Version,
		string(payloadJSON),
		expected.Id,
		string(expected.Status),
		expected.Version,
	)
	if err != nil {
		return false, fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update request rows affected: %w", err)
	}
	return affected == 1, nil
}

func (s *Store) RequestCount(ctx context.Context, status models.RequestStatus) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM mediation_requests WHERE status = ?", string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
