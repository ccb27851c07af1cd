package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/go-mediation/models"
)

var _ models.RequestRepository = &RequestDatabase{}

const pgUniqueViolation = "23505"

const createRequestTable = `
CREATE TABLE IF NOT EXISTS mediation_request (
    id TEXT PRIMARY KEY,
    requester_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('pending', 'claimed', 'completed', 'cancelled')),
    claimant_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    version BIGINT NOT NULL DEFAULT 0,
    payload JSONB NOT NULL DEFAULT '{}'::jsonb,
    CHECK ((status IN ('claimed', 'completed')) = (claimant_id <> ''))
);
CREATE INDEX IF NOT EXISTS mediation_request_status_idx ON mediation_request (status, updated_at);
`

type RequestDatabase struct {
	pool   *pgxpool.Pool
	logger models.Logger
}

type RequestDbOpts struct {
	Url             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	// Schema, if set, must already exist. The request table is created in it.
	Schema string
}

func NewRequestDb(ctx context.Context, logger models.Logger, opts RequestDbOpts) (*RequestDatabase, error) {
	cfg, err := pgxpool.ParseConfig(opts.Url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if len(opts.Schema) > 0 {
		cfg.ConnConfig.RuntimeParams["search_path"] = opts.Schema
	}
	cfg.HealthCheckPeriod = 30 * time.Second

	dbCtx, dbCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer dbCancel()

	pool, err := pgxpool.NewWithConfig(dbCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if _, err = pool.Exec(dbCtx, createRequestTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create request table: %w", err)
	}
	return &RequestDatabase{pool, logger}, nil
}

func (rdb *RequestDatabase) Close() {
	rdb.pool.Close()
}

func (rdb *RequestDatabase) GetRequest(ctx context.Context, id string) (*models.MediationRequest, error) {
	dbCtx, dbCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer dbCancel()

	var (
		req     models.MediationRequest
		status  string
		payload string
	)
	err := rdb.pool.QueryRow(
		dbCtx,
		"SELECT id, requester_id, status, claimant_id, created_at, updated_at, version, payload::text FROM mediation_request WHERE id = $1",
		id,
	).Scan(
		&req.Id,
		&req.RequesterId,
		&status,
		&req.ClaimantId,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.Version,
		&payload,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRequestNotFound
		}
		rdb.logger.Errorf("get: error querying db: %v", err)
		return nil, err
	}
	req.Status = models.RequestStatus(status)
	if err = json.Unmarshal([]byte(payload), &req.Payload); err != nil {
		return nil, fmt.Errorf("decode payload for %s: %w", id, err)
	}
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	return &req, nil
}

func (rdb *RequestDatabase) CreateRequest(ctx context.Context, req *models.MediationRequest) error {
	if err := req.ValidForCreate(); err != nil {
		return err
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return err
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer dbCancel()

	_, err = rdb.pool.Exec(
		dbCtx,
		"INSERT INTO mediation_request (id, requester_id, status, claimant_id, created_at, updated_at, version, payload) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)",
		req.Id,
		req.RequesterId,
		string(req.Status),
		req.ClaimantId,
		req.CreatedAt.UTC(),
		req.UpdatedAt.UTC(),
		req.Version,
		string(payload),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrRequestExists
		}
		rdb.logger.Errorf("create: error inserting into db: %v", err)
		return err
	}
	return nil
}

// UpdateRequest is a single conditional statement, so the status check and the write cannot interleave with another
// transition on the same row.
func (rdb *RequestDatabase) UpdateRequest(ctx context.Context, expected *models.MediationRequest, next *models.MediationRequest) (bool, error) {
	if err := next.Valid(); err != nil {
		return false, err
	}
	payload, err := json.Marshal(next.Payload)
	if err != nil {
		return false, err
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer dbCancel()

	tag, err := rdb.pool.Exec(
		dbCtx,
		"UPDATE mediation_request SET status = $1, claimant_id = $2, updated_at = $3, version = $4, payload = $5::jsonb WHERE id = $6 AND status = $7 AND version = $8",
		string(next.Status),
		next.ClaimantId,
		next.UpdatedAt.UTC(),
		next.Version,
		string(payload),
		expected.Id,
		string(expected.Status),
		expected.Version,
	)
	if err != nil {
		rdb.logger.Errorf("update: error updating db: %v", err)
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Not an error, another transition got there first
		rdb.logger.Debugf("update: conditional update skipped for %s: expected status=%s, version=%d", expected.Id, expected.Status, expected.Version)
		return false, nil
	}
	return true, nil
}

func (rdb *RequestDatabase) RequestCount(ctx context.Context, status models.RequestStatus) (int, error) {
	dbCtx, dbCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer dbCancel()

	var count int
	if err := rdb.pool.QueryRow(dbCtx, "SELECT COUNT(*) FROM mediation_request WHERE status = $1", string(status)).Scan(&count); err != nil {
		rdb.logger.Errorf("count: error querying db: %v", err)
		return 0, err
	}
	return count, nil
}
