package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/models"
)

// History list bounds
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

const advisoryTable = "advisory_history"

// AdvisoryRepository persists advisory replies in Postgres
type AdvisoryRepository struct {
	db      *PostgresDB
	metrics metrics.MetricsService
}

// NewAdvisoryRepository creates a new advisory repository
func NewAdvisoryRepository(db *PostgresDB, ms metrics.MetricsService) *AdvisoryRepository {
	return &AdvisoryRepository{db: db, metrics: ms}
}

// Save inserts one advisory record
func (r *AdvisoryRepository) Save(ctx context.Context, record *models.AdvisoryRecord) error {
	start := time.Now()

	query := `
		INSERT INTO advisory_history (id, address, network, intent, user_message, response, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		record.ID,
		record.Address,
		string(record.Network),
		record.Intent,
		record.UserMessage,
		record.Response,
		record.CreatedAt,
	)
	r.observe("insert", start, err)
	if err != nil {
		return apperrors.NewDatabaseError("save advisory", err)
	}

	return nil
}

// ListByAddress returns the latest records for address, newest first
func (r *AdvisoryRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*models.AdvisoryRecord, error) {
	start := time.Now()

	query := `
		SELECT id::text AS id, address, network, intent, user_message, response, created_at
		FROM advisory_history
		WHERE address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, address, ClampHistoryLimit(limit))
	if err != nil {
		r.observe("select", start, err)
		return nil, apperrors.NewDatabaseError("list advisories", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.AdvisoryRecord])
	r.observe("select", start, err)
	if err != nil {
		return nil, apperrors.NewDatabaseError("scan advisories", err)
	}

	return records, nil
}

// ClampHistoryLimit bounds a requested history size to [1, MaxHistoryLimit].
// Non-positive values select DefaultHistoryLimit.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

func (r *AdvisoryRepository) observe(queryType string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveDBQueryDuration(queryType, advisoryTable, time.Since(start).Seconds())
	if err != nil {
		r.metrics.IncDBQueryError(queryType, advisoryTable, "postgres")
	}
}
