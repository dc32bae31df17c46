package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/models"
	"github.com/portfolio-advisor/internal/types"
)

const analyticsTable = "advisory_metrics"

// AnalyticsRepository appends advisory figures to ClickHouse
type AnalyticsRepository struct {
	db      *ClickHouseDB
	metrics metrics.MetricsService
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *ClickHouseDB, ms metrics.MetricsService) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, metrics: ms}
}

// RecordSnapshot appends one row to advisory_metrics
func (r *AnalyticsRepository) RecordSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	start := time.Now()
	err := r.insert(ctx, snapshot)

	if r.metrics != nil {
		r.metrics.ObserveDBQueryDuration("insert", analyticsTable, time.Since(start).Seconds())
		if err != nil {
			r.metrics.IncDBQueryError("insert", analyticsTable, "clickhouse")
		}
	}
	if err != nil {
		return apperrors.NewDatabaseError("record advisory metrics", err)
	}
	return nil
}

func (r *AnalyticsRepository) insert(ctx context.Context, s *models.PortfolioSnapshot) error {
	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO advisory_metrics (
			address, network, num_tokens, num_nfts, num_tx,
			total_in_sui, total_out_sui, total_gas_sui, avg_gas_sui, gas_efficiency,
			sui_balance, staked_sui, gain_loss_sui, taxable_events, recorded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	if err := batch.Append(
		s.Address,
		string(s.Network),
		int64(s.NumTokens),
		int64(s.NumNFTs),
		int64(s.NumTx),
		s.TotalInSUI,
		s.TotalOutSUI,
		s.TotalGasSUI,
		s.AvgGasSUI,
		int64(s.GasEfficiency),
		s.SuiBalance,
		s.StakedSui,
		s.GainLossSUI,
		int64(s.TaxableEvents),
		s.RecordedAt,
	); err != nil {
		_ = batch.Abort()
		return fmt.Errorf("failed to append row: %w", err)
	}

	return batch.Send()
}

// LatestSnapshots returns the most recent rows for address on network, newest first
func (r *AnalyticsRepository) LatestSnapshots(ctx context.Context, address string, network types.NetworkID, limit int) ([]*models.PortfolioSnapshot, error) {
	start := time.Now()

	query := `
		SELECT address, network, num_tokens, num_nfts, num_tx,
			total_in_sui, total_out_sui, total_gas_sui, avg_gas_sui, gas_efficiency,
			sui_balance, staked_sui, gain_loss_sui, taxable_events, recorded_at
		FROM advisory_metrics
		WHERE address = ? AND network = ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, address, string(network), ClampHistoryLimit(limit))
	if err != nil {
		return nil, apperrors.NewDatabaseError("query advisory metrics", err)
	}
	defer rows.Close()

	var out []*models.PortfolioSnapshot
	for rows.Next() {
		var (
			s                                   models.PortfolioSnapshot
			net                                 string
			tokens, nfts, txs, efficiency, taxE int64
		)
		if err := rows.Scan(
			&s.Address, &net, &tokens, &nfts, &txs,
			&s.TotalInSUI, &s.TotalOutSUI, &s.TotalGasSUI, &s.AvgGasSUI, &efficiency,
			&s.SuiBalance, &s.StakedSui, &s.GainLossSUI, &taxE, &s.RecordedAt,
		); err != nil {
			return nil, apperrors.NewDatabaseError("scan advisory metrics", err)
		}
		s.Network = types.NetworkID(net)
		s.NumTokens, s.NumNFTs, s.NumTx = int(tokens), int(nfts), int(txs)
		s.GasEfficiency, s.TaxableEvents = int(efficiency), int(taxE)
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("iterate advisory metrics", err)
	}

	if r.metrics != nil {
		r.metrics.ObserveDBQueryDuration("select", analyticsTable, time.Since(start).Seconds())
	}
	return out, nil
}
