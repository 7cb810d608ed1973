package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

// Ensure MetricsStore implements the interface.
var _ driven.MetricsStore = (*MetricsStore)(nil)

// MetricsStore implements driven.MetricsStore using PostgreSQL.
type MetricsStore struct {
	db *DB
}

// NewMetricsStore creates a new PostgreSQL-backed metrics store.
func NewMetricsStore(db *DB) *MetricsStore {
	return &MetricsStore{db: db}
}

// Upsert merges one day's metrics with a single static statement. Absent
// fields are bound as NULL and COALESCEd against the stored row, so a
// partial update never erases previously recorded values. The merged row
// is returned.
func (s *MetricsStore) Upsert(ctx context.Context, m *domain.DailyMetric) (*domain.DailyMetric, error) {
	query := `
		INSERT INTO daily_metrics (day, calorie_in, calorie_out, protein_g, weight_kg, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (day) DO UPDATE SET
			calorie_in = COALESCE(EXCLUDED.calorie_in, daily_metrics.calorie_in),
			calorie_out = COALESCE(EXCLUDED.calorie_out, daily_metrics.calorie_out),
			protein_g = COALESCE(EXCLUDED.protein_g, daily_metrics.protein_g),
			weight_kg = COALESCE(EXCLUDED.weight_kg, daily_metrics.weight_kg),
			notes = COALESCE(EXCLUDED.notes, daily_metrics.notes),
			updated_at = now()
		RETURNING day, calorie_in, calorie_out, protein_g, weight_kg, notes, created_at, updated_at
	`

	row := s.db.QueryRowContext(ctx, query,
		m.Day,
		NullInt64(m.CalorieIn),
		NullInt64(m.CalorieOut),
		NullInt64(m.ProteinG),
		NullFloat64(m.WeightKg),
		NullString(m.Notes),
	)

	merged, err := scanMetric(row)
	if err != nil {
		return nil, fmt.Errorf("upsert daily metric: %w", err)
	}

	return merged, nil
}

// List returns metrics within the optional [start, end] day range, newest
// first, capped at limit rows.
func (s *MetricsStore) List(ctx context.Context, start, end *time.Time, limit int) ([]*domain.DailyMetric, error) {
	if limit <= 0 {
		limit = 90
	}

	query := `
		SELECT day, calorie_in, calorie_out, protein_g, weight_kg, notes, created_at, updated_at
		FROM daily_metrics
		WHERE ($1::date IS NULL OR day >= $1)
		  AND ($2::date IS NULL OR day <= $2)
		ORDER BY day DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, NullTime(start), NullTime(end), limit)
	if err != nil {
		return nil, fmt.Errorf("list daily metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*domain.DailyMetric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily metric: %w", err)
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily metrics: %w", err)
	}

	return metrics, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetric(row rowScanner) (*domain.DailyMetric, error) {
	var m domain.DailyMetric
	var calorieIn, calorieOut, proteinG sql.NullInt64
	var weightKg sql.NullFloat64
	var notes sql.NullString

	if err := row.Scan(
		&m.Day,
		&calorieIn,
		&calorieOut,
		&proteinG,
		&weightKg,
		&notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.CalorieIn = Int64Ptr(calorieIn)
	m.CalorieOut = Int64Ptr(calorieOut)
	m.ProteinG = Int64Ptr(proteinG)
	m.WeightKg = Float64Ptr(weightKg)
	m.Notes = StringPtr(notes)

	return &m, nil
}
