package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

// Ensure ActivityStore implements the interface.
var _ driven.ActivityStore = (*ActivityStore)(nil)

// ActivityStore implements driven.ActivityStore using PostgreSQL.
type ActivityStore struct {
	db *DB
}

// NewActivityStore creates a new PostgreSQL-backed activity store.
func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// UpsertActivities writes a batch of raw Strava records inside one
// transaction. Each row is keyed by the provider's numeric id; a re-run of
// the same batch updates rows in place instead of duplicating them. A record
// without an id fails the whole batch, which rolls back.
func (s *ActivityStore) UpsertActivities(ctx context.Context, records []domain.RawRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO strava_activities (
			id, type, name, distance, moving_time, elapsed_time,
			total_elevation_gain, start_date, start_latlng, kilojoules,
			average_heartrate, max_heartrate, elev_high, elev_low,
			average_speed, max_speed, raw, last_synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			name = EXCLUDED.name,
			distance = EXCLUDED.distance,
			moving_time = EXCLUDED.moving_time,
			elapsed_time = EXCLUDED.elapsed_time,
			total_elevation_gain = EXCLUDED.total_elevation_gain,
			start_date = EXCLUDED.start_date,
			start_latlng = EXCLUDED.start_latlng,
			kilojoules = EXCLUDED.kilojoules,
			average_heartrate = EXCLUDED.average_heartrate,
			max_heartrate = EXCLUDED.max_heartrate,
			elev_high = EXCLUDED.elev_high,
			elev_low = EXCLUDED.elev_low,
			average_speed = EXCLUDED.average_speed,
			max_speed = EXCLUDED.max_speed,
			raw = EXCLUDED.raw,
			last_synced_at = now()
	`

	count := 0
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare activity upsert: %w", err)
		}
		defer stmt.Close()

		for _, raw := range records {
			a, err := domain.DecodeActivity(raw)
			if err != nil {
				return err
			}

			if _, err := stmt.ExecContext(ctx,
				a.ID,
				a.Type,
				a.Name,
				NullFloat64(a.Distance),
				NullInt64(a.MovingTime),
				NullInt64(a.ElapsedTime),
				NullFloat64(a.TotalElevationGain),
				NullTime(a.StartDate),
				jsonColumn(a.StartLatLng),
				NullFloat64(a.Kilojoules),
				NullFloat64(a.AverageHeartrate),
				NullFloat64(a.MaxHeartrate),
				NullFloat64(a.ElevHigh),
				NullFloat64(a.ElevLow),
				NullFloat64(a.AverageSpeed),
				NullFloat64(a.MaxSpeed),
				[]byte(a.Raw),
			); err != nil {
				return fmt.Errorf("upsert activity %d: %w", a.ID, err)
			}
			count++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// jsonColumn passes a raw JSON fragment as a nullable jsonb parameter.
func jsonColumn(raw []byte) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return []byte(raw)
}
