package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

// Ensure TaskStore implements the interface.
var _ driven.TaskStore = (*TaskStore)(nil)

// TaskStore implements driven.TaskStore using PostgreSQL.
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a new PostgreSQL-backed task store.
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// UpsertTasks writes a batch of raw TickTick records inside one transaction,
// keyed by the provider's string id. Same idempotence rules as activities:
// last write wins on every mutable column, last_synced_at is restamped.
func (s *TaskStore) UpsertTasks(ctx context.Context, records []domain.RawRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO ticktick_tasks (
			id, project_id, title, content, "desc", is_all_day,
			start_date, due_date, time_zone, repeat_flag, reminders,
			priority, status, completed_time, sort_order, items, tags,
			modified_time, created_time, deleted, etag, raw, last_synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, now())
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			"desc" = EXCLUDED."desc",
			is_all_day = EXCLUDED.is_all_day,
			start_date = EXCLUDED.start_date,
			due_date = EXCLUDED.due_date,
			time_zone = EXCLUDED.time_zone,
			repeat_flag = EXCLUDED.repeat_flag,
			reminders = EXCLUDED.reminders,
			priority = EXCLUDED.priority,
			status = EXCLUDED.status,
			completed_time = EXCLUDED.completed_time,
			sort_order = EXCLUDED.sort_order,
			items = EXCLUDED.items,
			tags = EXCLUDED.tags,
			modified_time = EXCLUDED.modified_time,
			created_time = EXCLUDED.created_time,
			deleted = EXCLUDED.deleted,
			etag = EXCLUDED.etag,
			raw = EXCLUDED.raw,
			last_synced_at = now()
	`

	count := 0
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare task upsert: %w", err)
		}
		defer stmt.Close()

		for _, raw := range records {
			t, err := domain.DecodeTask(raw)
			if err != nil {
				return err
			}

			if _, err := stmt.ExecContext(ctx,
				t.ID,
				t.ProjectID,
				t.Title,
				NullString(t.Content),
				NullString(t.Desc),
				t.IsAllDay,
				NullTime(t.StartDate),
				NullTime(t.DueDate),
				NullString(t.TimeZone),
				NullString(t.RepeatFlag),
				jsonColumn(t.Reminders),
				NullInt64(t.Priority),
				NullString(t.Status),
				NullTime(t.CompletedTime),
				NullInt64(t.SortOrder),
				jsonColumn(t.Items),
				pq.Array(t.Tags),
				NullTime(t.ModifiedTime),
				NullTime(t.CreatedTime),
				t.Deleted,
				NullString(t.Etag),
				[]byte(t.Raw),
			); err != nil {
				return fmt.Errorf("upsert task %s: %w", t.ID, err)
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
