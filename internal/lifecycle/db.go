package lifecycle

import (
	"context"
	"ms-pos/internal/models"
	"time"

	"github.com/uptrace/bun"
)

// DB owns the single-row event transitions. The open/close stamps are
// applied as conditional updates so two racing lifecycle calls cannot both
// succeed; the loser re-reads and reports a precondition violation.
type DB struct {
	bun bun.IDB
}

func NewDB(idb bun.IDB) *DB {
	return &DB{bun: idb}
}

func (db *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := db.bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (db *DB) GetEvents(ctx context.Context, includeArchived bool) ([]models.Event, error) {
	var events []models.Event
	q := db.bun.NewSelect().
		Model(&events).
		Order("created_at DESC")
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	err := q.Scan(ctx)
	return events, err
}

func (db *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	_, err := db.bun.NewInsert().Model(event).Exec(ctx)
	return err
}

func (db *DB) InsertEventDays(ctx context.Context, days []models.EventDay) error {
	if len(days) == 0 {
		return nil
	}
	_, err := db.bun.NewInsert().Model(&days).Exec(ctx)
	return err
}

// OpenDay activates the event and starts the next day, but only if no day
// is currently open and the event can still sell.
func (db *DB) OpenDay(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := db.bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", models.EventStatusActive).
		Set("current_day = current_day + 1").
		Set("day_open_time = ?", now).
		Set("day_close_time = NULL").
		Where("id = ?", id).
		Where("archived = ?", false).
		Where("status IN (?)", bun.In([]string{models.EventStatusDraft, models.EventStatusActive})).
		Where("(day_open_time IS NULL OR day_close_time IS NOT NULL)").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// StampDayClosed records the close time, but only while the day is open.
func (db *DB) StampDayClosed(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := db.bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("day_close_time = ?", now).
		Where("id = ?", id).
		Where("day_open_time IS NOT NULL").
		Where("day_close_time IS NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

func (db *DB) SetStatus(ctx context.Context, id string, status string) error {
	_, err := db.bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (db *DB) SetArchived(ctx context.Context, id string, archived bool) error {
	_, err := db.bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("archived = ?", archived).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
