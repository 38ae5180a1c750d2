package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ms-pos/internal/models"
	"time"
)

type DBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetEvents(ctx context.Context, includeArchived bool) ([]models.Event, error)
	InsertEvent(ctx context.Context, event *models.Event) error
	InsertEventDays(ctx context.Context, days []models.EventDay) error
	OpenDay(ctx context.Context, id string, now time.Time) (bool, error)
	StampDayClosed(ctx context.Context, id string, now time.Time) (bool, error)
	SetStatus(ctx context.Context, id string, status string) error
	SetArchived(ctx context.Context, id string, archived bool) error
}

// SummaryCloser persists the closed-day snapshot; implemented by the
// summary aggregator.
type SummaryCloser interface {
	CloseDay(ctx context.Context, eventID string, dayNumber int, openTime, closeTime time.Time) (*models.DaySummary, error)
}

type KafkaPublisher interface {
	PublishDayClosed(s models.DaySummary) error
}

// Service drives the event state machine: draft → active → completed, with
// the per-day open/close cycle layered on top and archiving orthogonal to
// everything.
type Service struct {
	DB        DBLayer
	Summaries SummaryCloser
	Kafka     KafkaPublisher
	now       func() time.Time
}

func NewService(db DBLayer, summaries SummaryCloser, kafka KafkaPublisher) *Service {
	return &Service{DB: db, Summaries: summaries, Kafka: kafka, now: time.Now}
}

// RegisterEvent ingests an event definition from the authoring side. The
// engine starts every event as a closed draft on day zero.
func (s *Service) RegisterEvent(ctx context.Context, event models.Event, days []models.EventDay) (*models.Event, error) {
	event.Status = models.EventStatusDraft
	event.Archived = false
	event.CurrentDay = 0
	event.DayOpenTime = nil
	event.DayCloseTime = nil
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}

	if err := s.DB.InsertEvent(ctx, &event); err != nil {
		return nil, err
	}
	for i := range days {
		days[i].EventID = event.ID
	}
	if err := s.DB.InsertEventDays(ctx, days); err != nil {
		return nil, err
	}
	return &event, nil
}

// StartDay opens the next selling day. Restocking for day > 1 must happen
// before this call; opening the day touches no inventory.
func (s *Service) StartDay(ctx context.Context, eventID string) (*models.Event, error) {
	opened, err := s.DB.OpenDay(ctx, eventID, s.now())
	if err != nil {
		return nil, err
	}
	if !opened {
		// The conditional update matched nothing; re-read to say why.
		return nil, s.explainOpenFailure(ctx, eventID)
	}
	return s.DB.GetEvent(ctx, eventID)
}

func (s *Service) explainOpenFailure(ctx context.Context, eventID string) error {
	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return err
	}
	switch {
	case event.Archived:
		return ErrEventArchived
	case event.Status == models.EventStatusCompleted:
		return ErrEventCompleted
	case event.DayState().Open:
		return ErrDayAlreadyOpen
	default:
		return fmt.Errorf("day %d of event %s could not be opened", event.CurrentDay+1, eventID)
	}
}

// EndDay snapshots the open day into a DaySummary and stamps it closed.
// After it returns the event is ready for the next StartDay or for
// CompleteEvent.
func (s *Service) EndDay(ctx context.Context, eventID string) (*models.DaySummary, error) {
	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return nil, err
	}
	return s.closeOpenDay(ctx, event)
}

func (s *Service) closeOpenDay(ctx context.Context, event *models.Event) (*models.DaySummary, error) {
	state := event.DayState()
	if !state.Open {
		// A repeated close of an already-closed day is a success: the
		// idempotent snapshot upsert hands back the existing summary.
		if event.CurrentDay > 0 && event.DayOpenTime != nil && event.DayCloseTime != nil {
			return s.Summaries.CloseDay(ctx, event.ID, event.CurrentDay, *event.DayOpenTime, *event.DayCloseTime)
		}
		return nil, ErrNoOpenDay
	}

	closeTime := s.now()

	// Snapshot first: the summary upsert is idempotent, so a crash between
	// these two steps is healed by retrying EndDay.
	daySummary, err := s.Summaries.CloseDay(ctx, event.ID, event.CurrentDay, state.Since, closeTime)
	if err != nil {
		return nil, err
	}

	closed, err := s.DB.StampDayClosed(ctx, event.ID, closeTime)
	if err != nil {
		return nil, err
	}
	if !closed {
		// A concurrent EndDay already stamped it; the summary above is the
		// surviving snapshot either way.
		return daySummary, nil
	}

	if s.Kafka != nil {
		_ = s.Kafka.PublishDayClosed(*daySummary)
	}
	return daySummary, nil
}

// CompleteEvent finishes the event. An open day is implicitly closed first,
// exactly as EndDay would.
func (s *Service) CompleteEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return nil, err
	}
	if event.Archived {
		return nil, ErrEventArchived
	}

	if event.DayState().Open {
		if _, err := s.closeOpenDay(ctx, event); err != nil {
			return nil, err
		}
	}

	if err := s.DB.SetStatus(ctx, eventID, models.EventStatusCompleted); err != nil {
		return nil, err
	}
	return s.DB.GetEvent(ctx, eventID)
}

// ArchiveEvent sets the orthogonal soft-delete flag; allowed from any state.
func (s *Service) ArchiveEvent(ctx context.Context, eventID string) error {
	return s.DB.SetArchived(ctx, eventID, true)
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return nil, err
	}
	return event, nil
}

func (s *Service) ListEvents(ctx context.Context, includeArchived bool) ([]models.Event, error) {
	return s.DB.GetEvents(ctx, includeArchived)
}
