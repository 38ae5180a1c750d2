package summary

import (
	"context"
	"ms-pos/internal/models"
	"time"
)

// DBLayer is the aggregator's storage contract.
type DBLayer interface {
	InsertSummary(ctx context.Context, s *models.DaySummary) (bool, error)
	GetSummary(ctx context.Context, eventID string, dayNumber int) (*models.DaySummary, error)
	GetSummariesByEvent(ctx context.Context, eventID string) ([]models.DaySummary, error)
	AggregateSales(ctx context.Context, eventID string, from, to time.Time) (DayTotals, error)
}

// Aggregator snapshots a closed day into an immutable DaySummary so event
// totals never need a full ledger re-scan for past days.
type Aggregator struct {
	DB DBLayer
}

func NewAggregator(db DBLayer) *Aggregator {
	return &Aggregator{DB: db}
}

// CloseDay computes the day's totals over [openTime, closeTime) and inserts
// the snapshot. Closing the same day again returns the existing summary
// unchanged: a retried close request is an idempotent success, never a
// duplicate row.
func (a *Aggregator) CloseDay(ctx context.Context, eventID string, dayNumber int, openTime, closeTime time.Time) (*models.DaySummary, error) {
	totals, err := a.DB.AggregateSales(ctx, eventID, openTime, closeTime)
	if err != nil {
		return nil, err
	}

	s := &models.DaySummary{
		EventID:   eventID,
		DayNumber: dayNumber,
		OpenTime:  openTime,
		CloseTime: closeTime,
		Revenue:   totals.Revenue,
		ItemsSold: totals.ItemsSold,
		CreatedAt: time.Now(),
	}

	inserted, err := a.DB.InsertSummary(ctx, s)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Day already closed; hand back the original snapshot.
		return a.DB.GetSummary(ctx, eventID, dayNumber)
	}
	return s, nil
}

// SummariesForEvent lists the closed-day history in day order.
func (a *Aggregator) SummariesForEvent(ctx context.Context, eventID string) ([]models.DaySummary, error) {
	return a.DB.GetSummariesByEvent(ctx, eventID)
}

// Summary returns one day's snapshot.
func (a *Aggregator) Summary(ctx context.Context, eventID string, dayNumber int) (*models.DaySummary, error) {
	return a.DB.GetSummary(ctx, eventID, dayNumber)
}
