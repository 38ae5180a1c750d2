package metrics

import (
	"context"
	"ms-pos/internal/models"
	"time"
)

// DBLayer is the projector's read-only storage contract.
type DBLayer interface {
	GetLiveAggregates(ctx context.Context, eventID string, since time.Time) (LiveAggregates, error)
	GetSummaryTotals(ctx context.Context, eventID string) (SummaryTotals, error)
	GetItemPerformance(ctx context.Context, eventID string, rankBy string, limit int) ([]ItemPerformanceRow, error)
}

// EventGetter resolves the event whose metrics are being projected.
type EventGetter interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

// Service derives KPIs by reducing over the ledger, the sales rows and the
// day summaries. It stores nothing and mutates nothing: every figure is a
// deterministic function of that data.
type Service struct {
	DB     DBLayer
	Events EventGetter
}

func NewService(db DBLayer, events EventGetter) *Service {
	return &Service{DB: db, Events: events}
}

// LiveDayMetrics are the KPIs for the currently-open day. All figures are
// zero when no day is open or nothing has sold yet.
type LiveDayMetrics struct {
	EventID           string    `json:"event_id"`
	DayNumber         int       `json:"day_number"`
	DayOpen           bool      `json:"day_open"`
	OpenSince         time.Time `json:"open_since,omitempty"`
	Revenue           float64   `json:"revenue"`
	ItemsSold         int       `json:"items_sold"`
	OrderCount        int       `json:"order_count"`
	AverageOrderValue float64   `json:"average_order_value"`
	ItemsPerOrder     float64   `json:"items_per_order"`
}

// EventToDateMetrics combine every closed day's snapshot with the live day.
type EventToDateMetrics struct {
	EventID    string         `json:"event_id"`
	Revenue    float64        `json:"revenue"`
	ItemsSold  int            `json:"items_sold"`
	DaysClosed int            `json:"days_closed"`
	LiveDay    LiveDayMetrics `json:"live_day"`
}

// LiveDay projects the open day's KPIs. A closed day is not an error: the
// metrics simply read as zero.
func (s *Service) LiveDay(ctx context.Context, eventID string) (*LiveDayMetrics, error) {
	event, err := s.Events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	m := &LiveDayMetrics{
		EventID:   event.ID,
		DayNumber: event.CurrentDay,
	}
	state := event.DayState()
	if !state.Open {
		return m, nil
	}
	m.DayOpen = true
	m.OpenSince = state.Since

	agg, err := s.DB.GetLiveAggregates(ctx, event.ID, state.Since)
	if err != nil {
		return nil, err
	}
	m.Revenue = agg.Revenue
	m.ItemsSold = agg.ItemsSold
	m.OrderCount = agg.OrderCount
	if agg.OrderCount > 0 {
		m.AverageOrderValue = agg.Revenue / float64(agg.OrderCount)
		m.ItemsPerOrder = float64(agg.ItemsSold) / float64(agg.OrderCount)
	}
	return m, nil
}

// EventToDate sums all past DaySummary rows plus the current live day, so
// historical days never require re-scanning the full ledger.
func (s *Service) EventToDate(ctx context.Context, eventID string) (*EventToDateMetrics, error) {
	totals, err := s.DB.GetSummaryTotals(ctx, eventID)
	if err != nil {
		return nil, err
	}

	live, err := s.LiveDay(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return &EventToDateMetrics{
		EventID:    eventID,
		Revenue:    totals.Revenue + live.Revenue,
		ItemsSold:  totals.ItemsSold + live.ItemsSold,
		DaysClosed: totals.DaysClosed,
		LiveDay:    *live,
	}, nil
}

// TopItems ranks the event's items by units sold or by revenue for the
// "top sellers" view.
func (s *Service) TopItems(ctx context.Context, eventID string, rankBy string, limit int) ([]ItemPerformanceRow, error) {
	return s.DB.GetItemPerformance(ctx, eventID, rankBy, limit)
}
