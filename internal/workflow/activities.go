package workflow

import (
	"context"
	"time"

	"github.com/bagstore/storefront/internal/apperr"
)

// PeriodStart returns the UTC start of the named period containing now.
// Weeks start on Monday.
func PeriodStart(period string, now time.Time) (time.Time, bool) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case "today":
		return day, true
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), true
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ActivitySummary aggregates the actor's own audit entries since the start
// of period.
func (s *Service) ActivitySummary(ctx context.Context, actor Actor, period string) (*ActivitySummary, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if period == "" {
		period = "today"
	}
	since, ok := PeriodStart(period, s.timeNow())
	if !ok {
		return nil, apperr.InvalidErr("The given data was invalid.", map[string]string{"period": "must be one of today, week, month"})
	}

	sum, err := s.repos.Activities.SummarySince(ctx, actor.ID, since)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &ActivitySummary{
		Period:           period,
		TotalActions:     sum.TotalActions,
		OrdersUpdated:    sum.OrdersUpdated,
		RevenueCollected: money(sum.RevenueCollected),
	}, nil
}

// ActivitiesBetween lists every audit entry created in [from, to), oldest
// first.
func (s *Service) ActivitiesBetween(ctx context.Context, actor Actor, from, to time.Time) ([]ActivityView, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, apperr.InvalidErr("The given data was invalid.", map[string]string{"date_to": "must be after date_from"})
	}

	rows, err := s.repos.Activities.ListBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return activityViews(rows)
}
