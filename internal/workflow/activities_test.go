package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagstore/storefront/internal/apperr"
)

func TestPeriodStart(t *testing.T) {
	// Thursday
	now := time.Date(2025, 6, 12, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
		ok     bool
	}{
		{"today", time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), true},
		{"week", time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), true},
		{"month", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"year", time.Time{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.period, func(t *testing.T) {
			got, ok := PeriodStart(tc.period, now)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	sunday := time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)
	got, _ := PeriodStart("week", sunday)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), got)
}

func TestActivitySummary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.deliveredOrder(t, f.alice, map[int64]int{10: 1})
	f.deliveredOrder(t, f.bob, map[int64]int{11: 2})
	shipped := f.placeOrder(t, f.alice, map[int64]int{10: 1})
	_, err := f.svc.TransitionStatus(ctx, f.admin, shipped.OrderNumber, "shipping")
	require.NoError(t, err)

	_, err = f.svc.ActivitySummary(ctx, f.alice, "today")
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = f.svc.ActivitySummary(ctx, f.admin, "decade")
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	sum, err := f.svc.ActivitySummary(ctx, f.admin, "")
	require.NoError(t, err)
	assert.Equal(t, "today", sum.Period)
	assert.Equal(t, 5, sum.TotalActions)
	assert.Equal(t, 5, sum.OrdersUpdated)
	assert.Equal(t, "211.00", sum.RevenueCollected)

	f.setNow(f.now.AddDate(0, 0, 1))
	sum, err = f.svc.ActivitySummary(ctx, f.admin, "today")
	require.NoError(t, err)
	assert.Zero(t, sum.TotalActions)
	assert.Equal(t, "0.00", sum.RevenueCollected)
}

func TestActivitiesBetween(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.deliveredOrder(t, f.alice, map[int64]int{10: 1})

	from := f.now.Add(-time.Hour)
	views, err := f.svc.ActivitiesBetween(ctx, f.admin, from, f.now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, ActionRevenueCollected, views[0].Action)

	views, err = f.svc.ActivitiesBetween(ctx, f.admin, f.now.Add(time.Hour), f.now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = f.svc.ActivitiesBetween(ctx, f.admin, f.now, f.now)
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
	_, err = f.svc.ActivitiesBetween(ctx, f.bob, from, f.now)
	assert.ErrorIs(t, err, ErrAdminOnly)
}
