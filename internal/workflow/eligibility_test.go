package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagstore/storefront/internal/repository"
)

func TestCheckEligibility(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	legacy := 30 * 24 * time.Hour
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name     string
		order    repository.Order
		eligible bool
		reason   EligibilityReason
		days     *int
	}{
		{
			name:   "pending order",
			order:  repository.Order{Status: "pending", IsReturnable: true, UpdatedAt: now},
			reason: IneligibleNotDelivered,
		},
		{
			name:   "not delivered wins over has_return",
			order:  repository.Order{Status: "shipping", HasReturn: true, IsReturnable: false, UpdatedAt: now},
			reason: IneligibleNotDelivered,
		},
		{
			name:   "already has return",
			order:  repository.Order{Status: "delivered", HasReturn: true, IsReturnable: true, ReturnDeadline: ptr(now.Add(72 * time.Hour))},
			reason: IneligibleHasReturn,
		},
		{
			name:   "not returnable",
			order:  repository.Order{Status: "delivered", IsReturnable: false, ReturnDeadline: ptr(now.Add(72 * time.Hour))},
			reason: IneligibleNotReturnable,
		},
		{
			name:   "deadline passed",
			order:  repository.Order{Status: "delivered", IsReturnable: true, ReturnDeadline: ptr(now.Add(-time.Second))},
			reason: IneligibleDeadline,
			days:   intPtr(-1),
		},
		{
			name:   "deadline passed a day and a half ago",
			order:  repository.Order{Status: "delivered", IsReturnable: true, ReturnDeadline: ptr(now.Add(-36 * time.Hour))},
			reason: IneligibleDeadline,
			days:   intPtr(-2),
		},
		{
			name:     "exactly at deadline",
			order:    repository.Order{Status: "delivered", IsReturnable: true, ReturnDeadline: ptr(now)},
			eligible: true,
			days:     intPtr(0),
		},
		{
			name:     "last hours before deadline",
			order:    repository.Order{Status: "delivered", IsReturnable: true, ReturnDeadline: ptr(now.Add(23 * time.Hour))},
			eligible: true,
			days:     intPtr(0),
		},
		{
			name:     "eligible with stored deadline",
			order:    repository.Order{Status: "delivered", IsReturnable: true, ReturnDeadline: ptr(now.Add(3*24*time.Hour + time.Hour))},
			eligible: true,
			days:     intPtr(3),
		},
		{
			name:     "legacy fallback from updated_at",
			order:    repository.Order{Status: "delivered", IsReturnable: true, UpdatedAt: now.Add(-20 * 24 * time.Hour)},
			eligible: true,
			days:     intPtr(10),
		},
		{
			name:   "legacy fallback expired",
			order:  repository.Order{Status: "delivered", IsReturnable: true, UpdatedAt: now.Add(-31 * 24 * time.Hour)},
			reason: IneligibleDeadline,
			days:   intPtr(-1),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			el := CheckEligibility(&tc.order, now, legacy)
			assert.Equal(t, tc.eligible, el.Eligible)
			assert.Equal(t, tc.reason, el.Reason)
			assert.Equal(t, tc.reason.Message(), el.Message)
			if tc.days != nil {
				require.NotNil(t, el.DaysRemaining)
				assert.Equal(t, *tc.days, *el.DaysRemaining)
			}
		})
	}
}

func TestCheckEligibility_NoDeadlineBeforeDelivery(t *testing.T) {
	el := CheckEligibility(&repository.Order{Status: "pending", UpdatedAt: time.Now()}, time.Now(), time.Hour)
	assert.Nil(t, el.Deadline)
	assert.Nil(t, el.DaysRemaining)
}

func TestCheckEligibility_Pure(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	o := repository.Order{Status: "delivered", IsReturnable: true, UpdatedAt: now}

	first := CheckEligibility(&o, now, 24*time.Hour)
	second := CheckEligibility(&o, now, 24*time.Hour)
	assert.Equal(t, first, second)
	assert.Nil(t, o.ReturnDeadline, "fallback must not be written back")
}

func intPtr(v int) *int { return &v }
