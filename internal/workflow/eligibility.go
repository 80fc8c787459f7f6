package workflow

import (
	"time"

	"github.com/bagstore/storefront/internal/repository"
)

type EligibilityReason string

const (
	EligibleNone            EligibilityReason = ""
	IneligibleNotDelivered  EligibilityReason = "not_delivered"
	IneligibleHasReturn     EligibilityReason = "already_has_return"
	IneligibleNotReturnable EligibilityReason = "not_returnable"
	IneligibleDeadline      EligibilityReason = "deadline_passed"
)

func (r EligibilityReason) Message() string {
	switch r {
	case IneligibleNotDelivered:
		return "Order must be delivered before requesting a return"
	case IneligibleHasReturn:
		return "A return request already exists for this order"
	case IneligibleNotReturnable:
		return "This order is not eligible for returns"
	case IneligibleDeadline:
		return "Return deadline has passed"
	}
	return ""
}

type Eligibility struct {
	Eligible      bool              `json:"eligible"`
	Reason        EligibilityReason `json:"reason,omitempty"`
	Message       string            `json:"message,omitempty"`
	Deadline      *time.Time        `json:"return_deadline"`
	DaysRemaining *int              `json:"days_remaining"`
}

// EffectiveDeadline is the stored return deadline or, for orders delivered
// before deadlines were recorded, updated_at plus the legacy window.
func EffectiveDeadline(o *repository.Order, legacyWindow time.Duration) time.Time {
	if o.ReturnDeadline != nil {
		return *o.ReturnDeadline
	}
	return o.UpdatedAt.Add(legacyWindow)
}

// daysUntil counts whole days left before deadline, rounding down so any
// time past the deadline counts as at least one day overdue.
func daysUntil(deadline, now time.Time) int {
	const day = 24 * time.Hour
	left := deadline.Sub(now)
	days := int(left / day)
	if left < 0 && left%day != 0 {
		days--
	}
	return days
}

// CheckEligibility is a pure function of the order and the clock. Reasons
// are checked in a fixed order and the first failing one is reported.
func CheckEligibility(o *repository.Order, now time.Time, legacyWindow time.Duration) Eligibility {
	var el Eligibility

	delivered := OrderStatus(o.Status) == OrderDelivered
	if delivered || o.ReturnDeadline != nil {
		deadline := EffectiveDeadline(o, legacyWindow)
		days := daysUntil(deadline, now)
		el.Deadline = &deadline
		el.DaysRemaining = &days
	}

	switch {
	case !delivered:
		el.Reason = IneligibleNotDelivered
	case o.HasReturn:
		el.Reason = IneligibleHasReturn
	case !o.IsReturnable:
		el.Reason = IneligibleNotReturnable
	case now.After(*el.Deadline):
		el.Reason = IneligibleDeadline
	default:
		el.Eligible = true
	}
	el.Message = el.Reason.Message()
	return el
}
