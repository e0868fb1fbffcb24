package model

import (
	"sort"
	"time"

	"seatserve/internal/errs"
)

// Shift is a recurring daily window entitling seat occupancy.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftEvening Shift = "evening"
	ShiftFullday Shift = "fullday"
)

// ParseShift validates and normalizes a shift string.
func ParseShift(s string) (Shift, error) {
	switch Shift(s) {
	case ShiftMorning, ShiftEvening, ShiftFullday:
		return Shift(s), nil
	default:
		return "", errs.Newf(errs.KindValidation, "unknown shift %q", s)
	}
}

// Overlaps reports whether two shifts on the same seat conflict.
// Fullday conflicts with everything; otherwise only identical shifts conflict.
func (s Shift) Overlaps(other Shift) bool {
	return s == ShiftFullday || other == ShiftFullday || s == other
}

// ClaimSlots expands a shift into the uniqueness slots it occupies on a seat.
// A (seat, slot) pair can be claimed by at most one active member, which is
// exactly the overlap rule: fullday claims both slots, so it collides with
// any other shift, and equal shifts collide on their shared slot.
func (s Shift) ClaimSlots() []Shift {
	if s == ShiftFullday {
		return []Shift{ShiftMorning, ShiftEvening}
	}
	return []Shift{s}
}

// ActivityStatus is the member's lifecycle state.
type ActivityStatus string

const (
	StatusActive ActivityStatus = "active"
	StatusLeft   ActivityStatus = "left"
)

// FeeStatus is the member's billing state. FeeNA applies only to left members.
type FeeStatus string

const (
	FeeDue     FeeStatus = "due"
	FeePaid    FeeStatus = "paid"
	FeeOverdue FeeStatus = "overdue"
	FeeNA      FeeStatus = "na"
)

// Member is the canonical typed representation of a membership record.
// The repository normalizes raw store documents into this shape once;
// business logic never branches on storage representation.
type Member struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`

	Shift Shift `json:"shift"`
	Seat  *int  `json:"seat"`

	ActivityStatus ActivityStatus `json:"activity_status"`
	FeeStatus      FeeStatus      `json:"fee_status"`
	AmountDue      int            `json:"amount_due"`
	NextDueDate    *time.Time     `json:"next_due_date"`
	JoinedAt       time.Time      `json:"joined_at"`

	PaymentHistory    []PaymentRecord `json:"payment_history,omitempty"`
	DeviceTokens      []string        `json:"-"`
	AckedBroadcastIDs []string        `json:"-"`

	// UpdateTime is the store's last-write timestamp, used as the version
	// for optimistic concurrency. Zero for records not yet persisted.
	UpdateTime time.Time `json:"-"`
}

// IsActive reports whether the member currently holds a membership.
func (m *Member) IsActive() bool { return m.ActivityStatus == StatusActive }

// HasAckedBroadcast reports whether the member has read the given broadcast.
func (m *Member) HasAckedBroadcast(alertID string) bool {
	for _, id := range m.AckedBroadcastIDs {
		if id == alertID {
			return true
		}
	}
	return false
}

// SortedPayments returns a copy of the payment history in chronological
// order.
func (m *Member) SortedPayments() []PaymentRecord {
	out := make([]PaymentRecord, len(m.PaymentHistory))
	copy(out, m.PaymentHistory)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// LifecyclePolicy holds the tunable policy constants of the fee lifecycle.
// The thresholds are configuration, not fixed law.
type LifecyclePolicy struct {
	// OverdueGraceDays is how long a member may stay overdue before being
	// automatically deactivated. The cutoff is strictly greater-than.
	OverdueGraceDays int
	// WipeHistoryOnReactivate clears the payment ledger when a left member
	// rejoins.
	WipeHistoryOnReactivate bool
}

// DefaultPolicy matches the historical behavior of the system.
func DefaultPolicy() LifecyclePolicy {
	return LifecyclePolicy{OverdueGraceDays: 5, WipeHistoryOnReactivate: true}
}

// Transition names an automatic lifecycle transition applied by Refresh.
type Transition string

const (
	TransitionFeeOverdue Transition = "fee_overdue"
	TransitionAutoLeft   Transition = "auto_left"
)

// Refresh applies the time-driven lifecycle transitions to m and returns the
// transitions taken, in order. It is pure with respect to the clock passed
// in: the per-read refresh and the batch job both call this one function and
// produce identical results for identical inputs.
//
// Transitions:
//   - due-check: active, not paid, due date passed -> overdue
//   - escalation: active, overdue for more than the grace period -> left,
//     seat released, fee state cleared. One-way; only manual reactivation
//     reverses it.
func Refresh(m *Member, now time.Time, p LifecyclePolicy) []Transition {
	if m.ActivityStatus != StatusActive || m.NextDueDate == nil {
		return nil
	}

	var applied []Transition

	if m.FeeStatus != FeePaid && m.FeeStatus != FeeOverdue && m.NextDueDate.Before(now) {
		m.FeeStatus = FeeOverdue
		applied = append(applied, TransitionFeeOverdue)
	}

	if m.FeeStatus == FeeOverdue {
		grace := time.Duration(p.OverdueGraceDays) * 24 * time.Hour
		if now.Sub(*m.NextDueDate) > grace {
			m.ActivityStatus = StatusLeft
			m.Seat = nil
			m.FeeStatus = FeeNA
			m.AmountDue = 0
			m.NextDueDate = nil
			applied = append(applied, TransitionAutoLeft)
		}
	}

	return applied
}

// ApplyPayment transitions the member to paid after a payment covering the
// given number of months. The new due date is anchored at whichever is
// later, the clock or the previous due date, so paying late does not shorten
// the covered period and paying early does not lose it.
func ApplyPayment(m *Member, now time.Time, months int) error {
	if !m.IsActive() {
		return errs.New(errs.KindState, "cannot record a payment for a left member")
	}
	if months <= 0 {
		return errs.New(errs.KindValidation, "months covered must be positive")
	}

	anchor := now
	if m.NextDueDate != nil && m.NextDueDate.After(now) {
		anchor = *m.NextDueDate
	}
	next := anchor.AddDate(0, months, 0)

	m.FeeStatus = FeePaid
	m.AmountDue = 0
	m.NextDueDate = &next
	return nil
}
