package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func TestShiftOverlaps(t *testing.T) {
	cases := []struct {
		a, b Shift
		want bool
	}{
		{ShiftMorning, ShiftMorning, true},
		{ShiftEvening, ShiftEvening, true},
		{ShiftMorning, ShiftEvening, false},
		{ShiftEvening, ShiftMorning, false},
		{ShiftFullday, ShiftMorning, true},
		{ShiftFullday, ShiftEvening, true},
		{ShiftMorning, ShiftFullday, true},
		{ShiftFullday, ShiftFullday, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.a.Overlaps(tc.b), "%s vs %s", tc.a, tc.b)
	}
}

func TestClaimSlots(t *testing.T) {
	assert.Equal(t, []Shift{ShiftMorning}, ShiftMorning.ClaimSlots())
	assert.Equal(t, []Shift{ShiftEvening}, ShiftEvening.ClaimSlots())
	assert.Equal(t, []Shift{ShiftMorning, ShiftEvening}, ShiftFullday.ClaimSlots())
}

func TestParseShift(t *testing.T) {
	s, err := ParseShift("morning")
	require.NoError(t, err)
	assert.Equal(t, ShiftMorning, s)

	_, err = ParseShift("night")
	assert.Error(t, err)
}

func activeMember(due time.Time) *Member {
	return &Member{
		ID:             "m1",
		Shift:          ShiftMorning,
		Seat:           intPtr(7),
		ActivityStatus: StatusActive,
		FeeStatus:      FeeDue,
		AmountDue:      600,
		NextDueDate:    timePtr(due),
	}
}

func TestRefreshBeforeDueDate(t *testing.T) {
	due := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	m := activeMember(due)

	applied := Refresh(m, due.Add(-time.Hour), DefaultPolicy())
	assert.Empty(t, applied)
	assert.Equal(t, FeeDue, m.FeeStatus)
}

func TestRefreshMarksOverdue(t *testing.T) {
	due := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	m := activeMember(due)

	applied := Refresh(m, due.Add(time.Hour), DefaultPolicy())
	assert.Equal(t, []Transition{TransitionFeeOverdue}, applied)
	assert.Equal(t, FeeOverdue, m.FeeStatus)
	assert.Equal(t, StatusActive, m.ActivityStatus)
}

func TestRefreshGraceBoundary(t *testing.T) {
	due := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	// Exactly at the grace cutoff: overdue but still active.
	m := activeMember(due)
	applied := Refresh(m, due.Add(5*24*time.Hour), DefaultPolicy())
	assert.Equal(t, []Transition{TransitionFeeOverdue}, applied)
	assert.Equal(t, StatusActive, m.ActivityStatus)

	// Past the cutoff: both transitions fire in one call and the seat is
	// released.
	m = activeMember(due)
	applied = Refresh(m, due.Add(5*24*time.Hour+time.Minute), DefaultPolicy())
	assert.Equal(t, []Transition{TransitionFeeOverdue, TransitionAutoLeft}, applied)
	assert.Equal(t, StatusLeft, m.ActivityStatus)
	assert.Nil(t, m.Seat)
	assert.Equal(t, FeeNA, m.FeeStatus)
	assert.Zero(t, m.AmountDue)
	assert.Nil(t, m.NextDueDate)
}

func TestRefreshIgnoresPaidAndLeft(t *testing.T) {
	due := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	later := due.AddDate(0, 2, 0)

	m := activeMember(due)
	m.FeeStatus = FeePaid
	assert.Empty(t, Refresh(m, later, DefaultPolicy()))
	assert.Equal(t, FeePaid, m.FeeStatus)

	m = activeMember(due)
	m.ActivityStatus = StatusLeft
	assert.Empty(t, Refresh(m, later, DefaultPolicy()))
}

func TestRefreshIsIdempotent(t *testing.T) {
	due := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	now := due.Add(10 * 24 * time.Hour)

	m := activeMember(due)
	first := Refresh(m, now, DefaultPolicy())
	require.NotEmpty(t, first)
	assert.Empty(t, Refresh(m, now, DefaultPolicy()))
}

func TestApplyPaymentAnchorsAtFutureDueDate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 1, 0)
	m := activeMember(due)

	require.NoError(t, ApplyPayment(m, now, 1))
	assert.Equal(t, FeePaid, m.FeeStatus)
	assert.Zero(t, m.AmountDue)
	// Paying early extends from the existing due date, not from today.
	assert.Equal(t, due.AddDate(0, 1, 0), *m.NextDueDate)
}

func TestApplyPaymentAnchorsAtNowWhenLate(t *testing.T) {
	due := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := due.AddDate(0, 0, 3)
	m := activeMember(due)
	m.FeeStatus = FeeOverdue

	require.NoError(t, ApplyPayment(m, now, 2))
	assert.Equal(t, FeePaid, m.FeeStatus)
	assert.Equal(t, now.AddDate(0, 2, 0), *m.NextDueDate)
}

func TestApplyPaymentRejectsLeftMember(t *testing.T) {
	m := activeMember(time.Now())
	m.ActivityStatus = StatusLeft
	assert.Error(t, ApplyPayment(m, time.Now(), 1))
}

func TestApplyPaymentRejectsNonPositiveMonths(t *testing.T) {
	m := activeMember(time.Now().AddDate(0, 1, 0))
	assert.Error(t, ApplyPayment(m, time.Now(), 0))
	assert.Error(t, ApplyPayment(m, time.Now(), -1))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 600, ParseAmount("Rs. 600"))
	assert.Equal(t, 1200, ParseAmount("INR 1200"))
	assert.Equal(t, 600, ParseAmount("600"))
	assert.Equal(t, 600, ParseAmount("Rs. 600/-"))
	assert.Equal(t, 0, ParseAmount("free"))
	assert.Equal(t, 0, ParseAmount(""))
}

func TestSessionDuration(t *testing.T) {
	window := DefaultShiftWindows()[ShiftMorning]
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	in := day.Add(9 * time.Hour)

	// Closed session is measured exactly.
	out := in.Add(5*time.Hour + 30*time.Minute)
	closed := &AttendanceSession{Date: day, CheckInTime: in, CheckOutTime: &out}
	assert.Equal(t, 5*time.Hour+30*time.Minute, closed.Duration(day.Add(23*time.Hour), window))

	// Open session well past shift end is capped at 14:00.
	open := &AttendanceSession{Date: day, CheckInTime: in}
	assert.Equal(t, 5*time.Hour, open.Duration(day.Add(20*time.Hour), window))

	// Open session during the shift is measured against now.
	assert.Equal(t, 2*time.Hour, open.Duration(in.Add(2*time.Hour), window))
}

func TestWindowContains(t *testing.T) {
	w := Window{StartMin: 7 * 60, EndMin: 14 * 60}
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	assert.True(t, w.Contains(day.Add(7*time.Hour)))
	assert.True(t, w.Contains(day.Add(14*time.Hour)))
	assert.False(t, w.Contains(day.Add(6*time.Hour+59*time.Minute)))
	assert.False(t, w.Contains(day.Add(18*time.Hour)))
}

func TestAlertViewFor(t *testing.T) {
	m := &Member{ID: "m1", AckedBroadcastIDs: []string{"b1"}}

	targeted := Alert{ID: "a1", MemberID: "m1", IsRead: true}
	assert.True(t, targeted.ViewFor(m).Read)

	acked := Alert{ID: "b1"}
	assert.True(t, acked.ViewFor(m).Read)

	unacked := Alert{ID: "b2"}
	assert.False(t, unacked.ViewFor(m).Read)
}
