package model

import "time"

// AttendanceSession is one check-in/check-out interval for a member.
// At most one session per member may be open at any instant.
type AttendanceSession struct {
	ID           string     `json:"id"`
	MemberID     string     `json:"member_id"`
	Date         time.Time  `json:"date"` // midnight of the check-in day
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`

	UpdateTime time.Time `json:"-"`
}

// Open reports whether the session has not been checked out yet.
func (s *AttendanceSession) Open() bool { return s.CheckOutTime == nil }

// Duration returns the elapsed time of the session. A closed session is
// measured check-in to check-out. An open session is measured against now,
// capped at the member's shift end for that day so a forgotten checkout
// does not accumulate forever.
func (s *AttendanceSession) Duration(now time.Time, w Window) time.Duration {
	end := now
	if s.CheckOutTime != nil {
		end = *s.CheckOutTime
	} else if shiftEnd := w.EndOn(s.Date); end.After(shiftEnd) {
		end = shiftEnd
	}
	if end.Before(s.CheckInTime) {
		return 0
	}
	return end.Sub(s.CheckInTime)
}

// Window is a daily time window expressed in minutes from midnight.
type Window struct {
	StartMin int
	EndMin   int
}

// Contains reports whether the clock time of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	min := t.Hour()*60 + t.Minute()
	return min >= w.StartMin && min <= w.EndMin
}

// EndOn returns the window's end instant on the given day.
func (w Window) EndOn(day time.Time) time.Time {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(w.EndMin) * time.Minute)
}

// ShiftWindows maps each shift to its daily window.
type ShiftWindows map[Shift]Window

// DefaultShiftWindows returns the facility's standard hours:
// morning 07:00-14:00, evening 14:00-21:30, fullday 07:00-21:30.
func DefaultShiftWindows() ShiftWindows {
	return ShiftWindows{
		ShiftMorning: {StartMin: 7 * 60, EndMin: 14 * 60},
		ShiftEvening: {StartMin: 14 * 60, EndMin: 21*60 + 30},
		ShiftFullday: {StartMin: 7 * 60, EndMin: 21*60 + 30},
	}
}
