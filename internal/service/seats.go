package service

import (
	"seatserve/internal/model"
)

// SeatAllocator computes seat availability per shift from the current
// active assignments. It is a pure function over its inputs; the seat
// universe is injected configuration, not owned here.
type SeatAllocator struct {
	universe []int
}

// NewSeatAllocator takes the fixed seat inventory, ascending.
func NewSeatAllocator(universe []int) *SeatAllocator {
	return &SeatAllocator{universe: universe}
}

// Available returns the seats free for the target shift, sorted ascending.
// A seat is unavailable when an active member occupies it on an overlapping
// shift. When recomputing for a member's own edit, pass their id as
// excludeMemberID so their current assignment does not block itself.
func (a *SeatAllocator) Available(target model.Shift, members []model.Member, excludeMemberID string) []int {
	taken := make(map[int]bool)
	for i := range members {
		m := &members[i]
		if !m.IsActive() || m.Seat == nil || m.ID == excludeMemberID {
			continue
		}
		if m.Shift.Overlaps(target) {
			taken[*m.Seat] = true
		}
	}

	available := make([]int, 0, len(a.universe))
	for _, seat := range a.universe {
		if !taken[seat] {
			available = append(available, seat)
		}
	}
	return available
}

// InUniverse reports whether the seat exists in the inventory at all.
func (a *SeatAllocator) InUniverse(seat int) bool {
	for _, s := range a.universe {
		if s == seat {
			return true
		}
	}
	return false
}
