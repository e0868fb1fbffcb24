package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seatserve/internal/model"
	"seatserve/internal/repository"
	"seatserve/internal/store"
)

// fakeClock drives every service's notion of now, so lifecycle tests can
// jump across due dates deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingNotifier captures emitted alert events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []model.AlertEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev model.AlertEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

func (n *recordingNotifier) hasType(t string) bool {
	for _, typ := range n.types() {
		if typ == t {
			return true
		}
	}
	return false
}

type fixture struct {
	store      *store.MemStore
	members    repository.MemberRepository
	sessions   repository.AttendanceRepository
	alerts     repository.AlertRepository
	clock      *fakeClock
	events     *recordingNotifier
	membership *MembershipService
	billing    *BillingService
	attendance *AttendanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemStore()
	members := repository.NewMemberRepository(st)
	sessions := repository.NewAttendanceRepository(st)
	alerts := repository.NewAlertRepository(st)

	clock := &fakeClock{now: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)}
	events := &recordingNotifier{}
	logger := zap.NewNop()

	fees := map[model.Shift]int{
		model.ShiftMorning: 600,
		model.ShiftEvening: 600,
		model.ShiftFullday: 1000,
	}
	seats := NewSeatAllocator([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	policy := model.DefaultPolicy()

	membership := NewMembershipService(members, seats, fees, policy, events, logger)
	membership.now = clock.Now
	billing := NewBillingService(members, policy, events, logger)
	billing.now = clock.Now
	attendance := NewAttendanceService(sessions, membership, model.DefaultShiftWindows(), events, logger)
	attendance.now = clock.Now

	return &fixture{
		store:      st,
		members:    members,
		sessions:   sessions,
		alerts:     alerts,
		clock:      clock,
		events:     events,
		membership: membership,
		billing:    billing,
		attendance: attendance,
	}
}

func (f *fixture) register(t *testing.T, seat int, shift model.Shift) *model.Member {
	t.Helper()
	m, err := f.membership.Register(context.Background(), &model.RegisterMemberRequest{
		Name:  "Test Member",
		Phone: "9876543210",
		Shift: string(shift),
		Seat:  seat,
	})
	require.NoError(t, err)
	return m
}
