package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"seatserve/internal/errs"
	"seatserve/internal/metrics"
	"seatserve/internal/model"
	"seatserve/internal/repository"
)

// MemberGetter is the slice of the membership service the tracker needs: a
// read that has already run the lifecycle refresh, so a member past the
// grace period is seen as left here too.
type MemberGetter interface {
	GetMember(ctx context.Context, id string) (*model.Member, error)
}

// AttendanceService opens and closes attendance sessions and aggregates
// time spent per member.
type AttendanceService struct {
	sessions repository.AttendanceRepository
	members  MemberGetter
	windows  model.ShiftWindows
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewAttendanceService(
	sessions repository.AttendanceRepository,
	members MemberGetter,
	windows model.ShiftWindows,
	notifier Notifier,
	logger *zap.Logger,
) *AttendanceService {
	return &AttendanceService{
		sessions: sessions,
		members:  members,
		windows:  windows,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckIn opens a session for the member. A check-in outside the member's
// shift window still succeeds but emits a warning alert; only left members
// and double check-ins are rejected.
func (s *AttendanceService) CheckIn(ctx context.Context, memberID string) (*model.AttendanceSession, error) {
	m, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, errs.New(errs.KindState, "a left member cannot check in")
	}

	now := s.now()
	session := &model.AttendanceSession{
		ID:          uuid.NewString(),
		MemberID:    memberID,
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		CheckInTime: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	metrics.CheckIns.Inc()
	s.logger.Info("checked in",
		zap.String("member_id", memberID),
		zap.String("session_id", session.ID))

	if w, ok := s.windows[m.Shift]; ok && !w.Contains(now) {
		s.notifier.Notify(ctx, model.NewOutsideShiftEvent(m))
	}
	return session, nil
}

// CheckOut closes the session with the current time.
func (s *AttendanceService) CheckOut(ctx context.Context, sessionID string) (*model.AttendanceSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Open() {
		return nil, errs.New(errs.KindState, "session is already closed")
	}

	out := s.now()
	if err := s.sessions.Close(ctx, session, out); err != nil {
		return nil, err
	}
	session.CheckOutTime = &out
	s.logger.Info("checked out",
		zap.String("member_id", session.MemberID),
		zap.String("session_id", session.ID))
	return session, nil
}

// OpenSession returns the member's currently open session, or nil.
func (s *AttendanceService) OpenSession(ctx context.Context, memberID string) (*model.AttendanceSession, error) {
	return s.sessions.OpenSession(ctx, memberID)
}

// AttendanceSummary aggregates a member's sessions over a date range.
// TotalMinutes measures closed sessions exactly and caps the open session at
// the shift end so a forgotten checkout does not inflate the total.
type AttendanceSummary struct {
	Sessions     []model.AttendanceSession `json:"sessions"`
	TotalMinutes int                       `json:"total_minutes"`
}

// MemberSummary returns the member's sessions between from and to together
// with the total time spent.
func (s *AttendanceService) MemberSummary(ctx context.Context, memberID string, from, to time.Time) (*AttendanceSummary, error) {
	m, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByMember(ctx, memberID, from, to)
	if err != nil {
		return nil, err
	}

	window := s.windows[m.Shift]
	now := s.now()
	var total time.Duration
	for i := range sessions {
		total += sessions[i].Duration(now, window)
	}
	return &AttendanceSummary{
		Sessions:     sessions,
		TotalMinutes: int(total / time.Minute),
	}, nil
}
