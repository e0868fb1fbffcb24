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

// MembershipService owns the member lifecycle: registration, edits, manual
// and automatic deactivation, reactivation, and the lazy fee refresh that
// runs on every read path.
type MembershipService struct {
	members  repository.MemberRepository
	seats    *SeatAllocator
	fees     map[model.Shift]int
	policy   model.LifecyclePolicy
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewMembershipService(
	members repository.MemberRepository,
	seats *SeatAllocator,
	fees map[model.Shift]int,
	policy model.LifecyclePolicy,
	notifier Notifier,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		members:  members,
		seats:    seats,
		fees:     fees,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an active member on the requested seat and shift. The
// first fee period starts immediately: amount due per the shift's fee, due
// date one month out.
func (s *MembershipService) Register(ctx context.Context, req *model.RegisterMemberRequest) (*model.Member, error) {
	shift, err := model.ParseShift(req.Shift)
	if err != nil {
		return nil, err
	}
	if !s.seats.InUniverse(req.Seat) {
		return nil, errs.Newf(errs.KindValidation, "seat %d is not in the seat inventory", req.Seat)
	}

	now := s.now()
	due := now.AddDate(0, 1, 0)
	seat := req.Seat
	m := &model.Member{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		Shift:          shift,
		Seat:           &seat,
		ActivityStatus: model.StatusActive,
		FeeStatus:      model.FeeDue,
		AmountDue:      s.fees[shift],
		NextDueDate:    &due,
		JoinedAt:       now,
	}

	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("registered").Inc()
	s.logger.Info("member registered",
		zap.String("member_id", m.ID),
		zap.String("shift", string(shift)),
		zap.Int("seat", seat))

	s.notifier.Notify(ctx, model.NewMemberRegisteredEvent(m))
	return m, nil
}

// GetMember returns the member after running the lazy lifecycle refresh.
func (s *MembershipService) GetMember(ctx context.Context, id string) (*model.Member, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err = s.refresh(ctx, m)
	if err != nil {
		return nil, err
	}
	// Storage does not guarantee ledger order.
	m.PaymentHistory = m.SortedPayments()
	return m, nil
}

// ListMembers returns the full roster, each record refreshed.
func (s *MembershipService) ListMembers(ctx context.Context) ([]model.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(members))
	for i := range members {
		m, err := s.refresh(ctx, &members[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// AvailableSeats returns the seats free for the shift. Pass excludeMemberID
// when recomputing for an existing member's edit so their own seat counts as
// free.
func (s *MembershipService) AvailableSeats(ctx context.Context, shift model.Shift, excludeMemberID string) ([]int, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	return s.seats.Available(shift, members, excludeMemberID), nil
}

// Edit updates contact details and optionally moves the member to another
// seat or shift. Seat and shift changes are checked against the inventory
// here and against concurrent claims by the repository's atomic write.
func (s *MembershipService) Edit(ctx context.Context, id string, req *model.EditMemberRequest) (*model.Member, error) {
	var shift model.Shift
	if req.Shift != nil {
		var err error
		if shift, err = model.ParseShift(*req.Shift); err != nil {
			return nil, err
		}
	}
	if req.Seat != nil && !s.seats.InUniverse(*req.Seat) {
		return nil, errs.Newf(errs.KindValidation, "seat %d is not in the seat inventory", *req.Seat)
	}

	return s.members.Mutate(ctx, id, func(m *model.Member) error {
		if (req.Seat != nil || req.Shift != nil) && !m.IsActive() {
			return errs.New(errs.KindState, "cannot change seat or shift of a left member")
		}
		if req.Name != nil {
			m.Name = *req.Name
		}
		if req.Phone != nil {
			m.Phone = *req.Phone
		}
		if req.Email != nil {
			m.Email = *req.Email
		}
		if req.Address != nil {
			m.Address = *req.Address
		}
		if req.Shift != nil && shift != m.Shift {
			m.Shift = shift
			// Moving shifts changes the rate for the next period. A fee
			// already paid stays paid until its due date.
			if m.FeeStatus != model.FeePaid {
				m.AmountDue = s.fees[shift]
			}
		}
		if req.Seat != nil {
			seat := *req.Seat
			m.Seat = &seat
		}
		return nil
	})
}

// MarkAsLeft manually deactivates a member, releasing their seat and
// clearing billing state.
func (s *MembershipService) MarkAsLeft(ctx context.Context, id string) (*model.Member, error) {
	m, err := s.members.Mutate(ctx, id, func(m *model.Member) error {
		if !m.IsActive() {
			return errs.New(errs.KindState, "member has already left")
		}
		m.ActivityStatus = model.StatusLeft
		m.Seat = nil
		m.FeeStatus = model.FeeNA
		m.AmountDue = 0
		m.NextDueDate = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("marked_left").Inc()
	s.logger.Info("member marked left", zap.String("member_id", id))

	s.notifier.Notify(ctx, model.NewMarkedLeftEvent(m))
	return m, nil
}

// Reactivate brings a left member back as active on a fresh seat and shift,
// starting a new fee period. Depending on policy the old payment ledger is
// wiped.
func (s *MembershipService) Reactivate(ctx context.Context, id string, req *model.ReactivateMemberRequest) (*model.Member, error) {
	shift, err := model.ParseShift(req.Shift)
	if err != nil {
		return nil, err
	}
	if !s.seats.InUniverse(req.Seat) {
		return nil, errs.Newf(errs.KindValidation, "seat %d is not in the seat inventory", req.Seat)
	}

	m, err := s.members.Mutate(ctx, id, func(m *model.Member) error {
		if m.IsActive() {
			return errs.New(errs.KindState, "member is already active")
		}
		now := s.now()
		due := now.AddDate(0, 1, 0)
		seat := req.Seat

		m.ActivityStatus = model.StatusActive
		m.Shift = shift
		m.Seat = &seat
		m.FeeStatus = model.FeeDue
		m.AmountDue = s.fees[shift]
		m.NextDueDate = &due
		if s.policy.WipeHistoryOnReactivate {
			m.PaymentHistory = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("reactivated").Inc()
	s.logger.Info("member reactivated",
		zap.String("member_id", id),
		zap.String("shift", string(shift)),
		zap.Int("seat", req.Seat))

	s.notifier.Notify(ctx, model.NewReactivatedEvent(m))
	return m, nil
}

// RefreshAll sweeps the roster and persists any pending lifecycle
// transitions. The worker runs this periodically so members who are never
// read still get deactivated on time. Returns the number of members changed.
func (s *MembershipService) RefreshAll(ctx context.Context) (int, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range members {
		if len(model.Refresh(&members[i], s.now(), s.policy)) == 0 {
			continue
		}
		if _, err := s.refresh(ctx, &members[i]); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// refresh applies the time-driven transitions and persists them when any
// fired. The write re-runs the transition function against a fresh copy
// under the record's version, so a concurrent payment wins cleanly: the
// retry sees the paid state and applies nothing.
func (s *MembershipService) refresh(ctx context.Context, m *model.Member) (*model.Member, error) {
	probe := *m
	if len(model.Refresh(&probe, s.now(), s.policy)) == 0 {
		return m, nil
	}

	var applied []model.Transition
	updated, err := s.members.Mutate(ctx, m.ID, func(mm *model.Member) error {
		applied = model.Refresh(mm, s.now(), s.policy)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range applied {
		metrics.LifecycleTransitions.WithLabelValues(string(t)).Inc()
		switch t {
		case model.TransitionFeeOverdue:
			s.logger.Info("fee overdue", zap.String("member_id", m.ID))
			s.notifier.Notify(ctx, model.NewFeeOverdueEvent(updated))
		case model.TransitionAutoLeft:
			s.logger.Info("member auto deactivated", zap.String("member_id", m.ID))
			s.notifier.Notify(ctx, model.NewAutoDeactivatedEvent(updated))
		}
	}
	return updated, nil
}
