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

// NotificationService persists alerts and pushes them to devices. Persistence
// failures are real errors; push delivery is best-effort and only logged.
type NotificationService struct {
	alerts  repository.AlertRepository
	members repository.MemberRepository
	admins  repository.AdminRepository
	tokens  repository.TokenRepository
	push    PushSender
	logger  *zap.Logger
	now     func() time.Time
}

func NewNotificationService(
	alerts repository.AlertRepository,
	members repository.MemberRepository,
	admins repository.AdminRepository,
	tokens repository.TokenRepository,
	push PushSender,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		alerts:  alerts,
		members: members,
		admins:  admins,
		tokens:  tokens,
		push:    push,
		logger:  logger,
		now:     time.Now,
	}
}

// DispatchTargeted creates a persisted alert for one member and pushes it to
// their devices.
func (s *NotificationService) DispatchTargeted(ctx context.Context, memberID, alertType, title, body string, data map[string]string) (*model.Alert, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		metrics.AlertsDispatched.WithLabelValues("targeted", "error").Inc()
		return nil, err
	}

	a := &model.Alert{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Type:      alertType,
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		metrics.AlertsDispatched.WithLabelValues("targeted", "error").Inc()
		return nil, err
	}
	metrics.AlertsDispatched.WithLabelValues("targeted", "ok").Inc()

	s.sendPush(ctx, dedupTokens(m.DeviceTokens), title, body, data)
	return a, nil
}

// DispatchBroadcast creates a single shared alert record and pushes it to
// every active member's and every admin's devices.
func (s *NotificationService) DispatchBroadcast(ctx context.Context, alertType, title, body string, data map[string]string) (*model.Alert, error) {
	a := &model.Alert{
		ID:        uuid.NewString(),
		Type:      alertType,
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		metrics.AlertsDispatched.WithLabelValues("broadcast", "error").Inc()
		return nil, err
	}
	metrics.AlertsDispatched.WithLabelValues("broadcast", "ok").Inc()

	tokens, err := s.audienceTokens(ctx)
	if err != nil {
		// The alert is already persisted; members still see it in their feed.
		s.logger.Warn("collect broadcast audience", zap.Error(err))
		return a, nil
	}
	s.sendPush(ctx, tokens, title, body, data)
	return a, nil
}

// HandleEvent routes an alert event to the matching dispatch. It is the
// delivery end of the fire-and-forget pipeline, called by the async notifier
// or the queue consumer.
func (s *NotificationService) HandleEvent(ctx context.Context, ev model.AlertEvent) error {
	alertType := alertTypeForEvent(ev.Type)
	var err error
	if ev.MemberID == "" {
		_, err = s.DispatchBroadcast(ctx, alertType, ev.Title, ev.Body, ev.Data)
	} else {
		_, err = s.DispatchTargeted(ctx, ev.MemberID, alertType, ev.Title, ev.Body, ev.Data)
	}
	return err
}

func alertTypeForEvent(eventType string) string {
	switch eventType {
	case model.EventOutsideShift:
		return model.AlertTypeAttendance
	case model.EventMemberRegistered, model.EventPaymentReceived, model.EventFeeOverdue,
		model.EventAutoDeactivated, model.EventMarkedLeft, model.EventReactivated:
		return model.AlertTypeLifecycle
	default:
		return model.AlertTypeAnnouncement
	}
}

// ListForMember returns the member's alert feed, targeted and broadcast
// merged, with read state resolved per member.
func (s *NotificationService) ListForMember(ctx context.Context, memberID string, limit int) ([]model.AlertView, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	alerts, err := s.alerts.ListForMember(ctx, memberID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]model.AlertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, a.ViewFor(m))
	}
	return views, nil
}

// MarkRead records that the member has read the alert. Targeted alerts flip
// their own read flag; broadcasts are acknowledged on the member's record so
// one reader never marks the shared alert read for everyone.
func (s *NotificationService) MarkRead(ctx context.Context, memberID, alertID string) error {
	a, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return err
	}
	if a.Broadcast() {
		return s.members.AckBroadcast(ctx, memberID, alertID)
	}
	if a.MemberID != memberID {
		return errs.Newf(errs.KindNotFound, "alert %s not found for member %s", alertID, memberID)
	}
	return s.alerts.MarkRead(ctx, alertID)
}

// RegisterToken attaches a device token to the member.
func (s *NotificationService) RegisterToken(ctx context.Context, memberID, token string) error {
	return s.members.AddDeviceToken(ctx, memberID, token)
}

// RemoveToken detaches a device token from the member.
func (s *NotificationService) RemoveToken(ctx context.Context, memberID, token string) error {
	return s.members.RemoveDeviceToken(ctx, memberID, token)
}

// sendPush delivers best-effort and prunes tokens the provider rejected
// permanently. Transient failures leave tokens in place for the next send.
func (s *NotificationService) sendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) {
	if s.push == nil || len(tokens) == 0 {
		return
	}

	results, err := s.push.Send(ctx, tokens, title, body, data)
	if err != nil {
		s.logger.Warn("push send", zap.Int("tokens", len(tokens)), zap.Error(err))
		return
	}

	var invalid []string
	var transient int
	for _, r := range results {
		if r.Invalid {
			invalid = append(invalid, r.Token)
		} else if r.Err != nil {
			transient++
		}
	}
	if transient > 0 {
		s.logger.Debug("push partially failed", zap.Int("transient", transient))
	}
	if len(invalid) == 0 {
		return
	}

	touched, err := s.tokens.PruneEverywhere(ctx, invalid)
	if err != nil {
		s.logger.Warn("prune invalid tokens", zap.Int("tokens", len(invalid)), zap.Error(err))
		return
	}
	metrics.PushTokensPruned.Add(float64(len(invalid)))
	s.logger.Info("pruned invalid device tokens",
		zap.Int("tokens", len(invalid)),
		zap.Int("records", touched))
}

// audienceTokens collects the device tokens of all active members and all
// admins, deduplicated in first-seen order.
func (s *NotificationService) audienceTokens(ctx context.Context) ([]string, error) {
	members, err := s.members.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}

	var tokens []string
	for i := range members {
		tokens = append(tokens, members[i].DeviceTokens...)
	}
	for i := range admins {
		tokens = append(tokens, admins[i].DeviceTokens...)
	}
	return dedupTokens(tokens), nil
}

func dedupTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
