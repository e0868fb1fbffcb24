package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"seatserve/internal/model"
)

// Notifier receives alert events emitted by business operations.
// Implementations must be best-effort: a lost or failed delivery never
// surfaces to the operation that emitted the event.
type Notifier interface {
	Notify(ctx context.Context, ev model.AlertEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, model.AlertEvent) {}

// AsyncNotifier dispatches each event on its own goroutine so the emitting
// request never waits on alert persistence or push delivery. The caller's
// context is deliberately not reused: the request may finish and cancel it
// before the dispatch completes.
type AsyncNotifier struct {
	svc     *NotificationService
	timeout time.Duration
	logger  *zap.Logger
}

func NewAsyncNotifier(svc *NotificationService, timeout time.Duration, logger *zap.Logger) *AsyncNotifier {
	return &AsyncNotifier{svc: svc, timeout: timeout, logger: logger}
}

func (n *AsyncNotifier) Notify(_ context.Context, ev model.AlertEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.svc.HandleEvent(ctx, ev); err != nil {
			n.logger.Warn("dispatch alert event",
				zap.String("event_type", ev.Type),
				zap.String("member_id", ev.MemberID),
				zap.Error(err))
		}
	}()
}
