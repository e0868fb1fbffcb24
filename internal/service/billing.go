package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"seatserve/internal/metrics"
	"seatserve/internal/model"
	"seatserve/internal/repository"
)

// BillingService records payments against the member ledger and aggregates
// revenue. All fee state lives on the member record; there is no separate
// invoice store.
type BillingService struct {
	members  repository.MemberRepository
	policy   model.LifecyclePolicy
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewBillingService(members repository.MemberRepository, policy model.LifecyclePolicy, notifier Notifier, logger *zap.Logger) *BillingService {
	return &BillingService{
		members:  members,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RevenueSummary is the aggregation result for one calendar period.
type RevenueSummary struct {
	Total    int `json:"total"`
	Payments int `json:"payments"`
}

// RecordPayment appends an immutable payment record and advances the
// member's due date by the covered months. The time-driven transitions run
// first inside the same write, so a member past the grace period is
// deactivated before the payment applies and the call fails with a state
// error instead of silently reviving them.
func (s *BillingService) RecordPayment(ctx context.Context, memberID string, req *model.RecordPaymentRequest) (*model.PaymentRecord, error) {
	now := s.now()
	rec := model.PaymentRecord{
		ID:            uuid.NewString(),
		Date:          now,
		Amount:        fmt.Sprintf("Rs. %d", req.Amount),
		Method:        req.Method,
		TransactionID: newTransactionID(now),
	}

	m, err := s.members.Mutate(ctx, memberID, func(m *model.Member) error {
		model.Refresh(m, now, s.policy)
		if err := model.ApplyPayment(m, now, req.MonthsCovered); err != nil {
			return err
		}
		m.PaymentHistory = append(m.PaymentHistory, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.LifecycleTransitions.WithLabelValues("payment").Inc()
	s.logger.Info("payment recorded",
		zap.String("member_id", memberID),
		zap.Int("amount", req.Amount),
		zap.String("method", req.Method),
		zap.Int("months", req.MonthsCovered))

	s.notifier.Notify(ctx, model.NewPaymentReceivedEvent(m, rec))
	return &rec, nil
}

// MonthlyRevenue sums the ledger entries dated inside the given calendar
// month across every member, including those who have since left. Malformed
// amount strings count as zero rather than failing the report.
func (s *BillingService) MonthlyRevenue(ctx context.Context, year int, month time.Month) (*RevenueSummary, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RevenueSummary{}
	for i := range members {
		for _, rec := range members[i].PaymentHistory {
			if rec.Date.Year() == year && rec.Date.Month() == month {
				summary.Total += model.ParseAmount(rec.Amount)
				summary.Payments++
			}
		}
	}
	return summary, nil
}

// newTransactionID builds a reference unique enough for receipts: millisecond
// timestamp plus a short random suffix.
func newTransactionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}
