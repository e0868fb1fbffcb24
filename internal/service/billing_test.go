package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatserve/internal/errs"
	"seatserve/internal/model"
)

func TestRecordPaymentExtendsFromFutureDueDate(t *testing.T) {
	f := newFixture(t)
	m := f.register(t, 1, model.ShiftMorning)
	due := *m.NextDueDate
	ctx := context.Background()

	rec, err := f.billing.RecordPayment(ctx, m.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: model.MethodUPI, MonthsCovered: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rs. 600", rec.Amount)
	assert.True(t, strings.HasPrefix(rec.TransactionID, "TXN-"))

	got, err := f.membership.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FeePaid, got.FeeStatus)
	assert.Zero(t, got.AmountDue)
	// Paying before the due date keeps the already-covered month.
	assert.Equal(t, due.AddDate(0, 1, 0), *got.NextDueDate)
	require.Len(t, got.PaymentHistory, 1)
	assert.Equal(t, rec.ID, got.PaymentHistory[0].ID)
	assert.True(t, f.events.hasType(model.EventPaymentReceived))
}

func TestRecordPaymentLateAnchorsAtToday(t *testing.T) {
	f := newFixture(t)
	m := f.register(t, 1, model.ShiftMorning)
	ctx := context.Background()

	// Three days overdue, still inside the grace period.
	f.clock.Set(m.NextDueDate.Add(3 * 24 * time.Hour))

	_, err := f.billing.RecordPayment(ctx, m.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: model.MethodCash, MonthsCovered: 2,
	})
	require.NoError(t, err)

	got, err := f.membership.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FeePaid, got.FeeStatus)
	assert.Equal(t, f.clock.Now().AddDate(0, 2, 0), *got.NextDueDate)
}

func TestRecordPaymentAfterGraceIsRejected(t *testing.T) {
	f := newFixture(t)
	m := f.register(t, 1, model.ShiftMorning)
	ctx := context.Background()

	// Past the grace period the deactivation runs first, inside the same
	// write, and the payment fails instead of reviving the membership.
	f.clock.Set(m.NextDueDate.Add(6 * 24 * time.Hour))

	_, err := f.billing.RecordPayment(ctx, m.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: model.MethodCash, MonthsCovered: 1,
	})
	assert.True(t, errs.Is(err, errs.KindState), "got %v", err)

	got, err := f.membership.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLeft, got.ActivityStatus)
	assert.Empty(t, got.PaymentHistory)
}

func TestRecordPaymentForLeftMemberRejected(t *testing.T) {
	f := newFixture(t)
	m := f.register(t, 1, model.ShiftMorning)
	ctx := context.Background()

	_, err := f.membership.MarkAsLeft(ctx, m.ID)
	require.NoError(t, err)

	_, err = f.billing.RecordPayment(ctx, m.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: model.MethodCash, MonthsCovered: 1,
	})
	assert.True(t, errs.Is(err, errs.KindState))
}

func TestRecordPaymentUnknownMember(t *testing.T) {
	f := newFixture(t)
	_, err := f.billing.RecordPayment(context.Background(), "ghost", &model.RecordPaymentRequest{
		Amount: 600, Method: model.MethodCash, MonthsCovered: 1,
	})
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestMonthlyRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.register(t, 1, model.ShiftMorning)
	m2 := f.register(t, 2, model.ShiftEvening)

	// Two payments in August 2026.
	_, err := f.billing.RecordPayment(ctx, m1.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: model.MethodCash, MonthsCovered: 1,
	})
	require.NoError(t, err)
	_, err = f.billing.RecordPayment(ctx, m2.ID, &model.RecordPaymentRequest{
		Amount: 1200, Method: model.MethodUPI, MonthsCovered: 2,
	})
	require.NoError(t, err)

	// One payment in September.
	f.clock.Set(time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC))
	_, err = f.billing.RecordPayment(ctx, m1.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: model.MethodCard, MonthsCovered: 1,
	})
	require.NoError(t, err)

	// A historical entry with an unparseable amount contributes zero.
	_, err = f.members.Mutate(ctx, m1.ID, func(m *model.Member) error {
		m.PaymentHistory = append(m.PaymentHistory, model.PaymentRecord{
			ID:     "legacy",
			Date:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			Amount: "waived",
			Method: model.MethodCash,
		})
		return nil
	})
	require.NoError(t, err)

	aug, err := f.billing.MonthlyRevenue(ctx, 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, 1800, aug.Total)
	assert.Equal(t, 3, aug.Payments)

	sep, err := f.billing.MonthlyRevenue(ctx, 2026, time.September)
	require.NoError(t, err)
	assert.Equal(t, 600, sep.Total)
	assert.Equal(t, 1, sep.Payments)

	jul, err := f.billing.MonthlyRevenue(ctx, 2026, time.July)
	require.NoError(t, err)
	assert.Zero(t, jul.Total)
}
