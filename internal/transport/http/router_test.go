package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seatserve/internal/handler"
	"seatserve/internal/model"
	"seatserve/internal/repository"
	"seatserve/internal/service"
	"seatserve/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	st := store.NewMemStore()
	members := repository.NewMemberRepository(st)
	sessions := repository.NewAttendanceRepository(st)
	alerts := repository.NewAlertRepository(st)
	admins := repository.NewAdminRepository(st)
	tokens := repository.NewTokenRepository(st, members, admins)

	logger := zap.NewNop()
	notifications := service.NewNotificationService(alerts, members, admins, tokens, nil, logger)
	notifier := service.NopNotifier{}

	fees := map[model.Shift]int{
		model.ShiftMorning: 600,
		model.ShiftEvening: 600,
		model.ShiftFullday: 1000,
	}
	seats := service.NewSeatAllocator([]int{1, 2, 3})
	membership := service.NewMembershipService(members, seats, fees, model.DefaultPolicy(), notifier, logger)
	billing := service.NewBillingService(members, model.DefaultPolicy(), notifier, logger)
	attendance := service.NewAttendanceService(sessions, membership, model.DefaultShiftWindows(), notifier, logger)

	return NewRouter(RouterConfig{
		MemberHandler:     handler.NewMemberHandler(membership, logger),
		BillingHandler:    handler.NewBillingHandler(billing, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendance, logger),
		AlertHandler:      handler.NewAlertHandler(notifications, logger),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndFetchMember(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/members", map[string]any{
		"name":  "Asha",
		"phone": "9876543210",
		"shift": "morning",
		"seat":  2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.FeeDue, created.FeeStatus)

	rec = doJSON(t, router, http.MethodGet, "/members/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same seat, overlapping shift: conflict.
	rec = doJSON(t, router, http.MethodPost, "/members", map[string]any{
		"name":  "Ravi",
		"phone": "9876500000",
		"shift": "fullday",
		"seat":  2,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing required fields: bad request.
	rec = doJSON(t, router, http.MethodPost, "/members", map[string]any{"name": "NoPhone"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailableSeatsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/members", map[string]any{
		"name": "Asha", "phone": "1", "shift": "morning", "seat": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/members/available-seats?shift=morning", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Seats []int `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int{2, 3}, resp.Seats)

	rec = doJSON(t, router, http.MethodGet, "/members/available-seats?shift=brunch", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/members", map[string]any{
		"name": "Asha", "phone": "1", "shift": "fullday", "seat": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var m model.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))

	rec = doJSON(t, router, http.MethodPost, "/attendance/checkin", map[string]any{"member_id": m.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session model.AttendanceSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	// Second check-in while open is rejected as an invalid state.
	rec = doJSON(t, router, http.MethodPost, "/attendance/checkin", map[string]any{"member_id": m.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/attendance/%s/checkout", session.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/members/"+m.ID+"/attendance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentAndRevenueEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/members", map[string]any{
		"name": "Asha", "phone": "1", "shift": "evening", "seat": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var m model.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))

	rec = doJSON(t, router, http.MethodPost, "/members/"+m.ID+"/payments", map[string]any{
		"amount": 600, "method": "upi", "months_covered": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payment model.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	assert.Equal(t, "Rs. 600", payment.Amount)

	rec = doJSON(t, router, http.MethodGet, "/revenue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var revenue struct {
		Total    int `json:"total"`
		Payments int `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revenue))
	assert.Equal(t, 600, revenue.Total)
	assert.Equal(t, 1, revenue.Payments)

	// Unknown payment method fails validation.
	rec = doJSON(t, router, http.MethodPost, "/members/"+m.ID+"/payments", map[string]any{
		"amount": 600, "method": "barter", "months_covered": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/members", map[string]any{
		"name": "Asha", "phone": "1", "shift": "morning", "seat": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var m model.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))

	rec = doJSON(t, router, http.MethodPost, "/alerts", map[string]any{
		"title": "Holiday", "body": "Closed on Monday",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var broadcast model.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &broadcast))

	rec = doJSON(t, router, http.MethodGet, "/members/"+m.ID+"/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Alerts []model.AlertView `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Alerts, 1)
	assert.False(t, feed.Alerts[0].Read)

	rec = doJSON(t, router, http.MethodPost, "/members/"+m.ID+"/alerts/"+broadcast.ID+"/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/members/"+m.ID+"/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Alerts, 1)
	assert.True(t, feed.Alerts[0].Read)

	rec = doJSON(t, router, http.MethodPost, "/members/"+m.ID+"/tokens", map[string]any{"token": "tok-1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
