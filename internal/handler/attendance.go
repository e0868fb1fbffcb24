package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"seatserve/internal/httputil"
	"seatserve/internal/model"
	"seatserve/internal/service"
)

type AttendanceHandler struct {
	attendance *service.AttendanceService
	logger     *zap.Logger
}

func NewAttendanceHandler(attendance *service.AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, logger: logger}
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	session, err := h.attendance.CheckIn(r.Context(), req.MemberID)
	if err != nil {
		h.logger.Warn("check in", zap.String("member_id", req.MemberID), zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	session, err := h.attendance.CheckOut(r.Context(), sessionID)
	if err != nil {
		h.logger.Warn("check out", zap.String("session_id", sessionID), zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *AttendanceHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.attendance.OpenSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// MemberSummary returns the member's sessions and total time for
// ?from=2026-08-01&to=2026-08-31. Defaults to the last 30 days.
func (h *AttendanceHandler) MemberSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from, to := now.AddDate(0, 0, -30), now

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteBadRequest(w, "query parameter 'from' must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteBadRequest(w, "query parameter 'to' must be YYYY-MM-DD")
			return
		}
		// Inclusive day: extend to its last instant.
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	summary, err := h.attendance.MemberSummary(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
