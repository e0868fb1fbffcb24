package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"seatserve/internal/httputil"
	"seatserve/internal/model"
	"seatserve/internal/service"
)

type AlertHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewAlertHandler(notifications *service.NotificationService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{notifications: notifications, logger: logger}
}

// Dispatch sends an admin announcement, targeted when member_id is set and
// broadcast otherwise.
func (h *AlertHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req model.DispatchAlertRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	var a *model.Alert
	var err error
	if req.MemberID == "" {
		a, err = h.notifications.DispatchBroadcast(r.Context(), model.AlertTypeAnnouncement, req.Title, req.Body, nil)
	} else {
		a, err = h.notifications.DispatchTargeted(r.Context(), req.MemberID, model.AlertTypeAnnouncement, req.Title, req.Body, nil)
	}
	if err != nil {
		h.logger.Warn("dispatch alert", zap.String("member_id", req.MemberID), zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *AlertHandler) ListForMember(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 200 {
			httputil.WriteBadRequest(w, "query parameter 'limit' must be 1-200")
			return
		}
		limit = v
	}

	views, err := h.notifications.ListForMember(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"alerts": views})
}

func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "id")
	alertID := chi.URLParam(r, "alertId")
	if err := h.notifications.MarkRead(r.Context(), memberID, alertID); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AlertHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterTokenRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	if err := h.notifications.RegisterToken(r.Context(), chi.URLParam(r, "id"), req.Token); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AlertHandler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterTokenRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	if err := h.notifications.RemoveToken(r.Context(), chi.URLParam(r, "id"), req.Token); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
