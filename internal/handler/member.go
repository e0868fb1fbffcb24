package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"seatserve/internal/httputil"
	"seatserve/internal/model"
	"seatserve/internal/service"
)

type MemberHandler struct {
	membership *service.MembershipService
	logger     *zap.Logger
}

func NewMemberHandler(membership *service.MembershipService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{membership: membership, logger: logger}
}

func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterMemberRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	m, err := h.membership.Register(r.Context(), &req)
	if err != nil {
		h.logger.Warn("register member", zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.membership.ListMembers(r.Context())
	if err != nil {
		h.logger.Error("list members", zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.membership.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req model.EditMemberRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	m, err := h.membership.Edit(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.logger.Warn("edit member", zap.String("member_id", chi.URLParam(r, "id")), zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) MarkAsLeft(w http.ResponseWriter, r *http.Request) {
	m, err := h.membership.MarkAsLeft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	var req model.ReactivateMemberRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	m, err := h.membership.Reactivate(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

// AvailableSeats reports the free seats for a shift. Pass exclude_member to
// recompute for an existing member's edit.
func (h *MemberHandler) AvailableSeats(w http.ResponseWriter, r *http.Request) {
	shift, err := model.ParseShift(r.URL.Query().Get("shift"))
	if err != nil {
		httputil.WriteBadRequest(w, "query parameter 'shift' must be morning, evening or fullday")
		return
	}

	seats, err := h.membership.AvailableSeats(r.Context(), shift, r.URL.Query().Get("exclude_member"))
	if err != nil {
		h.logger.Error("available seats", zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shift": shift,
		"seats": seats,
	})
}
