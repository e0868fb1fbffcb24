package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"seatserve/internal/httputil"
	"seatserve/internal/model"
	"seatserve/internal/service"
)

type BillingHandler struct {
	billing *service.BillingService
	logger  *zap.Logger
}

func NewBillingHandler(billing *service.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, logger: logger}
}

func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req model.RecordPaymentRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	memberID := chi.URLParam(r, "id")
	rec, err := h.billing.RecordPayment(r.Context(), memberID, &req)
	if err != nil {
		h.logger.Warn("record payment", zap.String("member_id", memberID), zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// MonthlyRevenue reports total collected amounts for ?year=2026&month=8.
// Defaults to the current month.
func (h *BillingHandler) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "query parameter 'year' must be a number")
			return
		}
		year = v
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			httputil.WriteBadRequest(w, "query parameter 'month' must be 1-12")
			return
		}
		month = v
	}

	summary, err := h.billing.MonthlyRevenue(r.Context(), year, time.Month(month))
	if err != nil {
		h.logger.Error("monthly revenue", zap.Error(err))
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"year":     year,
		"month":    month,
		"total":    summary.Total,
		"payments": summary.Payments,
	})
}
