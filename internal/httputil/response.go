package httputil

import (
	"encoding/json"
	"net/http"

	"seatserve/internal/errs"
)

// Error codes returned in the error envelope.
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeState      = "INVALID_STATE"
	ErrCodeUpstream   = "UPSTREAM_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine code and human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent; nothing left to do.
			return
		}
	}
}

// WriteError writes the error envelope:
// {"error": {"code": "ERROR_CODE", "message": "Human readable message"}}
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteBadRequest writes a 400 Bad Request error.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteServiceError maps a service error to its HTTP representation by kind.
// Validation failures read back their message; state and conflict errors keep
// their message too since they describe the caller's mistake. External
// failures hide the cause behind a generic upstream error.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errs.KindNotFound:
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errs.KindConflict:
		WriteError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errs.KindState:
		WriteError(w, http.StatusUnprocessableEntity, ErrCodeState, err.Error())
	case errs.KindExternal:
		WriteError(w, http.StatusBadGateway, ErrCodeUpstream, "upstream dependency failed")
	default:
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
