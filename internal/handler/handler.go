// Package handler holds the HTTP handlers. Handlers stay thin: decode,
// validate, call the service, map the result. Business rules live below.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeAndValidate parses the JSON body into dst and runs its validation
// tags. The returned message is safe to echo to the caller.
func decodeAndValidate(r *http.Request, dst interface{}) (string, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "invalid JSON body", false
	}
	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return "invalid field: " + verrs[0].Field(), false
		}
		return "invalid request body", false
	}
	return "", true
}
