package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iota-uz/classification/pkg/intl"
	"github.com/iota-uz/classification/pkg/serrors"
)

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		panic(err)
	}
}

func ensureRequestID(w http.ResponseWriter, r *http.Request) string {
	requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if requestID == "" {
		requestID = uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
	}
	return requestID
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	writeJSON(w, status, apiError{
		Code:    code,
		Message: message,
		Meta:    map[string]string{"request_id": ensureRequestID(w, r)},
	})
}

// statusForCode maps business error codes onto HTTP statuses. Absent
// codes fall through to 500 in writeServiceError.
var statusForCode = map[string]int{
	"CATEGORY_AXIS_NOT_FOUND":    http.StatusNotFound,
	"SEGMENT_NOT_FOUND":          http.StatusNotFound,
	"PARENT_SEGMENT_NOT_FOUND":   http.StatusNotFound,
	"ASSIGNMENT_NOT_FOUND":       http.StatusNotFound,
	"ENTITY_NOT_FOUND":           http.StatusNotFound,
	"AXIS_CODE_DUPLICATE":        http.StatusConflict,
	"SEGMENT_CODE_DUPLICATE":     http.StatusConflict,
	"CONCURRENT_UPDATE":          http.StatusConflict,
	"HIERARCHY_NOT_SUPPORTED":    http.StatusUnprocessableEntity,
	"HIERARCHY_NOT_ALLOWED":      http.StatusUnprocessableEntity,
	"PARENT_SEGMENT_WRONG_AXIS":  http.StatusUnprocessableEntity,
	"CIRCULAR_REFERENCE":         http.StatusUnprocessableEntity,
	"HIERARCHY_DEPTH_EXCEEDED":   http.StatusUnprocessableEntity,
	"INVALID_ENTITY_KIND":        http.StatusUnprocessableEntity,
	"SEGMENT_NOT_IN_AXIS":        http.StatusUnprocessableEntity,
	"ENTITY_KIND_NOT_SUPPORTED":  http.StatusUnprocessableEntity,
}

// writeServiceError renders a service failure: typed business errors
// keep their code and get localized when a localizer is present,
// validation failures become 422, everything else is an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var base *serrors.BaseError
	if errors.As(err, &base) {
		status, ok := statusForCode[base.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		message := base.Message
		if l, ok := intl.UseLocalizer(r.Context()); ok {
			if localized := strings.TrimSpace(base.Localize(l)); localized != "" {
				message = localized
			}
		}
		writeAPIError(w, r, status, base.Code, message)
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fieldErrors := serrors.ProcessValidatorErrors(validationErrs, func(string) string { return "" })
		fields := make(map[string]string, len(fieldErrors))
		if l, ok := intl.UseLocalizer(r.Context()); ok {
			fields = serrors.LocalizeValidationErrors(fieldErrors, l)
		} else {
			for field, fieldErr := range fieldErrors {
				fields[field] = fieldErr.Message
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, apiError{
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
			Fields:  fields,
			Meta:    map[string]string{"request_id": ensureRequestID(w, r)},
		})
		return
	}

	writeAPIError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return false
	}
	return true
}
