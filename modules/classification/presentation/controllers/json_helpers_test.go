package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/classification/pkg/constants"
	"github.com/iota-uz/classification/pkg/serrors"
)

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var out apiError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestWriteServiceError_BusinessCodes(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{"CATEGORY_AXIS_NOT_FOUND", http.StatusNotFound},
		{"SEGMENT_NOT_FOUND", http.StatusNotFound},
		{"AXIS_CODE_DUPLICATE", http.StatusConflict},
		{"CONCURRENT_UPDATE", http.StatusConflict},
		{"HIERARCHY_DEPTH_EXCEEDED", http.StatusUnprocessableEntity},
		{"CIRCULAR_REFERENCE", http.StatusUnprocessableEntity},
		{"INVALID_ENTITY_KIND", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			err := serrors.NewError(tc.code, "boom", "Classification.Errors.Unused")

			writeServiceError(rec, req, err)

			require.Equal(t, tc.status, rec.Code)
			body := decodeAPIError(t, rec)
			require.Equal(t, tc.code, body.Code)
			require.NotEmpty(t, body.Meta["request_id"])
		})
	}
}

func TestWriteServiceError_WrappedBusinessError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := errors.Wrap(serrors.NewError("SEGMENT_NOT_IN_AXIS", "boom", ""), "upsert")

	writeServiceError(rec, req, err)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "SEGMENT_NOT_IN_AXIS", decodeAPIError(t, rec).Code)
}

func TestWriteServiceError_ValidationFailure(t *testing.T) {
	type input struct {
		AxisCode string `validate:"required,max=50"`
		AxisName string `validate:"required"`
	}
	err := constants.Validate.Struct(input{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	writeServiceError(rec, req, err)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeAPIError(t, rec)
	require.Equal(t, "VALIDATION_FAILED", body.Code)
	require.Contains(t, body.Fields, "AxisCode")
	require.Contains(t, body.Fields, "AxisName")
}

func TestWriteServiceError_UnknownErrorIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeServiceError(rec, req, errors.New("pool exhausted"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeAPIError(t, rec)
	require.Equal(t, "INTERNAL", body.Code)
	require.NotContains(t, body.Message, "pool")
}
