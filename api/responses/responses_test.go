package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/types"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) types.Problem {
	t.Helper()
	var body types.ProblemEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestWriteSuccessWrapsData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"sku": "BRK-001"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var body types.DataEnvelope[map[string]string]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "BRK-001", body.Data["sku"])
}

func TestWriteErrorInsufficientStockKeepsDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for Brake Pad").
		WithDetails(map[string]any{"requested": 3, "available": 1})
	WriteError(context.Background(), nil, w, err)

	assert.Equal(t, http.StatusConflict, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, string(pkgerrors.CodeInsufficientStock), problem.Code)
	assert.Equal(t, "insufficient stock for Brake Pad", problem.Message)
	details, ok := problem.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), details["available"])
}

func TestWriteErrorHidesIntegrityMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeIntegrity, "sale_lines_position_unique"))

	assert.Equal(t, "request could not be completed", decodeProblem(t, w).Message)
}

func TestWriteErrorDefaultsToInternalForUntypedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, string(pkgerrors.CodeInternal), problem.Code)
	assert.Nil(t, problem.Details)
	assert.NotContains(t, problem.Message, "boom")
}

func TestWriteErrorEchoesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set(RequestIDHeader, "req-42")
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "budget not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-42", decodeProblem(t, w).RequestID)
}
