package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "budgetId", id.String())
	got, err := ParseUUIDParam(req, "budgetId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	bad := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "budgetId", "nope")
	_, err = ParseUUIDParam(bad, "budgetId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePagination(t *testing.T) {
	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), ID: uuid.New()})
	params, err := ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=10&cursor="+cursor, nil))
	require.NoError(t, err)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, cursor, params.Cursor)

	params, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)

	for _, query := range []string{"limit=1000", "limit=0", "limit=ten", "cursor=abc"} {
		_, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/?"+query, nil))
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), query)
	}
}

func TestParseQueryTextTrimsAndCaps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?q=%20%20pastilha%20de%20freio%20%20", nil)
	assert.Equal(t, "pastilha de freio", ParseQueryText(req, "q", 100))
	assert.Equal(t, "pasti", ParseQueryText(req, "q", 5))
	assert.Equal(t, "", ParseQueryText(req, "missing", 5))
}

func TestParseQueryBoolAndUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?low_stock=true&supplier_id=zzz", nil)
	lowStock, err := ParseQueryBool(req, "low_stock")
	require.NoError(t, err)
	assert.True(t, lowStock)

	_, err = ParseQueryUUID(req, "supplier_id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing, err := ParseQueryUUID(req, "vehicle_id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	var body struct {
		Quantity int    `json:"quantity" validate:"gt=0"`
		Note     string `json:"note"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"quantity": "must be greater than 0"}, typed.Details())

	for name, payload := range map[string]string{
		"unknown field": `{"quantity":1,"extra":true}`,
		"trailing data": `{"quantity":1}{"quantity":2}`,
		"wrong type":    `{"quantity":"one"}`,
		"empty":         ``,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation), name)
	}
}

func TestDecodeJSONBodyReportsNestedPaths(t *testing.T) {
	type line struct {
		ProductID string `json:"product_id" validate:"required,uuid"`
		Quantity  int    `json:"quantity" validate:"gt=0"`
	}
	var body struct {
		Lines []line `json:"lines" validate:"required,min=1,dive"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lines":[{"product_id":"x","quantity":2}]}`))
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"lines[0].product_id": "must be a valid uuid"}, typed.Details())
}

type saleLine struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type saleBody struct {
	Lines []saleLine `json:"lines" validate:"required,min=1,dive"`
}

func TestValidateStructStripsNamedRoot(t *testing.T) {
	body := saleBody{Lines: []saleLine{{Quantity: 1}, {Quantity: 0}}}
	typed := pkgerrors.As(ValidateStruct(&body))
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"lines[1].quantity": "must be greater than 0"}, typed.Details())

	typed = pkgerrors.As(ValidateStruct(body))
	require.NotNil(t, typed)
	assert.Contains(t, typed.Details(), "lines[1].quantity")
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	var body struct {
		Note string `json:"note"`
	}
	payload := `{"note":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)), &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
