package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/i18n"
	"github.com/diewo77/go-membership/internal/validation"
)

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusCreated, map[string]int{"id": 4})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":4}`, rr.Body.String())

	rr = httptest.NewRecorder()
	JSON(rr, http.StatusOK, nil)
	assert.Equal(t, "null", rr.Body.String())
}

func request(lang string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ansokan/1", nil)
	return r.WithContext(i18n.WithLang(r.Context(), lang))
}

func requestLogged(lang string, log logrus.FieldLogger) *http.Request {
	r := request(lang)
	return r.WithContext(WithLogger(r.Context(), log))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestError_Mapping(t *testing.T) {
	log, hook := test.NewNullLogger()

	cases := []struct {
		name   string
		err    error
		status int
		code   apperr.Code
	}{
		{"validation", apperr.Validation(validation.Violations{"company_number": validation.CodeInvalid}), 422, apperr.CodeValidation},
		{"transition", apperr.InvalidTransition("accept", "new"), 409, apperr.CodeInvalidTransition},
		{"guard", apperr.GuardRejected("start_review", "new", "guard.already_member"), 409, apperr.CodeGuardRejected},
		{"external", apperr.External("geocoder", errors.New("timeout")), 502, apperr.CodeExternalService},
		{"not found", fmt.Errorf("load: %w", apperr.NotFound("application")), 404, apperr.CodeNotFound},
		{"gate", gate.ErrUnauthorized, 403, apperr.CodeUnauthorized},
		{"plain", errors.New("boom"), 500, apperr.CodeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Error(rr, requestLogged(i18n.English, log), tc.err)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.code, decode(t, rr).Code)
		})
	}
	assert.NotEmpty(t, hook.AllEntries(), "unexpected errors are logged")
}

func TestError_LogsToRequestLogger(t *testing.T) {
	first, firstHook := test.NewNullLogger()
	second, secondHook := test.NewNullLogger()

	Error(httptest.NewRecorder(), requestLogged(i18n.English, first), errors.New("db down"))
	Error(httptest.NewRecorder(), requestLogged(i18n.English, second), errors.New("disk full"))

	require.Len(t, firstHook.AllEntries(), 1)
	require.Len(t, secondHook.AllEntries(), 1)
	assert.EqualError(t, firstHook.LastEntry().Data[logrus.ErrorKey].(error), "db down")
	assert.EqualError(t, secondHook.LastEntry().Data[logrus.ErrorKey].(error), "disk full")
	assert.Equal(t, logrus.StandardLogger(), LoggerFromContext(context.Background()))
}

func TestError_LocalizedFields(t *testing.T) {
	rr := httptest.NewRecorder()
	err := apperr.Validation(validation.Violations{"company_number": validation.CodeWrongLength})
	Error(rr, request(i18n.Swedish), err)

	out := decode(t, rr)
	assert.Equal(t, "Uppgifterna kunde inte sparas", out.Error)
	assert.Equal(t, []any{"Organisationsnummer har fel längd"}, out.Details)
	assert.Equal(t, map[string]string{"company_number": "wrong_length"}, out.Fields)
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, Decode(r, &dst))
	assert.Equal(t, "x", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	err := Decode(r, &dst)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ansokan/12", nil)
	r.SetPathValue("id", "12")
	id, err := PathID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	r.SetPathValue("id", "abc")
	_, err = PathID(r, "id")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	r.SetPathValue("id", "0")
	_, err = PathID(r, "id")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
