// Package httpx holds the JSON response helpers shared by handlers.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/i18n"
)

const maxBody = 1 << 20

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    apperr.Code       `json:"code,omitempty"`
	Details any               `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type loggerKey struct{}

// WithLogger attaches the logger Error reports internal failures to.
func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// LoggerFromContext returns the request logger, or the logrus standard logger.
func LoggerFromContext(ctx context.Context) logrus.FieldLogger {
	if log, ok := ctx.Value(loggerKey{}).(logrus.FieldLogger); ok && log != nil {
		return log
	}
	return logrus.StandardLogger()
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
		body = b
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error writes err as a JSON error in the request language. Domain errors
// keep their code and status; anything else is logged and answered with 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	lang := i18n.LangFromContext(r.Context())
	if errors.Is(err, gate.ErrUnauthorized) {
		err = apperr.Wrap(apperr.CodeUnauthorized, "forbidden", err)
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		LoggerFromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		JSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: apperr.Localize(err, lang),
			Code:  apperr.CodeUnknown,
		})
		return
	}

	resp := ErrorResponse{Error: apperr.Localize(ae, lang), Code: ae.Code}
	if len(ae.Violations) > 0 {
		resp.Details = apperr.FieldMessages(ae.Violations, lang)
		resp.Fields = ae.Violations
	}
	if ae.Code == apperr.CodeExternalService {
		LoggerFromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Warn("external service failed")
	}
	JSON(w, ae.Code.HTTPStatus(), resp)
}

// Decode reads a JSON body into dst. Unknown fields are rejected.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "malformed request body", err)
	}
	return nil
}

// PathID parses the named path value as a positive id. A bad id is reported
// as not found.
func PathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound(fmt.Sprintf("%s %q", name, raw))
	}
	return uint(id), nil
}
