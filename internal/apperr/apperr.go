// Package apperr defines the domain error taxonomy shared by services and
// handlers. Errors carry a machine-readable Code; user-facing text is
// produced on demand for an explicit language with Localize.
package apperr

import (
	"bytes"
	"errors"
	"net/http"
	"sort"
	"text/template"

	"github.com/diewo77/go-membership/internal/i18n"
	"github.com/diewo77/go-membership/internal/validation"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeValidation        Code = "VALIDATION_FAILED"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeGuardRejected     Code = "GUARD_REJECTED"
	CodeExternalService   Code = "EXTERNAL_SERVICE"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUnauthorized      Code = "UNAUTHORIZED"
)

// HTTPStatus maps a code onto the status a handler should answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeInvalidTransition, CodeGuardRejected:
		return http.StatusConflict
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type.
type Error struct {
	Code       Code
	Message    string                // internal message, for logs
	Violations validation.Violations // field problems, VALIDATION_FAILED only
	Metadata   map[string]string     // template values for the localized message
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, apperr.ErrGuardRejected).
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrValidation        = &Error{Code: CodeValidation}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition}
	ErrGuardRejected     = &Error{Code: CodeGuardRejected}
	ErrExternalService   = &Error{Code: CodeExternalService}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Validation wraps a non-empty Violations map.
func Validation(v validation.Violations) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Violations: v}
}

// InvalidTransition reports an event fired from a state it does not leave.
func InvalidTransition(event, state string) *Error {
	return WithMetadata(CodeInvalidTransition, "no transition for "+event+" from "+state,
		map[string]string{"event": event, "state": state})
}

// GuardRejected reports a valid from-state whose guard said no. reason is a
// catalog code.
func GuardRejected(event, state, reason string) *Error {
	return WithMetadata(CodeGuardRejected, "guard rejected "+event+" from "+state,
		map[string]string{"event": event, "state": state, "reason": reason})
}

// External wraps a failure of a collaborating service (geocoder, gateway).
func External(service string, cause error) *Error {
	e := Wrap(CodeExternalService, service+" failed", cause)
	e.Metadata = map[string]string{"service": service}
	return e
}

func NotFound(what string) *Error {
	return New(CodeNotFound, what+" not found")
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Localize renders the user-facing message for err in lang.
func Localize(err error, lang string) string {
	var e *Error
	if !errors.As(err, &e) {
		return i18n.T(lang, string(CodeUnknown))
	}
	md := make(map[string]string, len(e.Metadata))
	for k, v := range e.Metadata {
		md[k] = v
	}
	if r, ok := md["reason"]; ok {
		md["reason"] = i18n.T(lang, r)
	}
	if s, ok := md["state"]; ok {
		md["state"] = i18n.T(lang, "state."+s)
	}
	return render(i18n.T(lang, string(e.Code)), md)
}

// FieldMessages renders every violation as "<Field> <message>", sorted by field.
func FieldMessages(v validation.Violations, lang string) []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		code := v[f]
		if code == validation.CodeMailTaken {
			out = append(out, i18n.T(lang, code))
			continue
		}
		out = append(out, i18n.T(lang, "field."+f)+" "+i18n.T(lang, code))
	}
	return out
}

func render(tmpl string, md map[string]string) string {
	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, md); err != nil {
		return tmpl
	}
	return buf.String()
}
