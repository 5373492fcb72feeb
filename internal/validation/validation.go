// Package validation collects field-level problems into a Violations map.
// Values are translation codes rendered through the i18n catalogs.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/diewo77/go-membership/internal/orgnr"
)

// Violation codes.
const (
	CodeRequired    = "required"
	CodeInvalid     = "invalid"
	CodeWrongLength = "wrong_length"
	CodeTaken       = "taken"
	CodeNotIncluded = "inclusion"
	CodeMailTaken   = "mail_taken"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Has reports whether field already carries a violation.
func (v Violations) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// Add records code for field unless the field already has a violation, so
// the first (most basic) problem wins.
func (v Violations) Add(field, code string) {
	if !v.Has(field) {
		v[field] = code
	}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, CodeRequired)
	}
}

func ExactLength(field, value string, n int, v Violations) {
	if value == "" {
		return
	}
	if utf8.RuneCountInString(value) != n {
		v.Add(field, CodeWrongLength)
	}
}

var emailPattern = regexp.MustCompile(`(?i)^([^@\s]+)@((?:[-a-z0-9]+\.)+[a-z]{2,})$`)

func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	if !emailPattern.MatchString(value) {
		v.Add(field, CodeInvalid)
	}
}

// OrgNumber runs the organisation number checksum. It is skipped when the
// field already failed a presence or length check.
func OrgNumber(field, value string, v Violations) {
	if v.Has(field) || value == "" {
		return
	}
	if !orgnr.Valid(value) {
		v.Add(field, CodeInvalid)
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, CodeNotIncluded)
}
