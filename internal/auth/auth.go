// Package auth reads the signed session cookie issued by the login service
// and puts the user id on the request context.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/httpx"
	"github.com/diewo77/go-membership/internal/i18n"
)

type ctxKey string

const (
	CookieName   = "session"
	userIDCtxKey = ctxKey("userID")
	sessionTTL   = 14 * 24 * time.Hour
)

// UserVerifier reports whether the session's user still exists.
type UserVerifier func(ctx context.Context, uid uint) bool

type Sessions struct {
	secret   []byte
	verifier UserVerifier
}

// NewSessions returns a cookie codec signed with secret. verifier may be nil.
func NewSessions(secret string, verifier UserVerifier) *Sessions {
	return &Sessions{secret: []byte(secret), verifier: verifier}
}

func (s *Sessions) sign(uidStr string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(uidStr))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Value returns the cookie value for userID.
func (s *Sessions) Value(userID uint) string {
	uidStr := strconv.FormatUint(uint64(userID), 10)
	return uidStr + "." + s.sign(uidStr)
}

// Set writes the session cookie for userID.
func (s *Sessions) Set(w http.ResponseWriter, userID uint) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Value(userID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// Parse validates the session cookie and returns the user id.
func (s *Sessions) Parse(r *http.Request) (uint, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	uidStr, sig, ok := strings.Cut(c.Value, ".")
	if !ok || strings.Contains(sig, ".") {
		return 0, false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(uidStr))) {
		return 0, false
	}
	id64, err := strconv.ParseUint(uidStr, 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// Middleware attaches the user id to the request context when the cookie is
// valid. Requests without a session pass through.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := s.Parse(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless the request carries a session for a user
// that still exists.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if ok && s.verifier != nil && !s.verifier(r.Context(), uid) {
			s.Clear(w)
			ok = false
		}
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, i18n.T(i18n.LangFromContext(r.Context()), string(apperr.CodeUnauthorized)), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
