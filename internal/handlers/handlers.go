// Package handlers exposes the membership services over a small JSON API.
package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/auth"
	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/models"
)

// UserLoader loads the signed-in user.
type UserLoader interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// currentUser returns the user behind the request's session. The routes are
// wrapped in auth.RequireAuth, so a missing user means it was deleted.
func currentUser(r *http.Request, users UserLoader) (*models.User, error) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperr.New(apperr.CodeUnauthorized, "no session")
	}
	u, err := users.Get(r.Context(), uid)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthorized, "session user", err)
	}
	return u, nil
}

// authorize loads the current user and checks action on resource.
func authorize(r *http.Request, users UserLoader, g *gate.Gate[*models.User], action gate.Action, resourceType string, resource any) (*models.User, error) {
	u, err := currentUser(r, users)
	if err != nil {
		return nil, err
	}
	if err := g.Authorize(r.Context(), u, action, resourceType, resource); err != nil {
		return nil, err
	}
	return u, nil
}
