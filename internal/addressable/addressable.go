// Package addressable resolves the owner of an address. An address points
// at its owner through an (OwnerKind, id) pair; each kind registers a
// Handler that knows how to load and describe that owner.
package addressable

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/models"
)

// Owner is a resolved address owner.
type Owner struct {
	Kind  models.OwnerKind
	ID    uint
	Label string
}

// Handler loads owners of one kind.
type Handler interface {
	Resolve(ctx context.Context, db *gorm.DB, id uint) (Owner, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, db *gorm.DB, id uint) (Owner, error)

func (f HandlerFunc) Resolve(ctx context.Context, db *gorm.DB, id uint) (Owner, error) {
	return f(ctx, db, id)
}

// ErrUnknownKind is returned for an owner kind nobody registered.
var ErrUnknownKind = errors.New("addressable: unknown owner kind")

// Registry maps owner kinds to handlers. It is filled at start-up and only
// read afterwards.
type Registry struct {
	handlers map[models.OwnerKind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.OwnerKind]Handler)}
}

// Default returns a registry with every owner kind the application knows.
func Default() *Registry {
	r := NewRegistry()
	r.Register(models.OwnerCompany, HandlerFunc(resolveCompany))
	return r
}

func (r *Registry) Register(kind models.OwnerKind, h Handler) {
	r.handlers[kind] = h
}

// Kinds lists registered kinds, sorted.
func (r *Registry) Kinds() []models.OwnerKind {
	out := make([]models.OwnerKind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve loads the owner. A missing owner is a NOT_FOUND error.
func (r *Registry) Resolve(ctx context.Context, db *gorm.DB, kind models.OwnerKind, id uint) (Owner, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return Owner{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return h.Resolve(ctx, db, id)
}

// Of is a shortcut for resolving the owner of a.
func (r *Registry) Of(ctx context.Context, db *gorm.DB, a *models.Address) (Owner, error) {
	return r.Resolve(ctx, db, a.OwnerKind, a.OwnerID)
}

func resolveCompany(ctx context.Context, db *gorm.DB, id uint) (Owner, error) {
	var c models.Company
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Owner{}, apperr.NotFound("company")
		}
		return Owner{}, err
	}
	label := c.Name
	if label == "" {
		label = c.CompanyNumber
	}
	return Owner{Kind: models.OwnerCompany, ID: c.ID, Label: label}, nil
}
