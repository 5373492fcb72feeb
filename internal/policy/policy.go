// Package policy holds the authorization rules for applications, companies
// and payments.
//
// Applicants see and edit their own application; moving it through the
// review workflow, listing and deleting are admin work. Company addresses
// may be managed by anyone whose accepted application names the company.
package policy

import (
	"context"

	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/models"
)

// Resource types registered on the gate.
const (
	ResourceApplication = "application"
	ResourceCompany     = "company"
	ResourcePayment     = "payment"
)

// Ownable is implemented by records that belong to a user.
type Ownable interface {
	GetUserID() uint
}

// CompanyMembership answers whether a user belongs to a company.
type CompanyMembership interface {
	IsInCompanyNumbered(ctx context.Context, u *models.User, number string) (bool, error)
}

// Owns reports whether u owns resource. A resource that does not implement
// Ownable is never owned.
func Owns(u *models.User, resource any) bool {
	o, ok := resource.(Ownable)
	if !ok || u == nil {
		return false
	}
	return o.GetUserID() == u.ID
}

// AdminBypass allows admins everything and defers to inner for everybody
// else.
func AdminBypass(inner gate.Policy[*models.User]) gate.Policy[*models.User] {
	return gate.PolicyFunc[*models.User](func(ctx context.Context, u *models.User, action gate.Action, resource any) bool {
		if u.Admin {
			return true
		}
		return inner.Can(ctx, u, action, resource)
	})
}

// Application: create for any signed-in user, view and update for the owner.
func Application() gate.Policy[*models.User] {
	return AdminBypass(gate.PolicyFunc[*models.User](func(_ context.Context, u *models.User, action gate.Action, resource any) bool {
		switch action {
		case gate.ActionCreate:
			return true
		case gate.ActionView, gate.ActionUpdate:
			return Owns(u, resource)
		}
		return false
	}))
}

// Company lets company members view the company and manage its addresses.
func Company(members CompanyMembership) gate.Policy[*models.User] {
	return AdminBypass(gate.PolicyFunc[*models.User](func(ctx context.Context, u *models.User, action gate.Action, resource any) bool {
		c, ok := resource.(*models.Company)
		if !ok || c == nil {
			return false
		}
		switch action {
		case gate.ActionView, gate.ActionUpdate:
			in, err := members.IsInCompanyNumbered(ctx, u, c.CompanyNumber)
			return err == nil && in
		}
		return false
	}))
}

// Payment lets users pay for themselves and see their own payments. The
// resource is either the paying *models.User or a *models.Payment.
func Payment() gate.Policy[*models.User] {
	return AdminBypass(gate.PolicyFunc[*models.User](func(_ context.Context, u *models.User, action gate.Action, resource any) bool {
		switch action {
		case gate.ActionPay:
			payer, ok := resource.(*models.User)
			return ok && payer != nil && payer.ID == u.ID
		case gate.ActionView:
			return Owns(u, resource)
		}
		return false
	}))
}

// NewGate registers every policy of the service.
func NewGate(members CompanyMembership) *gate.Gate[*models.User] {
	g := gate.New[*models.User]()
	g.Register(ResourceApplication, Application())
	g.Register(ResourceCompany, Company(members))
	g.Register(ResourcePayment, Payment())
	return g
}
