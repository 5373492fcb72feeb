package handlers

import (
	"net/http"

	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/httpx"
	"github.com/diewo77/go-membership/internal/models"
	"github.com/diewo77/go-membership/internal/policy"
	"github.com/diewo77/go-membership/internal/services"
)

type AddressHandler struct {
	addresses *services.AddressService
	companies *services.CompanyService
	users     UserLoader
	gate      *gate.Gate[*models.User]
}

func NewAddressHandler(addresses *services.AddressService, companies *services.CompanyService, users UserLoader, g *gate.Gate[*models.User]) *AddressHandler {
	return &AddressHandler{addresses: addresses, companies: companies, users: users, gate: g}
}

type addressRequest struct {
	StreetAddress string `json:"street_address"`
	PostCode      string `json:"post_code"`
	City          string `json:"city"`
	Country       string `json:"country"`
	RegionID      *uint  `json:"region_id"`
	KommunID      *uint  `json:"kommun_id"`
	Visibility    string `json:"visibility"`
	Mail          bool   `json:"mail"`
}

func (req addressRequest) input(companyID uint) services.AddressInput {
	return services.AddressInput{
		OwnerKind:     models.OwnerCompany,
		OwnerID:       companyID,
		StreetAddress: req.StreetAddress,
		PostCode:      req.PostCode,
		City:          req.City,
		Country:       req.Country,
		RegionID:      req.RegionID,
		KommunID:      req.KommunID,
		Visibility:    req.Visibility,
		Mail:          req.Mail,
	}
}

// company loads {company_id} and checks action on it.
func (h *AddressHandler) company(r *http.Request, action gate.Action) (*models.Company, error) {
	id, err := httpx.PathID(r, "company_id")
	if err != nil {
		return nil, err
	}
	c, err := h.companies.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if _, err := authorize(r, h.users, h.gate, action, policy.ResourceCompany, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := h.company(r, gate.ActionView)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	out, err := h.addresses.ForOwner(r.Context(), models.OwnerCompany, c.ID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := h.company(r, gate.ActionUpdate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req addressRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	a, err := h.addresses.Create(r.Context(), req.input(c.ID))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := h.company(r, gate.ActionUpdate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req addressRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	a, err := h.addresses.Update(r.Context(), id, req.input(c.ID))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}
