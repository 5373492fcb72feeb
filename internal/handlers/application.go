package handlers

import (
	"net/http"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/httpx"
	"github.com/diewo77/go-membership/internal/i18n"
	"github.com/diewo77/go-membership/internal/models"
	"github.com/diewo77/go-membership/internal/policy"
	"github.com/diewo77/go-membership/internal/services"
)

// eventSlugs maps the URL segment onto the review event.
var eventSlugs = map[string]services.ApplicationEvent{
	"start-review":     services.EventStartReview,
	"need-info":        services.EventAskApplicantForInfo,
	"cancel-need-info": services.EventCancelWaitingForApplicant,
	"ready-for-review": services.EventIsReadyForReview,
	"accept":           services.EventAccept,
	"reject":           services.EventReject,
}

type ApplicationHandler struct {
	apps  *services.ApplicationService
	users UserLoader
	gate  *gate.Gate[*models.User]
}

func NewApplicationHandler(apps *services.ApplicationService, users UserLoader, g *gate.Gate[*models.User]) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, users: users, gate: g}
}

type applicationRequest struct {
	CompanyNumber       string `json:"company_number"`
	PhoneNumber         string `json:"phone_number"`
	ContactEmail        string `json:"contact_email"`
	BusinessCategoryIDs []uint `json:"business_category_ids"`
}

type waitingRequest struct {
	WaitingReasonID  *uint  `json:"waiting_reason_id"`
	CustomReasonText string `json:"custom_reason_text"`
}

type applicationResponse struct {
	*models.MembershipApplication
	StateName string                      `json:"state_name"`
	Permitted []services.ApplicationEvent `json:"permitted_events,omitempty"`
}

func (h *ApplicationHandler) respond(w http.ResponseWriter, r *http.Request, status int, app *models.MembershipApplication, u *models.User) {
	resp := applicationResponse{
		MembershipApplication: app,
		StateName:             i18n.T(i18n.LangFromContext(r.Context()), "state."+string(app.State)),
	}
	if h.gate.Can(r.Context(), u, gate.ActionTransition, policy.ResourceApplication, app) {
		resp.Permitted = h.apps.Permitted(r.Context(), app)
	}
	httpx.JSON(w, status, resp)
}

// Create submits an application for the signed-in user.
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := authorize(r, h.users, h.gate, gate.ActionCreate, policy.ResourceApplication, nil)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req applicationRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	app, err := h.apps.Submit(r.Context(), services.ApplicationInput{
		UserID:              u.ID,
		CompanyNumber:       req.CompanyNumber,
		PhoneNumber:         req.PhoneNumber,
		ContactEmail:        req.ContactEmail,
		BusinessCategoryIDs: req.BusinessCategoryIDs,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, app, u)
}

// List is admin only. ?open=1 hides decided applications.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := authorize(r, h.users, h.gate, gate.ActionList, policy.ResourceApplication, nil); err != nil {
		httpx.Error(w, r, err)
		return
	}
	apps, err := h.apps.List(r.Context(), r.URL.Query().Get("open") != "")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Show(w http.ResponseWriter, r *http.Request) {
	app, u, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, app, u)
}

// Transition fires the event named by the {event} path segment.
func (h *ApplicationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	event, known := eventSlugs[r.PathValue("event")]
	if !known {
		httpx.Error(w, r, apperr.NotFound("event "+r.PathValue("event")))
		return
	}
	app, u, ok := h.load(w, r, gate.ActionTransition)
	if !ok {
		return
	}

	var err error
	if event == services.EventAskApplicantForInfo {
		var req waitingRequest
		if r.ContentLength != 0 {
			if err := httpx.Decode(r, &req); err != nil {
				httpx.Error(w, r, err)
				return
			}
		}
		app, err = h.apps.AskForInfo(r.Context(), app.ID, services.WaitingInfo{
			ReasonID:   req.WaitingReasonID,
			CustomText: req.CustomReasonText,
		})
	} else {
		app, err = h.apps.Fire(r.Context(), app.ID, event)
	}
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, app, u)
}

func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	app, _, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.apps.Delete(r.Context(), app.ID); err != nil {
		httpx.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load reads {id} and checks action on it. It writes the error response
// itself and reports whether the caller may continue.
func (h *ApplicationHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.MembershipApplication, *models.User, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return nil, nil, false
	}
	app, err := h.apps.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return nil, nil, false
	}
	u, err := authorize(r, h.users, h.gate, action, policy.ResourceApplication, app)
	if err != nil {
		httpx.Error(w, r, err)
		return nil, nil, false
	}
	return app, u, true
}
