package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/httpx"
	"github.com/diewo77/go-membership/internal/models"
	"github.com/diewo77/go-membership/internal/policy"
	"github.com/diewo77/go-membership/internal/services"
	"github.com/diewo77/go-membership/internal/validation"
)

// WebhookTokenHeader carries the shared secret on gateway callbacks.
const WebhookTokenHeader = "X-Webhook-Token"

type PaymentHandler struct {
	payments     *services.PaymentService
	users        *services.UserService
	gate         *gate.Gate[*models.User]
	webhookToken string
	log          logrus.FieldLogger
}

func NewPaymentHandler(payments *services.PaymentService, users *services.UserService, g *gate.Gate[*models.User], webhookToken string, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{payments: payments, users: users, gate: g, webhookToken: webhookToken, log: log}
}

type paymentRequest struct {
	CompanyID *uint  `json:"company_id"`
	HipsID    string `json:"hips_id"`
}

type paymentResponse struct {
	*models.Payment
	StartDate  string `json:"start_date"`
	ExpireDate string `json:"expire_date"`
}

func newPaymentResponse(p *models.Payment) paymentResponse {
	return paymentResponse{
		Payment:    p,
		StartDate:  p.StartDate.Format(time.DateOnly),
		ExpireDate: p.ExpireDate.Format(time.DateOnly),
	}
}

// Create starts a payment of {type} for {user_id}. The period it covers is
// computed from the user's (or company's) previous paid periods.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	payerID, err := httpx.PathID(r, "user_id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	payer, err := h.users.Get(r.Context(), payerID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	u, err := authorize(r, h.users, h.gate, gate.ActionPay, policy.ResourcePayment, payer)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req paymentRequest
	if r.ContentLength != 0 {
		if err := httpx.Decode(r, &req); err != nil {
			httpx.Error(w, r, err)
			return
		}
	}

	paymentType := r.PathValue("type")
	switch paymentType {
	case models.PaymentTypeMember:
		allowed, err := h.users.AllowPayMemberFee(r.Context(), payer)
		if err != nil {
			httpx.Error(w, r, err)
			return
		}
		if !allowed {
			httpx.Error(w, r, apperr.New(apperr.CodeUnauthorized, "member fee not payable yet"))
			return
		}
	case models.PaymentTypeBranding:
		if req.CompanyID != nil && !u.Admin {
			companies, err := h.users.Companies(r.Context(), payer)
			if err != nil {
				httpx.Error(w, r, err)
				return
			}
			if !containsCompany(companies, *req.CompanyID) {
				httpx.Error(w, r, apperr.Validation(validation.Violations{"company_id": validation.CodeNotIncluded}))
				return
			}
		}
	}

	p, err := h.payments.Create(r.Context(), services.PaymentInput{
		UserID:      payer.ID,
		PaymentType: paymentType,
		CompanyID:   req.CompanyID,
		HipsID:      req.HipsID,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newPaymentResponse(p))
}

func containsCompany(companies []models.Company, id uint) bool {
	for _, c := range companies {
		if c.ID == id {
			return true
		}
	}
	return false
}

type webhookRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Webhook receives order status changes from the payment gateway.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(WebhookTokenHeader)
	if h.webhookToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookToken)) != 1 {
		h.log.WithField("remote", r.RemoteAddr).Warn("payment webhook with bad token")
		httpx.Error(w, r, apperr.New(apperr.CodeUnauthorized, "bad webhook token"))
		return
	}
	var req webhookRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if req.ID == "" {
		httpx.Error(w, r, apperr.Validation(validation.Violations{"hips_id": validation.CodeRequired}))
		return
	}
	p, err := h.payments.ApplyOrderStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPaymentResponse(p))
}
