package handlers

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

func (h *ApplicationHandler) Register(mux *http.ServeMux, requireAuth Middleware) {
	mux.Handle("POST /ansokan", requireAuth(http.HandlerFunc(h.Create)))
	mux.Handle("GET /ansokan", requireAuth(http.HandlerFunc(h.List)))
	mux.Handle("GET /ansokan/{id}", requireAuth(http.HandlerFunc(h.Show)))
	mux.Handle("POST /ansokan/{id}/delete", requireAuth(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /ansokan/{id}/{event}", requireAuth(http.HandlerFunc(h.Transition)))
}

// Register mounts the payment routes. The webhook authenticates with its
// token instead of a session.
func (h *PaymentHandler) Register(mux *http.ServeMux, requireAuth Middleware) {
	mux.Handle("POST /anvandare/{user_id}/betalning/{type}", requireAuth(http.HandlerFunc(h.Create)))
	mux.HandleFunc("POST /anvandare/betalning/webhook", h.Webhook)
}

func (h *AddressHandler) Register(mux *http.ServeMux, requireAuth Middleware) {
	mux.Handle("GET /hundforetag/{company_id}/adresser", requireAuth(http.HandlerFunc(h.List)))
	mux.Handle("POST /hundforetag/{company_id}/adresser", requireAuth(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /hundforetag/{company_id}/adresser/{id}", requireAuth(http.HandlerFunc(h.Update)))
}
