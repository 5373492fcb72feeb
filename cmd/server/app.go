package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/addressable"
	"github.com/diewo77/go-membership/internal/auth"
	"github.com/diewo77/go-membership/internal/config"
	"github.com/diewo77/go-membership/internal/files"
	"github.com/diewo77/go-membership/internal/gate"
	"github.com/diewo77/go-membership/internal/geocode"
	"github.com/diewo77/go-membership/internal/handlers"
	"github.com/diewo77/go-membership/internal/httpx"
	"github.com/diewo77/go-membership/internal/i18n"
	"github.com/diewo77/go-membership/internal/metrics"
	"github.com/diewo77/go-membership/internal/policy"
	"github.com/diewo77/go-membership/internal/services"
)

// sessionUserTTL bounds how long a revoked admin flag keeps working.
const sessionUserTTL = 30 * time.Second

// App is the root handler with every route mounted.
type App struct {
	mux       *http.ServeMux
	handler   http.Handler
	log       logrus.FieldLogger
	addresses *services.AddressService
}

// NewApp wires services, policies and handlers.
func NewApp(cfg *config.Config, db *gorm.DB, geocoder geocode.Lookuper, log logrus.FieldLogger) (*App, error) {
	store, err := files.NewDiskStore(cfg.App.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload store: %w", err)
	}
	companies := services.NewCompanyService(db)
	apps := services.NewApplicationService(db, companies, store, log)
	membership := services.NewMembershipService(db, log)
	payments := services.NewPaymentService(db, membership, services.Fees{
		Member:   cfg.Payments.MemberFee,
		Branding: cfg.Payments.BrandingFee,
	}, log)
	users := services.NewUserService(db, payments)
	sessionUsers := gate.NewCachedLoader(users.Get, sessionUserTTL)
	addresses := services.NewAddressService(db, geocoder, addressable.Default(), log)
	g := policy.NewGate(users)

	sessions := auth.NewSessions(cfg.Server.SessionSecret, func(ctx context.Context, uid uint) bool {
		_, err := sessionUsers.Get(ctx, uid)
		return err == nil
	})
	if cfg.Payments.WebhookToken == "" {
		log.Warn("PAYMENT_WEBHOOK_TOKEN is empty, payment callbacks will be refused")
	}

	a := &App{mux: http.NewServeMux(), log: log, addresses: addresses}
	handlers.NewApplicationHandler(apps, sessionUsers, g).Register(a.mux, sessions.RequireAuth)
	handlers.NewPaymentHandler(payments, users, g, cfg.Payments.WebhookToken, log).Register(a.mux, sessions.RequireAuth)
	handlers.NewAddressHandler(addresses, companies, sessionUsers, g).Register(a.mux, sessions.RequireAuth)
	a.mux.Handle("GET /healthz", handlers.Health(db))
	a.mux.Handle("GET /metrics", metrics.Handler())

	a.handler = a.withLogging(metrics.InstrumentHandler(sessions.Middleware(withLanguage(a.mux))))
	return a, nil
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// withLanguage negotiates the response language from ?lang= or the
// Accept-Language header.
func withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = i18n.Normalize(q)
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (a *App) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(httpx.WithLogger(r.Context(), a.log)))
		a.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   sw.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
