// Package http serves the dashboard page and its JSON event endpoints.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"donations/internal/core"
	"donations/internal/dashboard"
	applog "donations/internal/log"
	"donations/internal/metrics"
	"donations/internal/middleware/ratelimit"
	"donations/internal/middleware/security"
	"donations/internal/middleware/trace"
	"donations/internal/session"
	"donations/internal/source"
	appweb "donations/web"
)

// Dispatcher applies dashboard events to a session's state.
type Dispatcher interface {
	Dispatch(ctx context.Context, prior core.SelectionState, ev dashboard.Event) dashboard.Update
}

// SchoolLister feeds the dropdown.
type SchoolLister interface {
	Schools() []core.School
}

type Deps struct {
	Controller Dispatcher
	Schools    SchoolLister
	Sessions   *session.Store
	// Pinger is optional; without it /readyz only checks local state.
	Pinger  source.Pinger
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	EventsPerMinute int
	// TrustedProxies are extra CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

type Server struct {
	http.Server
	deps      Deps
	logger    *slog.Logger
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	started   time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Controller == nil || deps.Schools == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("http server: controller, schools and sessions are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(applog.FieldComponent, applog.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		deps:      deps,
		logger:    logger,
		templates: t,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{Requests: deps.EventsPerMinute, Period: time.Minute}),
		detector:  security.NewDetector(),
		started:   time.Now(),
	}

	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}

	handler, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	r := chi.NewRouter()
	r.Use(s.detector.TrustedRealIP)
	r.Use(chimw.Recoverer)
	r.Use(trace.NewMiddleware(s.logger, s.deps.Metrics).Handler)
	r.Use(applog.Middleware(s.logger, trace.RequestID))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(security.ClientIP, func(req *http.Request) {
				s.deps.Metrics.RateLimited()
				applog.FromContext(req.Context()).Warn("Rate limit exceeded", "client_ip", security.ClientIP(req))
			}))
			r.Post("/events/bar-click", s.handleBarClick)
			r.Post("/events/dropdown", s.handleDropdown)
		})
	})
	return r, nil
}

// RunMaintenance drops idle rate-limit entries until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context, interval time.Duration) {
	s.limiter.Run(ctx, interval)
}
