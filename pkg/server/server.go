// Package server is the Gateway/API surface (C9): a thin HTTP binding
// layer over the Router, ReAct Agent, Formatter, Session Store, Weather
// subservice, and Auth service. It owns no domain logic of its own — see
// §4.9.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agriquery/gateway/pkg/auth"
	"github.com/agriquery/gateway/pkg/config"
	"github.com/agriquery/gateway/pkg/formatter"
	"github.com/agriquery/gateway/pkg/observability"
	"github.com/agriquery/gateway/pkg/reactagent"
	"github.com/agriquery/gateway/pkg/registry"
	"github.com/agriquery/gateway/pkg/router"
	"github.com/agriquery/gateway/pkg/session"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/weather"
)

// imagePredictorName is the tool forced by the Router whenever a query
// carries an attachment, per §4.3's structural-hint rule.
const imagePredictorName = "detect_pest"

// canonicalLang is the processing language the Formatter's input-
// translation wrap normalizes to before routing.
const canonicalLang = "en"

// Server binds the gateway's components to chi's router and manages the
// HTTP listener's lifecycle.
type Server struct {
	cfg       *config.GatewayConfig
	registry  *registry.ToolRegistry
	agent     *reactagent.Agent
	formatter *formatter.Formatter
	authSvc   *auth.Service
	issuer    *auth.TokenIssuer
	sessions  *session.Store
	weatherS  *weather.Service
	metrics   *observability.Metrics
	tracer    *observability.Tracer

	router *chi.Mux
	http   *http.Server
}

// Deps collects every component New wires into the router.
type Deps struct {
	Config    *config.GatewayConfig
	Registry  *registry.ToolRegistry
	Agent     *reactagent.Agent
	Formatter *formatter.Formatter
	Auth      *auth.Service
	Issuer    *auth.TokenIssuer
	Sessions  *session.Store
	Weather   *weather.Service
	Metrics   *observability.Metrics
	Tracer    *observability.Tracer
}

// New builds a Server and its chi route table from deps.
func New(deps Deps) *Server {
	s := &Server{
		cfg:       deps.Config,
		registry:  deps.Registry,
		agent:     deps.Agent,
		formatter: deps.Formatter,
		authSvc:   deps.Auth,
		issuer:    deps.Issuer,
		sessions:  deps.Sessions,
		weatherS:  deps.Weather,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
	}
	s.router = s.buildRouter()
	return s
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully. Mirrors the teacher's Start/Shutdown lifecycle: a
// goroutine drives ListenAndServe, the caller's ctx and the listener
// error race on a select.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("gateway HTTP server starting", "address", s.cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server within a 5s budget.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("gateway HTTP server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	return nil
}

// Address returns the server's configured listen address.
func (s *Server) Address() string {
	return s.cfg.ListenAddr
}

// Router exposes the underlying chi.Mux, mainly for tests that drive
// requests with httptest without binding a real listener.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	if s.tracer != nil || s.metrics != nil {
		r.Use(s.observabilityMiddleware)
	}
	r.Use(s.deadlineMiddleware)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Post("/ask", s.handleAsk)
	r.Post("/rag", s.handleRAG)
	r.Post("/predict_yield", s.handlePredictYield)
	r.Post("/detect_pest", s.handleDetectPest)
	r.Post("/translate", s.handleTranslate)
	r.Post("/weather", s.handleWeather)

	r.Group(func(r chi.Router) {
		r.Use(s.issuer.HTTPMiddleware)

		r.Get("/auth/me", s.handleMe)
		r.Get("/auth/users", s.requireRole(auth.RoleAdmin, s.handleListUsers))
		r.Post("/auth/users/{id}/manage", s.requireRole(auth.RoleAdmin, s.handleManageUser))

		r.Post("/agent", s.handleAgent)
		r.Post("/weather/cache/clear", s.requireRole(auth.RoleAdmin, s.handleWeatherCacheClear))

		r.Post("/conversations/save", s.handleConversationSave)
		r.Post("/conversations/list", s.handleConversationList)
		r.Post("/conversations/get", s.handleConversationGet)
		r.Post("/conversations/delete", s.handleConversationDelete)
	})

	r.Get("/weather/locations", s.handleWeatherLocations)

	return r
}

// requireRole wraps an already-authenticated handler with a minimum-role
// check, keeping the role gate visible at the route-table call site
// rather than buried in auth.RequireRole's own middleware chain.
func (s *Server) requireRole(min auth.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetClaims(r)
		if claims == nil {
			writeError(w, auth.ErrUnauthorized)
			return
		}
		if !auth.Role(claims.Role).AtLeast(min) {
			writeError(w, auth.ErrForbidden)
			return
		}
		next(w, r)
	}
}

// lookupTool resolves name from the registry, translating an absent
// entry into an internal error rather than a nil-pointer panic.
func (s *Server) lookupTool(name string) (*tool.Tool, error) {
	t, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("tool %q not registered", name)
	}
	return t, nil
}

// routeDecision runs the Router over every registered tool for query,
// forcing the image predictor when hasAttachment is set.
func (s *Server) routeDecision(query string, hasAttachment bool) router.Decision {
	return router.Route(query, s.registry.List(), imagePredictorName, hasAttachment)
}
