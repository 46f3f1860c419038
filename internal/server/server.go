package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"foodgram/internal/handlers"
	applog "foodgram/internal/log"
)

const (
	defaultSessionLifetime = 12 * time.Hour
	defaultCookieName      = "foodgram_session"
	defaultShutdownTimeout = 5 * time.Second
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr            string
	Session         SessionConfig
	Database        *gorm.DB
	ShutdownTimeout time.Duration
}

// SessionConfig controls the session cookie issued on sign in.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// Server serves the JSON API.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New configures the handlers with a session manager and database and
// builds the middleware chain around the router.
func New(cfg Config) (*Server, error) {
	sessions := newSessionManager(cfg.Session)
	handlers.Configure(sessions, cfg.Database)

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	applog.Debug(context.Background(), "server configured",
		"addr", cfg.Addr,
		"cookieName", sessions.Cookie.Name,
		"sessionLifetime", sessions.Lifetime.String(),
		"hasDatabase", cfg.Database != nil,
	)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           requestLogger(sessions.LoadAndSave(newRouter())),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}, nil
}

func newSessionManager(cfg SessionConfig) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = cfg.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = defaultSessionLifetime
	}
	sm.Cookie.Name = strings.TrimSpace(cfg.CookieName)
	if sm.Cookie.Name == "" {
		sm.Cookie.Name = defaultCookieName
	}
	sm.Cookie.Domain = cfg.CookieDomain
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.CookieSecure
	return sm
}

// Start listens until Stop is called. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests for at most the configured shutdown timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler for integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
