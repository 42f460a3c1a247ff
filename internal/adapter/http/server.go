package adapthttp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"babymeasure/internal/app"
)

// Services bundles the application services the server routes to. Nil
// services disable their routes.
type Services struct {
	Chat         *app.ChatService
	Measurements *app.MeasurementService
	Edits        *app.EditService
	Charts       *app.ChartsService
	Auth         *app.AuthService
	Status       *app.StatusService
	Publish      *app.PublishQueue
}

// OIDCConfig holds the single sign-on provider settings.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// NewOIDCConfig discovers the issuer and builds the OAuth2 client.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OIDCConfig{}, fmt.Errorf("oidc provider %s: %w", issuer, err)
	}
	return OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc         Services
	webDir      string
	loc         *time.Location
	oidcConfig  OIDCConfig
	gatherer    prometheus.Gatherer
	logger      *zap.Logger
	disableAuth bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithOIDC enables single sign-on.
func WithOIDC(cfg OIDCConfig) Option {
	return func(s *Server) { s.oidcConfig = cfg }
}

// WithMetrics serves the metrics of g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLocation sets the zone date query parameters are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// New creates a Server wired to the given application services.
func New(svc Services, webDir string, opts ...Option) *Server {
	s := &Server{svc: svc, webDir: webDir, loc: time.Local, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithoutAuth disables authentication, for tests and trusted networks.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	protected := http.NewServeMux()
	if s.svc.Chat != nil {
		protected.HandleFunc("GET /bot", s.handleBot)
		protected.HandleFunc("POST /bot", s.handleBot)
		protected.HandleFunc("GET /bot/explain", s.handleExplain)
	}
	if s.svc.Measurements != nil {
		protected.HandleFunc("POST /entries", s.handleLogEntries)
		protected.HandleFunc("GET /entries/{category}/recent", s.handleRecentEntries)
		protected.HandleFunc("GET /entries/{category}/last", s.handleLastEntry)
	}
	if s.svc.Edits != nil {
		protected.HandleFunc("GET /entries/{category}/{id}", s.handleGetEntry)
		protected.HandleFunc("PATCH /entries/{category}/{id}", s.handleUpdateEntry)
		protected.HandleFunc("DELETE /entries/{category}/{id}", s.handleDeleteEntry)
	}
	if s.svc.Charts != nil {
		protected.HandleFunc("GET /charts/daily", s.handleChartsDaily)
		protected.HandleFunc("GET /charts/{category}", s.handleChartImage)
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /health", s.handleHealth)
	if s.svc.Auth != nil {
		api.HandleFunc("/auth/login", s.handleLogin)
		api.HandleFunc("/auth/logout", s.handleLogout)
		api.HandleFunc("/auth/setup", s.handleSetupUser)
		api.HandleFunc("/auth/config", s.handleConfig)
		api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
		api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	}
	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.gatherer != nil {
		root.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return s.loggingMiddleware(withNoCache(root))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"ok": true}
	if s.svc.Status != nil {
		body["uptime"] = s.svc.Status.Uptime(time.Now()).String()
	}
	if s.svc.Publish != nil {
		stats := s.svc.Publish.Stats()
		publish := map[string]any{
			"enqueued":  stats.Enqueued,
			"coalesced": stats.Coalesced,
			"succeeded": stats.Succeeded,
			"failed":    stats.Failed,
		}
		if stats.LastErr != nil {
			publish["lastError"] = stats.LastErr.Error()
		}
		body["publish"] = publish
	}
	writeJSON(w, http.StatusOK, body)
}
