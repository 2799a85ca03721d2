// Package httpapi exposes the platform REST API: authentication, the
// generation endpoint, self-service account routes and the admin
// console surface.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	app "github.com/nekoko-ai/platform/internal/app"
	"github.com/nekoko-ai/platform/internal/app/metrics"
	"github.com/nekoko-ai/platform/internal/httputil"
	"github.com/nekoko-ai/platform/internal/middleware"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// publicPaths pass through without credentials.
var publicPaths = []string{"/healthz", "/metrics", "/auth/register", "/auth/login", "/models"}

// Options configures the HTTP surface.
type Options struct {
	JWTSecret          string
	TokenTTL           time.Duration
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	Log                *logger.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app       *app.Application
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logger.Logger
}

// NewHandler returns the fully wired HTTP handler: routing plus the
// auth, rate limiting, CORS and request metric layers.
func NewHandler(application *app.Application, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	h := &handler{
		app:       application,
		jwtSecret: []byte(opts.JWTSecret),
		tokenTTL:  ttl,
		log:       log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.health)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/auth/register", h.register)
	mux.HandleFunc("/auth/login", h.login)
	mux.HandleFunc("/auth/me", h.me)
	mux.HandleFunc("/models", h.models)
	mux.HandleFunc("/generate", h.generate)
	mux.HandleFunc("/user/balance", h.userBalance)
	mux.HandleFunc("/user/logs", h.userLogs)
	mux.HandleFunc("/user/apikeys", h.userAPIKeys)
	mux.HandleFunc("/user/apikeys/", h.userAPIKeyResource)
	mux.Handle("/admin/", middleware.RequireAdmin(http.HandlerFunc(h.admin)))

	var root http.Handler = mux
	if opts.RateLimitPerSecond > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = opts.RateLimitPerSecond
		}
		root = middleware.NewRateLimiter(opts.RateLimitPerSecond, burst, log).Handler(root)
	}
	auth := middleware.NewAuthMiddleware(h.jwtSecret, application.APIKeys, log, publicPaths)
	root = auth.Handler(root)
	root = metrics.InstrumentHandler(root)
	if len(opts.AllowedOrigins) > 0 {
		root = middleware.NewCORSMiddleware(opts.AllowedOrigins).Handler(root)
	}
	return root
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
