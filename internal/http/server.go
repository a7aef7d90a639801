package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"greefin/internal/cache"
	"greefin/internal/core"
	"greefin/internal/log"
	"greefin/internal/metrics"
	"greefin/internal/middleware/ratelimit"
	"greefin/internal/middleware/security"
	"greefin/internal/middleware/trace"
	"greefin/internal/services"
)

// Options configures NewServer. Zero values fall back to the defaults of
// config.Load.
type Options struct {
	Addr    string
	Service *services.EcoService

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *log.Logger

	RateLimitPerMinute int
	CORSAllowedOrigins []string

	ProfileCacheSize int
	ProfileCacheTTL  time.Duration

	// Ready reports whether the backing store is usable; nil means always.
	Ready func(context.Context) error
}

type Server struct {
	http.Server

	service      *services.EcoService
	profileCache *cache.LRUCache[core.ProfileRecord]
	profiles     *cache.ReadThrough[core.ProfileRecord]
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	metrics      *metrics.Metrics
	logger       *log.Logger
	ready        func(context.Context) error
	started      time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop it and its background goroutines.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.ProfileCacheSize <= 0 {
		opts.ProfileCacheSize = 1024
	}
	if opts.ProfileCacheTTL <= 0 {
		opts.ProfileCacheTTL = 5 * time.Minute
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	profileCache := cache.NewLRUCache[core.ProfileRecord](opts.ProfileCacheSize, opts.ProfileCacheTTL)

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		service:      opts.Service,
		profileCache: profileCache,
		profiles:     cache.NewReadThrough[core.ProfileRecord](profileCache, opts.Metrics.ObserveCache),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
			IdleTTL:           10 * time.Minute,
		}),
		detector: security.NewDetector(opts.Metrics.ObserveSuspicious),
		metrics:  opts.Metrics,
		logger:   logger,
		ready:    opts.Ready,
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(opts.Gatherer))
	}
	mux.HandleFunc("/api/eco/calculate", s.handleCalculate)
	mux.HandleFunc("/api/eco/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/api/users/{userID}/eco-survey", s.handleSubmitSurvey)
	mux.HandleFunc("/api/users/{userID}/eco-profile", s.handleGetProfile)
	mux.HandleFunc("/api/users/{userID}/eco-tips", s.handleGetTips)
	mux.HandleFunc("/api/users/{userID}/eco-history", s.handleGetHistory)
	mux.HandleFunc("/", s.handleNotFound)

	// Outermost first. trace must wrap the mux with no request copies in
	// between, since it reads the matched pattern back from the request.
	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingOnly, s.onRateLimited)(h)
	h = s.detector.Middleware(s.onSuspicious)(h)
	h = security.CORS(security.CORSConfig{AllowedOrigins: opts.CORSAllowedOrigins})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(logger, s.detector.ExtractClientIP, opts.Metrics).Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.ObserveRateLimited()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// onSuspicious only logs; flagged requests are still served.
func (s *Server) onSuspicious(_ http.ResponseWriter, r *http.Request, reason string) bool {
	log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(),
		"Suspicious request detected",
		"reason", reason,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	return true
}

// Shutdown stops the rate limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
