package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pobrify/internal/log"
	"pobrify/internal/middleware/ratelimit"
	"pobrify/internal/middleware/security"
	"pobrify/internal/services"
)

// Services are the application services behind the API.
type Services struct {
	Settings *services.SettingsService
	Goals    *services.GoalService
	Records  *services.RecordService
	Plans    *services.PlanService
	Catalog  *services.CatalogService
}

type Config struct {
	Addr        string
	CORSOrigins []string
	// RateLimit is the number of writes allowed per client per minute.
	RateLimit int
	// Ready reports whether the backing store can serve requests. Nil
	// means always ready.
	Ready func(context.Context) error
}

// Server is the JSON API.
type Server struct {
	http.Server
	svc      Services
	ready    func(context.Context) error
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	stopLimiter  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(cfg Config, svc Services, logger *log.Logger) *Server {
	limiterCtx, stop := context.WithCancel(context.Background())
	s := &Server{
		svc:         svc,
		ready:       cfg.Ready,
		logger:      logger.WithComponent(log.ComponentHTTP),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimit}),
		detector:    security.NewDetector(),
		stopLimiter: stop,
	}
	go s.limiter.Run(limiterCtx)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.middleware(mux, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/health", s.handleAPIHealth)

	mux.HandleFunc("GET /api/settings/{key}", s.handleGetSetting)
	mux.HandleFunc("PUT /api/settings/{key}", s.handlePutSetting)

	mux.HandleFunc("GET /api/week-data", s.handleListDays)
	mux.HandleFunc("PUT /api/week-data/{date}", s.handlePutDay)
	mux.HandleFunc("DELETE /api/week-data/{date}", s.handleDeleteDay)
	mux.HandleFunc("POST /api/week-data/{date}/bookings/{id}/status", s.handleBookingStatus)

	mux.HandleFunc("GET /api/weekly-billing/{weekKey}", s.handleGetWeek)
	mux.HandleFunc("PUT /api/weekly-billing/{weekKey}", s.handlePutWeek)
	mux.HandleFunc("POST /api/weekly-billing/{weekKey}/register", s.handleRegisterWeek)

	mux.HandleFunc("GET /api/expenses/{kind}", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses/{kind}", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{kind}/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{kind}/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/accessories", s.handleListAccessories)
	mux.HandleFunc("POST /api/accessories", s.handleCreateAccessory)
	mux.HandleFunc("GET /api/accessories/preview", s.handlePreview)
	mux.HandleFunc("PUT /api/accessories/{id}", s.handleUpdateAccessory)
	mux.HandleFunc("DELETE /api/accessories/{id}", s.handleDeleteAccessory)

	mux.HandleFunc("GET /api/known-locals", s.handleListKnownLocals)
	mux.HandleFunc("PUT /api/known-locals/{name}", s.handlePutKnownLocal)
	mux.HandleFunc("DELETE /api/known-locals/{name}", s.handleDeleteKnownLocal)

	mux.HandleFunc("GET /api/ml/item/{id}", s.handleItem)

	mux.HandleFunc("GET /api/goal", s.handleGetGoal)
	mux.HandleFunc("PUT /api/goal", s.handlePutGoal)
	mux.HandleFunc("POST /api/goal/contributions", s.handleContribution)

	mux.HandleFunc("GET /api/plan", s.handlePlan)
	mux.HandleFunc("GET /api/summary/week", s.handleWeekSummary)
}

// middleware wraps h, outermost first: request logging, security
// headers, CORS, probe detection, then rate limiting of writes.
func (s *Server) middleware(h http.Handler, origins []string) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, s.detector.ExtractClientIP(r))
		writeError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
	}
	h = s.limiter.Middleware(s.detector.ExtractClientIP, isWrite, onLimit)(h)
	h = s.detector.Middleware(s.logger.WithComponent(log.ComponentSecurity).Slog())(h)
	h = security.CORS(security.DefaultCORSConfig(origins...))(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return log.Middleware(s.logger)(h)
}

func isWrite(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopLimiter()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.ready != nil && s.ready(r.Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
