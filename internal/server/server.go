package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/courier/internal/reconcile"
	"github.com/tournevent/courier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Dispatcher is the order-courier binding service.
type Dispatcher interface {
	Assign(ctx context.Context, orderID string, carrier shipper.Carrier, consignmentID string) (*shipper.OrderCourierInfo, error)
	Dispatch(ctx context.Context, orderID string, carrier shipper.Carrier, details shipper.DeliveryDetails) (*shipper.OrderCourierInfo, error)
	RefreshStatus(ctx context.Context, orderID string) (*shipper.OrderCourierInfo, error)
}

// Reconciler runs one reconciliation pass on demand.
type Reconciler interface {
	Trigger(ctx context.Context) (reconcile.Result, error)
}

// Server is the HTTP server for the courier service.
type Server struct {
	port       int
	cronToken  string
	dispatcher Dispatcher
	reconciler Reconciler
	gatherer   prometheus.Gatherer
	logger     *otelzap.Logger
}

// Config holds server configuration.
type Config struct {
	Port int
	// CronToken, when set, must be presented as a bearer token on the
	// reconciliation trigger.
	CronToken string
	// Gatherer serves /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// New creates a new server instance.
func New(cfg Config, dispatcher Dispatcher, reconciler Reconciler, logger *otelzap.Logger) *Server {
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		port:       cfg.Port,
		cronToken:  cfg.CronToken,
		dispatcher: dispatcher,
		reconciler: reconciler,
		gatherer:   gatherer,
		logger:     logger,
	}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/orders/{orderID}/courier", func(r chi.Router) {
		r.Put("/", s.handleAssign)
		r.Post("/dispatch", s.handleDispatch)
		r.Post("/refresh", s.handleRefresh)
	})

	r.With(s.requireCronToken).Post("/cron/courier-sync", s.handleSync)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		// A dispatch to a slow carrier may retry several address variations.
		WriteTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		s.logger.Ctx(r.Context()).Info("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) requireCronToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cronToken != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cronToken)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
