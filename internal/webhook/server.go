package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reelpress/internal/admission"
	"reelpress/internal/api"
	"reelpress/internal/config"
	"reelpress/internal/job"
	"reelpress/internal/logging"
	"reelpress/internal/observability"
)

// Enqueuer accepts admitted work items.
type Enqueuer interface {
	Enqueue(ctx context.Context, item job.WorkItem) (int64, error)
}

// Admitter turns an inbound event into a work item.
type Admitter interface {
	Admit(ctx context.Context, ev admission.Event) (job.WorkItem, error)
}

// Options configures a Server.
type Options struct {
	Bind        string
	APIToken    string
	ReadTimeout time.Duration
	Gate        Admitter
	Queue       Enqueuer
	Admin       *api.Service
	Logger      *slog.Logger
}

// Server hosts the webhook and operator routes.
type Server struct {
	bind   string
	logger *slog.Logger
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewOptions derives server options from configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Bind:        cfg.Server.Bind,
		APIToken:    cfg.Server.APIToken,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		Gate:        admission.NewGate(cfg.Webhook.PrimaryKey, cfg.Webhook.SecondaryKey),
	}
}

// New builds a Server. Gate and Queue are required.
func New(opts Options) (*Server, error) {
	if opts.Gate == nil || opts.Queue == nil {
		return nil, errors.New("webhook server requires gate and queue")
	}
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		return nil, errors.New("webhook server requires bind address")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "webhook")
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}

	s := &Server{bind: bind, logger: logger}
	s.server = &http.Server{
		Handler:           NewRouter(opts, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// NewRouter builds the HTTP handler tree.
func NewRouter(opts Options, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	sh := &skillHandler{gate: opts.Gate, queue: opts.Queue, logger: logger}
	r.Post("/skill", sh.ServeHTTP)

	if opts.Admin != nil && !adminAllowed(opts.Bind, opts.APIToken) {
		logging.WarnWithContext(logger, "admin routes disabled: set server.api_token to expose /api on a non-loopback bind",
			"admin_routes_disabled", logging.String("bind", opts.Bind))
	} else if opts.Admin != nil {
		ah := &adminHandler{svc: opts.Admin, logger: logger}
		r.Route("/api", func(r chi.Router) {
			r.Use(bearerAuth(opts.APIToken))
			ah.mount(r)
		})
	}
	return r
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("webhook listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("webhook server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
