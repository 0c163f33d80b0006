// Package server exposes the voice relay over HTTP.
//
// The JSON bodies and status codes follow the FastAPI conventions, so
// existing recorder pages and scripts keep working: errors are rendered as
// {"detail": "..."} and CORS is open to every origin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/glebglazov/vibe-coding-done-right/internal/model"
	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
	"github.com/glebglazov/vibe-coding-done-right/internal/relay"
)

// ErrInvalidInput means the request was rejected before any work was done.
var ErrInvalidInput = errors.New("invalid input")

// DefaultMaxUpload caps request bodies when Options.MaxUpload is unset.
const DefaultMaxUpload = 25 << 20

const shutdownTimeout = 10 * time.Second

// Relay is the pipeline the handlers drive.
type Relay interface {
	Send(ctx context.Context, text string) (*model.Delivery, error)
	Transcribe(ctx context.Context, path string) (*relay.Result, error)
}

// Options configures a Server.
type Options struct {
	Relay Relay
	// Checkers gate /readyz.
	Checkers []Checker
	// Metrics records request latency. May be nil.
	Metrics *ppotel.Metrics
	// MetricsHandler serves /metrics. Nil disables the route.
	MetricsHandler http.Handler
	// MaxUpload is the request body limit in bytes.
	MaxUpload int64
	Logger    *slog.Logger
}

// Server is the HTTP surface of the relay.
type Server struct {
	e      *echo.Echo
	relay  Relay
	logger *slog.Logger
}

// New builds the router with all middleware and routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := opts.MaxUpload
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(tracing(opts.Metrics))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", maxUpload)))

	s := &Server{e: e, relay: opts.Relay, logger: logger}

	// Recorder page
	e.GET("/", s.index)
	e.GET("/api", s.root)

	e.POST("/transcribe", s.transcribe)
	e.POST("/send-to-claude", s.sendToClaude)

	h := newHealth(opts.Checkers...)
	e.GET("/healthz", h.healthz)
	e.GET("/readyz", h.readyz)

	if opts.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(opts.MetricsHandler))
	}

	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// errorHandler renders every error as {"detail": message}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var detail any = http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		detail = he.Message
		if m, ok := detail.(string); !ok || m == "" {
			detail = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]any{"detail": detail})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
