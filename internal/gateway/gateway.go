// Package gateway serves the optional HTTP transport: the MCP
// endpoint plus health and Prometheus metrics.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Config holds the gateway listen settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Gateway is the HTTP server wrapping the MCP handler.
type Gateway struct {
	config  Config
	logger  *slog.Logger
	metrics *Metrics
	mcp     http.Handler
	server  *http.Server
	ready   func() bool
}

// GatewayConfig wires the gateway's collaborators.
type GatewayConfig struct {
	Config  Config
	Logger  *slog.Logger
	Metrics *Metrics

	// MCP is the streamable HTTP MCP handler mounted at /mcp.
	MCP http.Handler

	// Ready reports whether the server can take traffic. Nil means
	// always ready.
	Ready func() bool
}

// New builds a Gateway. It does not start listening.
func New(cfg GatewayConfig) *Gateway {
	g := &Gateway{
		config:  cfg.Config,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		mcp:     cfg.MCP,
		ready:   cfg.Ready,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.metrics == nil {
		g.metrics = NewMetrics()
	}
	if g.config.ReadTimeout == 0 {
		g.config.ReadTimeout = 30 * time.Second
	}
	if g.config.WriteTimeout == 0 {
		// MCP streaming responses can outlive a request/response cycle.
		g.config.WriteTimeout = 120 * time.Second
	}
	return g
}

// Router builds the chi mux with all routes wired.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", g.handleHealthz)
	r.Get("/readyz", g.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		g.metrics.Registry(),
		promhttp.HandlerOpts{},
	))

	if g.mcp != nil {
		r.Mount("/mcp", g.mcp)
	}

	return r
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (g *Gateway) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if g.ready != nil && !g.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.server = &http.Server{
		Addr:         g.config.Addr,
		Handler:      g.Router(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Addr)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
