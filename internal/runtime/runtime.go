package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loqalabs/loqa-interview/internal/api"
	"github.com/loqalabs/loqa-interview/internal/bus"
	"github.com/loqalabs/loqa-interview/internal/config"
	"github.com/loqalabs/loqa-interview/internal/grading"
	"github.com/loqalabs/loqa-interview/internal/llm"
	"github.com/loqalabs/loqa-interview/internal/natsserver"
	"github.com/loqalabs/loqa-interview/internal/questions"
	"github.com/loqalabs/loqa-interview/internal/web"
)

type Runtime struct {
	cfg            config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	telemetryClose func(context.Context) error
	metrics        http.Handler
	embeddedNATS   *natsserver.EmbeddedServer
	bus            *bus.Client
	gradingService *grading.Service
	ready          atomic.Bool
	addr           atomic.Value
	wg             sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Addr reports the bound HTTP address once the runtime is serving.
func (r *Runtime) Addr() string {
	if v, ok := r.addr.Load().(string); ok {
		return v
	}
	return ""
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.telemetryClose = shutdownTelemetry
	r.metrics = metricsHandler

	generator, err := llm.New(r.cfg.LLM)
	if err != nil {
		r.shutdown()
		return fmt.Errorf("failed to create llm backend: %w", err)
	}
	relay := grading.NewRelay(generator, r.cfg.LLM, r.logger)
	r.logger.Info("grading relay ready",
		slog.String("mode", r.cfg.LLM.Mode),
		slog.String("model", r.cfg.LLM.Model))

	if err := r.startBus(ctx, relay); err != nil {
		r.shutdown()
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port))
	if err != nil {
		r.shutdown()
		return fmt.Errorf("failed to listen: %w", err)
	}
	addr := listener.Addr().String()
	r.addr.Store(addr)

	r.httpServer = &http.Server{
		Handler:           r.router(relay),
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()
	r.shutdown()

	return nil
}

func (r *Runtime) startBus(ctx context.Context, relay *grading.Relay) error {
	if !r.cfg.Bus.Enabled {
		return nil
	}
	busCfg := r.cfg.Bus
	embedded, err := natsserver.Start(busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded nats: %w", err)
	}
	r.embeddedNATS = embedded
	if embedded != nil {
		busCfg.Servers = []string{embedded.ClientURL()}
	}

	client, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	r.bus = client

	timeout := time.Duration(r.cfg.LLM.TimeoutMS) * time.Millisecond
	svc := grading.NewService(ctx, client, relay, timeout, r.logger)
	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start grading service: %w", err)
	}
	r.gradingService = svc
	return nil
}

func (r *Runtime) router(relay *grading.Relay) http.Handler {
	root := api.NewRouter(r.cfg.HTTP, r.logger)
	root.Get("/healthz", r.handleHealth)
	root.Get("/readyz", r.handleReady)
	if r.metrics != nil {
		root.Handle("/metrics", r.metrics)
	}
	root.Mount("/api", api.NewHandler(relay, questions.NewPicker(), r.logger).Routes())
	root.Handle("/*", web.Handler())
	return root
}

func (r *Runtime) shutdown() {
	if r.gradingService != nil {
		r.gradingService.Close()
		r.gradingService = nil
	}
	if r.bus != nil {
		r.bus.Close()
		r.bus = nil
	}
	if r.embeddedNATS != nil {
		r.embeddedNATS.Shutdown()
		r.embeddedNATS = nil
	}
	if r.telemetryClose != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.telemetryClose(ctx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
		r.telemetryClose = nil
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := r.ready.Load()
	if svc := r.gradingService; ready && svc != nil {
		ready = svc.Healthy()
	}
	if ready {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
