package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/checklist"
	"github.com/aretw0/checklist/internal/config"
	httpAdapter "github.com/aretw0/checklist/pkg/adapters/http"
	"github.com/aretw0/checklist/pkg/adapters/process"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/observability"
	"github.com/aretw0/checklist/pkg/ports"
)

// shutdownTimeout gives outstanding HTTP requests a deadline for completion.
const shutdownTimeout = 5 * time.Second

// Service is a skill wired to its transport, ready to run.
type Service struct {
	Skill     *checklist.Skill
	Transport *Transport
	Metrics   *observability.Metrics
	Stream    *observability.Stream
	Logger    *slog.Logger

	notifier *process.Notifier
}

// NewService assembles the skill described by cfg on an open transport.
func NewService(cfg *config.Config, t *Transport, logger *slog.Logger) (*Service, error) {
	metrics := observability.NewMetrics()
	stream := observability.NewStream(logger)

	// 1. Side-effects: Hermes publishing, then optional local commands
	var dispatcher ports.ActionDispatcher = checklist.NewHermesDispatcher(t.Bus)
	var notifier *process.Notifier
	if len(cfg.Notify) > 0 {
		var err error
		notifier, err = process.NewNotifier(dispatcher, cfg.Notify, process.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		dispatcher = notifier
	}

	// 2. Skill
	opts := []checklist.Option{
		checklist.WithLogger(logger),
		checklist.WithMetrics(metrics),
		checklist.WithLifecycleHooks(domain.MergeHooks(stream.Hooks(), DebugHooks(logger))),
		checklist.WithSiteIDs(cfg.SiteIDs...),
		checklist.WithTeardownPolicy(cfg.TeardownPolicy()),
		checklist.WithDispatcher(dispatcher),
	}
	if t.Claimer != nil {
		opts = append(opts, checklist.WithClaimer(t.Claimer, cfg.ClaimTimeout()))
	}

	return &Service{
		Skill:     checklist.New(t.Bus, opts...),
		Transport: t,
		Metrics:   metrics,
		Stream:    stream,
		Logger:    logger,
		notifier:  notifier,
	}, nil
}

// Wait blocks until notify commands started by finished checklists have exited.
func (s *Service) Wait() {
	if s.notifier != nil {
		s.notifier.Wait()
	}
}

// Handler returns the HTTP surface configured by cfg.
func (s *Service) Handler(cfg config.HTTPConfig) http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithHealthCheck(s.Transport.Health),
		httpAdapter.WithLogger(s.Logger),
	}
	if cfg.Metrics {
		opts = append(opts, httpAdapter.WithMetrics(s.Metrics.Handler()))
	}
	if cfg.Events {
		opts = append(opts, httpAdapter.WithStream(s.Stream))
	}
	return httpAdapter.NewHandler(s.Skill, opts...)
}

// Serve runs the skill, plus the HTTP surface when cfg.HTTP.Addr is set,
// until ctx is cancelled or either of them fails. Running notify commands
// are allowed to finish before it returns.
func Serve(ctx context.Context, cfg *config.Config, svc *Service) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Channel to listen for errors coming from the skill and the listener.
	errs := make(chan error, 2)
	running := 1
	go func() {
		errs <- svc.Skill.Run(ctx)
	}()

	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           svc.Handler(cfg.HTTP),
			ReadHeaderTimeout: 10 * time.Second,
		}
		running++
		go func() {
			svc.Logger.Info("HTTP server listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("http server: %w", err)
				return
			}
			errs <- nil
		}()
	}

	// Blocking until the first component stops.
	first := <-errs
	running--
	cancel()

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			svc.Logger.Warn("graceful shutdown did not complete", "err", err)
			_ = srv.Close()
		}
	}
	for ; running > 0; running-- {
		<-errs
	}
	svc.Wait()

	if errors.Is(first, context.Canceled) {
		return nil
	}
	return first
}
