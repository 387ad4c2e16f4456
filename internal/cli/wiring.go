package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/checklist/internal/config"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/adapters/memory"
	"github.com/aretw0/checklist/pkg/adapters/mqtt"
	"github.com/aretw0/checklist/pkg/adapters/redis"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/ports"
	goredis "github.com/redis/go-redis/v9"
)

// NewLogger builds the application logger from the log section.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.Log.Format), nil
}

// Transport bundles the bus with the Redis client it may share with the claimer.
type Transport struct {
	Bus ports.Bus
	// Redis is set when the configuration uses Redis for the bus or for claims.
	Redis *goredis.Client
	// Claimer is set when replica claims are enabled.
	Claimer ports.Claimer
}

// OpenTransport connects the configured bus, and Redis when claims need it.
func OpenTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Transport, error) {
	t := &Transport{}

	if cfg.UsesRedis() {
		t.Redis = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := t.Redis.Ping(ctx).Err(); err != nil {
			_ = t.Redis.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		if cfg.Redis.Claims {
			t.Claimer = redis.NewClaimer(t.Redis, cfg.Redis.Prefix)
		}
	}

	switch cfg.Transport {
	case config.TransportMQTT:
		bus, err := mqtt.Dial(ctx, cfg.MQTTOptions(), mqtt.WithLogger(logger))
		if err != nil {
			t.closeRedis()
			return nil, err
		}
		t.Bus = bus
	case config.TransportRedis:
		t.Bus = redis.NewBusFromClient(t.Redis, redis.WithLogger(logger))
	case config.TransportMemory:
		t.Bus = memory.NewBus()
	default:
		t.closeRedis()
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	return t, nil
}

// Health pings Redis when it is in use.
func (t *Transport) Health(ctx context.Context) error {
	if t.Redis == nil {
		return nil
	}
	return t.Redis.Ping(ctx).Err()
}

// Close releases the bus, then Redis.
func (t *Transport) Close() error {
	var errs []error
	if t.Bus != nil {
		errs = append(errs, t.Bus.Close())
	}
	errs = append(errs, t.closeRedis())
	return errors.Join(errs...)
}

func (t *Transport) closeRedis() error {
	if t.Redis == nil {
		return nil
	}
	err := t.Redis.Close()
	t.Redis = nil
	if errors.Is(err, goredis.ErrClosed) {
		return nil
	}
	return err
}

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(ctx context.Context, e *domain.ChecklistEvent) {
			logger.Debug("Checklist Started", "checklist_id", e.ChecklistID, "site_id", e.SiteID, "items", e.Items)
		},
		OnReject: func(ctx context.Context, e *domain.ChecklistEvent) {
			logger.Debug("Start Rejected", "checklist_id", e.ChecklistID, "site_id", e.SiteID)
		},
		OnPrompt: func(ctx context.Context, e *domain.PromptEvent) {
			logger.Debug("Item Prompted", "checklist_id", e.ChecklistID, "item_id", e.ItemID, "attempt", e.Attempt)
		},
		OnResolve: func(ctx context.Context, e *domain.ItemEvent) {
			logger.Debug("Item Resolved", "checklist_id", e.ChecklistID, "item_id", e.ItemID, "role", e.Role)
		},
		OnFinish: func(ctx context.Context, e *domain.FinishEvent) {
			logger.Debug("Checklist Finished", "checklist_id", e.ChecklistID, "status", e.Report.Status, "duration", e.Duration)
		},
	}
}
