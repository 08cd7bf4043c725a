package app

import (
	"context"
	"time"

	redisclient "github.com/classloop/classloop-backend/internal/clients/redis"
	"github.com/classloop/classloop-backend/internal/platform/logger"
	"github.com/classloop/classloop-backend/internal/realtime"
	"github.com/classloop/classloop-backend/internal/services"
)

type Services struct {
	Publisher  services.PlanPublisher
	Ledger     services.TaskLedger
	Settlement services.Settlement
	Progress   services.ProgressService
	Notifier   services.Notifier
}

// hubEmitter publishes to the redis bus when configured, falling back
// to the in-process hub so single-node deployments work with no redis
// at all. When the bus is up, the forwarder delivers to the local hub;
// broadcasting here as well would double every event.
type hubEmitter struct {
	hub *realtime.Hub
	bus redisclient.EventBus
	log *logger.Logger
}

func (e *hubEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if e.bus != nil {
		err := e.bus.Publish(ctx, msg)
		if err == nil {
			return
		}
		e.log.Warn("event bus publish failed", "error", err)
	}
	e.hub.Broadcast(msg)
}

func wireServices(cfg Config, repos Repos, hub *realtime.Hub, log *logger.Logger) (Services, error) {
	log.Info("Wiring services...")

	var bus redisclient.EventBus
	if cfg.Redis.Addr != "" {
		var err error
		bus, err = redisclient.NewEventBus(cfg.Redis.Addr, cfg.Redis.Channel, log)
		if err != nil {
			return Services{}, err
		}
		if err := bus.StartForwarder(context.Background(), hub.Broadcast); err != nil {
			return Services{}, err
		}
	}

	notifier := services.NewNotifier(&hubEmitter{hub: hub, bus: bus, log: log})

	loc := time.Local
	if cfg.Engine.Timezone != "" && cfg.Engine.Timezone != "Local" {
		parsed, err := time.LoadLocation(cfg.Engine.Timezone)
		if err != nil {
			log.Warn("invalid engine timezone; falling back to local", "timezone", cfg.Engine.Timezone, "error", err)
		} else {
			loc = parsed
		}
	}

	return Services{
		Publisher:  services.NewPlanPublisher(repos.Tx, repos.Plans, repos.Students, repos.Tasks, notifier, log),
		Ledger:     services.NewTaskLedger(repos.Tasks, repos.Students, notifier, log),
		Settlement: services.NewSettlement(repos.Tx, repos.Tasks, repos.Students, notifier, loc, log),
		Progress:   services.NewProgressService(repos.Tx, repos.Students, repos.Tasks, log),
		Notifier:   notifier,
	}, nil
}
