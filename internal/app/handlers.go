package app

import (
	"github.com/classloop/classloop-backend/internal/http/handlers"
	"github.com/classloop/classloop-backend/internal/platform/logger"
	"github.com/classloop/classloop-backend/internal/realtime"
)

type Handlers struct {
	Plan       *handlers.PlanHandler
	Assignment *handlers.AssignmentHandler
	Settlement *handlers.SettlementHandler
	Progress   *handlers.ProgressHandler
	Events     *handlers.EventsHandler
}

func wireHandlers(log *logger.Logger, svcs Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Plan:       handlers.NewPlanHandler(svcs.Publisher),
		Assignment: handlers.NewAssignmentHandler(svcs.Ledger),
		Settlement: handlers.NewSettlementHandler(svcs.Settlement),
		Progress:   handlers.NewProgressHandler(svcs.Progress),
		Events:     handlers.NewEventsHandler(hub),
	}
}
