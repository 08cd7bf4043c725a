package realtime

// Event names emitted by the engine. Channels are scoped per teacher so a
// classroom dashboard subscribes to its own teacher's stream.
type Event string

const (
	EventPlanPublished       Event = "PlanPublished"
	EventAssignmentsUpdated  Event = "AssignmentsUpdated"
	EventSettlementCompleted Event = "SettlementCompleted"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}
