package models

// EventType identifies a portal notification.
type EventType string

const (
	// EventSummaryUpdated carries a fresh user summary snapshot.
	EventSummaryUpdated EventType = "summary_updated"
	// EventUnlocked signals that an active expediente exists and the
	// portal views may be used.
	EventUnlocked EventType = "unlocked"
	// EventLocked signals that the session was cleared.
	EventLocked EventType = "locked"
)

// Event is the typed payload published on the portal event bus.
type Event struct {
	Type       EventType    `json:"type"`
	Expediente string       `json:"expediente,omitempty"`
	Summary    *UserSummary `json:"summary,omitempty"`
}
