package journey

// EventType distinguishes the two kinds of program events.
type EventType string

const (
	EventSession EventType = "session"
	EventEmail   EventType = "email"
)

// Phase is the coarse ordering bucket an event belongs to.
type Phase string

const (
	PhaseInitial    Phase = "initial"
	PhaseIndividual Phase = "individual"
	PhaseFinal      Phase = "final"
)

// PartnerScope names which party of the couple an event applies to.
type PartnerScope string

const (
	ScopeBoth     PartnerScope = "both"
	ScopePartner1 PartnerScope = "partner1"
	ScopePartner2 PartnerScope = "partner2"
)

// Trigger describes when an email event fires relative to its session.
type Trigger string

const (
	TriggerImmediate     Trigger = "immediate"
	TriggerBeforeSession Trigger = "beforeSession"
	TriggerAfterSession  Trigger = "afterSession"
)

// Event is one node of the fixed therapy program graph: either a session the
// couple attends or a transactional email bracketing one.
type Event struct {
	ID           string
	Title        string
	Description  string
	Type         EventType
	Phase        Phase
	PartnerScope PartnerScope
	// DependsOn lists event ids that must exist before this event can be
	// scheduled. Empty only for root events.
	DependsOn []string
	Trigger   Trigger
	// OffsetDays is negative for beforeSession, positive for afterSession,
	// zero for immediate triggers.
	OffsetDays int
	// EmailType is the template code used by the email subsystem. Set only
	// on email events.
	EmailType string
}
