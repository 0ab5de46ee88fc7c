package journey

import (
	"errors"
	"fmt"
)

// ErrInvalidCatalog wraps every validation failure so callers can fail fast
// on any malformed program definition.
var ErrInvalidCatalog = errors.New("journey: invalid catalog")

// Graph is a read-only view over the fixed program catalog. It never mutates
// after construction and is safe for concurrent use.
type Graph struct {
	events []Event
	byID   map[string]Event
}

// New builds a graph over the given events. Call Validate before serving
// queries from it; a catalog that fails validation should never be deployed.
func New(events []Event) *Graph {
	byID := make(map[string]Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	return &Graph{events: events, byID: byID}
}

// Default returns a graph over the built-in program catalog.
func Default() *Graph {
	return New(DefaultCatalog())
}

// EventByID looks up a single event.
func (g *Graph) EventByID(id string) (Event, bool) {
	e, ok := g.byID[id]
	return e, ok
}

// EventsByType returns all events of the given type in catalog order.
func (g *Graph) EventsByType(t EventType) []Event {
	out := make([]Event, 0, len(g.events))
	for _, e := range g.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// EventsByPhase returns all events in the given phase in catalog order.
func (g *Graph) EventsByPhase(p Phase) []Event {
	out := make([]Event, 0, len(g.events))
	for _, e := range g.events {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}

// EventsForPartner returns events scoped to the given partner. Events scoped
// to both partners are visible to every partner-scoped query.
func (g *Graph) EventsForPartner(scope PartnerScope) []Event {
	out := make([]Event, 0, len(g.events))
	for _, e := range g.events {
		if e.PartnerScope == scope || e.PartnerScope == ScopeBoth {
			out = append(out, e)
		}
	}
	return out
}

// EmailsDependingOn returns the email events that directly depend on the
// given session event and fire relative to it. Direct dependencies only; the
// program graph is shallow by construction.
func (g *Graph) EmailsDependingOn(sessionEventID string) []Event {
	out := make([]Event, 0, 4)
	for _, e := range g.events {
		if e.Type != EventEmail {
			continue
		}
		if e.Trigger != TriggerBeforeSession && e.Trigger != TriggerAfterSession {
			continue
		}
		for _, dep := range e.DependsOn {
			if dep == sessionEventID {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// ImmediateEmails returns the root email events that fire as soon as the
// couple record is created.
func (g *Graph) ImmediateEmails() []Event {
	out := make([]Event, 0, 2)
	for _, e := range g.events {
		if e.Type == EventEmail && e.Trigger == TriggerImmediate {
			out = append(out, e)
		}
	}
	return out
}

// Validate runs the one-time startup checks: unique ids, resolvable
// dependencies, session-bracketing emails, trigger/offset consistency, and
// acyclicity. Any failure means the catalog should never have been deployed.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.events))
	for _, e := range g.events {
		if e.ID == "" {
			return fmt.Errorf("%w: event with empty id", ErrInvalidCatalog)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate event id %q", ErrInvalidCatalog, e.ID)
		}
		seen[e.ID] = true
	}

	for _, e := range g.events {
		for _, dep := range e.DependsOn {
			if _, ok := g.byID[dep]; !ok {
				return fmt.Errorf("%w: event %q depends on unknown id %q", ErrInvalidCatalog, e.ID, dep)
			}
		}

		switch e.Type {
		case EventSession:
			if e.Trigger != "" {
				return fmt.Errorf("%w: session %q carries trigger %q", ErrInvalidCatalog, e.ID, e.Trigger)
			}
			if e.EmailType != "" {
				return fmt.Errorf("%w: session %q carries email type %q", ErrInvalidCatalog, e.ID, e.EmailType)
			}
		case EventEmail:
			if e.EmailType == "" {
				return fmt.Errorf("%w: email %q has no template code", ErrInvalidCatalog, e.ID)
			}
			switch e.Trigger {
			case TriggerImmediate:
				if e.OffsetDays != 0 {
					return fmt.Errorf("%w: immediate email %q has offset %d", ErrInvalidCatalog, e.ID, e.OffsetDays)
				}
			case TriggerBeforeSession, TriggerAfterSession:
				if err := g.validateBracketingEmail(e); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: email %q has trigger %q", ErrInvalidCatalog, e.ID, e.Trigger)
			}
		default:
			return fmt.Errorf("%w: event %q has type %q", ErrInvalidCatalog, e.ID, e.Type)
		}
	}

	return g.validateAcyclic()
}

func (g *Graph) validateBracketingEmail(e Event) error {
	if len(e.DependsOn) == 0 {
		return fmt.Errorf("%w: email %q fires %s but depends on nothing", ErrInvalidCatalog, e.ID, e.Trigger)
	}
	bracketsSession := false
	for _, dep := range e.DependsOn {
		if g.byID[dep].Type == EventSession {
			bracketsSession = true
		}
	}
	if !bracketsSession {
		return fmt.Errorf("%w: email %q fires %s but no dependency is a session", ErrInvalidCatalog, e.ID, e.Trigger)
	}
	if e.Trigger == TriggerBeforeSession && e.OffsetDays >= 0 {
		return fmt.Errorf("%w: email %q fires before its session but offset is %d", ErrInvalidCatalog, e.ID, e.OffsetDays)
	}
	if e.Trigger == TriggerAfterSession && e.OffsetDays <= 0 {
		return fmt.Errorf("%w: email %q fires after its session but offset is %d", ErrInvalidCatalog, e.ID, e.OffsetDays)
	}
	return nil
}

// validateAcyclic runs a Kahn topological sort over the dependency edges. If
// any event remains unprocessed the remainder contains a cycle.
func (g *Graph) validateAcyclic() error {
	indegree := make(map[string]int, len(g.events))
	dependents := make(map[string][]string, len(g.events))
	for _, e := range g.events {
		indegree[e.ID] = len(e.DependsOn)
		for _, dep := range e.DependsOn {
			dependents[dep] = append(dependents[dep], e.ID)
		}
	}

	queue := make([]string, 0, len(g.events))
	for _, e := range g.events {
		if indegree[e.ID] == 0 {
			queue = append(queue, e.ID)
		}
	}

	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if processed != len(g.events) {
		remaining := make([]string, 0, len(g.events)-processed)
		for id, deg := range indegree {
			if deg > 0 {
				remaining = append(remaining, id)
			}
		}
		return fmt.Errorf("%w: dependency cycle among %v", ErrInvalidCatalog, remaining)
	}
	return nil
}
