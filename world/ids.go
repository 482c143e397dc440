// Package world holds the core data model shared by every component of the
// simulator: identifiers, world state, the journal, and module manifests.
package world

import "strings"

// WorldID, NodeID, AgentID, LocationID, and ModuleID are non-empty trimmed
// strings identifying the corresponding entities.
type (
	WorldID    string
	NodeID     string
	AgentID    string
	LocationID string
	ModuleID   string
)

// ActionID, EventID, ProposalID, and IntentID are monotonically allocated,
// never reused, and never rolled back across snapshots.
type (
	ActionID   uint64
	EventID    uint64
	ProposalID uint64
	IntentID   uint64
)

// TrimmedNonEmpty reports whether s is non-empty once leading/trailing
// whitespace is removed — the validity rule shared by every identifier type
// in §3.1.
func TrimmedNonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IDCursor allocates monotonically increasing, never-reused identifiers of
// the four kinds tracked in a snapshot.
type IDCursor struct {
	NextEvent    EventID
	NextAction   ActionID
	NextProposal ProposalID
	NextIntent   IntentID
}

func (c *IDCursor) allocEvent() EventID {
	id := c.NextEvent
	c.NextEvent++
	return id
}

func (c *IDCursor) allocAction() ActionID {
	id := c.NextAction
	c.NextAction++
	return id
}

func (c *IDCursor) allocProposal() ProposalID {
	id := c.NextProposal
	c.NextProposal++
	return id
}

func (c *IDCursor) allocIntent() IntentID {
	id := c.NextIntent
	c.NextIntent++
	return id
}

// AllocEvent returns the next event id and advances the cursor.
func (c *IDCursor) AllocEvent() EventID { return c.allocEvent() }

// AllocAction returns the next action id and advances the cursor.
func (c *IDCursor) AllocAction() ActionID { return c.allocAction() }

// AllocProposal returns the next proposal id and advances the cursor.
func (c *IDCursor) AllocProposal() ProposalID { return c.allocProposal() }

// AllocIntent returns the next intent id and advances the cursor.
func (c *IDCursor) AllocIntent() IntentID { return c.allocIntent() }
