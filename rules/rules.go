// Package rules implements the per-action rule evaluator and its decision
// merge semantics (§4.7): every subscribed module is invoked in canonical
// order and their verdicts are folded into one outcome for the action.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"agentworld/world"
)

// Verdict is one module's rule decision for an action.
type Verdict string

const (
	VerdictAllow  Verdict = "Allow"
	VerdictDeny   Verdict = "Deny"
	VerdictModify Verdict = "Modify"
)

// Decision is one module's RuleDecision output (§4.7).
type Decision struct {
	ActionID       world.ActionID
	ModuleID       world.ModuleID
	ModuleVersion  string
	Verdict        Verdict
	OverrideAction *world.Action
	Cost           map[string]int64
	Notes          []string
}

// Subscriber identifies one module subscribed to rule evaluation, either at
// PreAction (matched by action kind) or PostEvent (matched by event kind),
// in its registered order key.
type Subscriber struct {
	ModuleID      world.ModuleID
	ModuleVersion string
	Stage         world.Stage
	ActionKinds   []string
	EventKinds    []string
}

// Matches reports whether sub is subscribed to actionKind at StagePreAction.
func (sub Subscriber) Matches(actionKind string) bool {
	if sub.Stage != world.StagePreAction {
		return false
	}
	if len(sub.ActionKinds) == 0 {
		return true
	}
	for _, k := range sub.ActionKinds {
		if k == actionKind {
			return true
		}
	}
	return false
}

// MatchesEvent reports whether sub is subscribed to eventKind at
// StagePostEvent.
func (sub Subscriber) MatchesEvent(eventKind string) bool {
	if sub.Stage != world.StagePostEvent {
		return false
	}
	if len(sub.EventKinds) == 0 {
		return true
	}
	for _, k := range sub.EventKinds {
		if k == eventKind {
			return true
		}
	}
	return false
}

// OrderSubscribers returns the subset of subs matching actionKind sorted by
// the total lex order (stage, module_id, version) invariant 6 requires.
// All matched subscribers share StagePreAction so the effective sort key is
// (module_id, version).
func OrderSubscribers(subs []Subscriber, actionKind string) []Subscriber {
	matched := make([]Subscriber, 0, len(subs))
	for _, s := range subs {
		if s.Matches(actionKind) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ModuleID != matched[j].ModuleID {
			return matched[i].ModuleID < matched[j].ModuleID
		}
		return matched[i].ModuleVersion < matched[j].ModuleVersion
	})
	return matched
}

// OrderPostEventSubscribers returns the subset of subs subscribed to
// eventKind at StagePostEvent, in the same canonical (module_id, version)
// order invariant 6 requires.
func OrderPostEventSubscribers(subs []Subscriber, eventKind string) []Subscriber {
	matched := make([]Subscriber, 0, len(subs))
	for _, s := range subs {
		if s.MatchesEvent(eventKind) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ModuleID != matched[j].ModuleID {
			return matched[i].ModuleID < matched[j].ModuleID
		}
		return matched[i].ModuleVersion < matched[j].ModuleVersion
	})
	return matched
}

// Merged is the outcome of folding every module's Decision for one action.
type Merged struct {
	Verdict        Verdict
	OverrideAction *world.Action
	Cost           map[string]int64
	Notes          []string
}

// Merge implements merge_rule_decisions (§4.7). decisions must all share the
// same action id; a mismatch is reported as ErrActionIDMismatch.
func Merge(actionID world.ActionID, decisions []Decision) (Merged, error) {
	merged := Merged{Verdict: VerdictAllow, Cost: make(map[string]int64)}

	var anyDeny bool
	var modifyOverride *world.Action

	for _, d := range decisions {
		if d.ActionID != actionID {
			return Merged{}, fmt.Errorf("%w: decision from %s carries action id %d, want %d", world.ErrActionIDMismatch, d.ModuleID, d.ActionID, actionID)
		}
		for k, v := range d.Cost {
			merged.Cost[k] += v
		}
		merged.Notes = append(merged.Notes, d.Notes...)

		switch d.Verdict {
		case VerdictDeny:
			anyDeny = true
		case VerdictModify:
			if d.OverrideAction == nil {
				return Merged{}, fmt.Errorf("%w: module %s returned Modify with no override_action", world.ErrMissingOverride, d.ModuleID)
			}
			if modifyOverride == nil {
				modifyOverride = d.OverrideAction
			} else if !modifyOverride.Equal(*d.OverrideAction) {
				return Merged{}, fmt.Errorf("%w: module %s's override conflicts with an earlier Modify", world.ErrConflictingOverride, d.ModuleID)
			}
		case VerdictAllow:
		default:
			return Merged{}, fmt.Errorf("world: unknown verdict %q from module %s", d.Verdict, d.ModuleID)
		}
	}

	switch {
	case anyDeny:
		merged.Verdict = VerdictDeny
	case modifyOverride != nil:
		merged.Verdict = VerdictModify
		merged.OverrideAction = modifyOverride
	default:
		merged.Verdict = VerdictAllow
	}
	return merged, nil
}

// RecordedEvents builds the RuleDecisionRecorded event bodies for every
// decision, in the same order they were evaluated (§4.7: "every module's
// decision is recorded").
func RecordedEvents(decisions []Decision) []world.RuleDecisionRecordedBody {
	out := make([]world.RuleDecisionRecordedBody, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, world.RuleDecisionRecordedBody{
			ActionID: d.ActionID,
			ModuleID: d.ModuleID,
			Verdict:  string(d.Verdict),
			Notes:    d.Notes,
		})
	}
	return out
}

// DenyReason formats the notes attached to a Deny verdict for
// ActionRejected{reason: RuleDenied{notes}} (§4.7).
func DenyReason(notes []string) string {
	if len(notes) == 0 {
		return "RuleDenied"
	}
	return "RuleDenied: " + strings.Join(notes, "; ")
}
