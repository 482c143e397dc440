// Package kernel implements the single-threaded cooperative tick scheduler
// (§4.8): pop one action, run pre-action rules, apply the action's handler,
// journal the resulting events, and fan them out to post-event subscribers.
package kernel

import (
	"fmt"

	"agentworld/rules"
	"agentworld/world"
)

// ActionHandler applies a chosen action to sim state and returns the event
// bodies it produced. Handlers are pure: (state, action) -> (state', events).
// Every successful mutation must return at least one event (§4.8 step 4).
type ActionHandler func(state *world.SimState, action world.Action) ([]world.EventBody, error)

// RuleInvoker calls one subscribed module's rule hook for an action and
// returns its decision. The kernel is agnostic to how the call is actually
// dispatched (wasm sandbox, in-process test double, ...).
type RuleInvoker func(sub rules.Subscriber, w *world.World, env world.ActionEnvelope) (rules.Decision, error)

// EventSubscriber is invoked once per post-event subscriber match. A non-nil
// error ends Step, which returns it wrapped with the subscriber's module id;
// events already journaled by that Step stay in the journal.
type EventSubscriber func(sub rules.Subscriber, w *world.World, ev world.WorldEvent) error

// Kernel drives step() over a World using caller-registered handlers and
// rule/post-event subscriber lists.
type Kernel struct {
	Handlers        map[string]ActionHandler
	RuleSubs        []rules.Subscriber
	PostEventSubs   []rules.Subscriber
	InvokeRule      RuleInvoker
	InvokePostEvent EventSubscriber
	Now             func() int64
}

// StepResult reports what one Step call did, for callers that want to log
// or test tick outcomes without re-deriving them from the journal.
type StepResult struct {
	Action    world.ActionEnvelope
	Decisions []rules.Decision
	Merged    rules.Merged
	Rejected  bool
	Events    []world.WorldEvent
}

// Step pops one pending action and fully processes it, or reports
// (StepResult{}, false, nil) if no action was pending.
func (k *Kernel) Step(w *world.World) (StepResult, bool, error) {
	env, ok := w.PopAction()
	if !ok {
		return StepResult{}, false, nil
	}

	now := env.ID // fallback ordering key if Now is unset
	var t int64 = int64(now)
	if k.Now != nil {
		t = k.Now()
	}

	result := StepResult{Action: env}

	matched := rules.OrderSubscribers(k.RuleSubs, env.Action.Kind)
	decisions := make([]rules.Decision, 0, len(matched))
	for _, sub := range matched {
		if k.InvokeRule == nil {
			continue
		}
		decision, err := k.InvokeRule(sub, w, env)
		if err != nil {
			return result, true, fmt.Errorf("world: rule invocation for module %s: %w", sub.ModuleID, err)
		}
		decisions = append(decisions, decision)
	}
	result.Decisions = decisions

	merged, err := rules.Merge(env.ID, decisions)
	if err != nil {
		return result, true, err
	}
	result.Merged = merged

	appendEvent := func(body world.EventBody, caused *world.CausedBy) (world.WorldEvent, error) {
		ev := world.WorldEvent{ID: w.Cursor.AllocEvent(), Time: t, Body: body, CausedBy: caused}
		if err := w.JournalAppend(ev); err != nil {
			return world.WorldEvent{}, err
		}
		result.Events = append(result.Events, ev)
		return ev, nil
	}

	for _, d := range decisions {
		if _, err := appendEvent(world.RuleDecisionRecordedBody{
			ActionID: d.ActionID, ModuleID: d.ModuleID, Verdict: string(d.Verdict), Notes: d.Notes,
		}, world.CausedByAction(env.ID)); err != nil {
			return result, true, err
		}
	}

	if merged.Verdict == rules.VerdictDeny {
		result.Rejected = true
		if _, err := appendEvent(world.ActionRejectedBody{
			ActionID: env.ID, Reason: rules.DenyReason(merged.Notes), Notes: merged.Notes,
		}, world.CausedByAction(env.ID)); err != nil {
			return result, true, err
		}
		return result, true, nil
	}

	action := env.Action
	if merged.Verdict == rules.VerdictModify {
		original := env.Action
		action = *merged.OverrideAction
		if _, err := appendEvent(world.ActionOverriddenBody{
			ActionID: env.ID, Original: original, Override: action,
		}, world.CausedByAction(env.ID)); err != nil {
			return result, true, err
		}
	}

	handler, ok := k.Handlers[action.Kind]
	if !ok {
		return result, true, fmt.Errorf("world: no handler registered for action kind %q", action.Kind)
	}
	bodies, err := handler(&w.State, action)
	if err != nil {
		return result, true, fmt.Errorf("world: handler for action kind %q: %w", action.Kind, err)
	}
	if len(bodies) == 0 {
		return result, true, fmt.Errorf("world: handler for action kind %q produced no events", action.Kind)
	}

	for _, body := range bodies {
		ev, err := appendEvent(body, world.CausedByAction(env.ID))
		if err != nil {
			return result, true, err
		}
		for _, sub := range rules.OrderPostEventSubscribers(k.PostEventSubs, body.Kind()) {
			if k.InvokePostEvent == nil {
				continue
			}
			if err := k.InvokePostEvent(sub, w, ev); err != nil {
				return result, true, fmt.Errorf("world: post-event subscriber %s for event %q: %w", sub.ModuleID, body.Kind(), err)
			}
		}
	}

	return result, true, nil
}
