package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld/rules"
	"agentworld/world"
)

func moveHandler(state *world.SimState, action world.Action) ([]world.EventBody, error) {
	dest, _ := action.Params["dest"].(string)
	return []world.EventBody{world.DomainEvent{DomainKind: "agent_moved", Payload: map[string]any{"dest": dest}}}, nil
}

func TestKernelStepAppliesAllowedAction(t *testing.T) {
	w := world.New()
	w.EnqueueAction(world.Action{Kind: "move", Params: map[string]any{"dest": "plaza"}})

	k := &Kernel{
		Handlers: map[string]ActionHandler{"move": moveHandler},
	}

	result, had, err := k.Step(w)
	require.NoError(t, err)
	require.True(t, had)
	assert.False(t, result.Rejected)
	assert.Equal(t, rules.VerdictAllow, result.Merged.Verdict)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "Domain", result.Events[0].Body.Kind())
	assert.Equal(t, uint64(1), w.JournalLen)
}

func TestKernelStepRejectsOnDeny(t *testing.T) {
	w := world.New()
	w.EnqueueAction(world.Action{Kind: "move"})

	k := &Kernel{
		Handlers: map[string]ActionHandler{"move": moveHandler},
		RuleSubs: []rules.Subscriber{{ModuleID: "guard", Stage: world.StagePreAction}},
		InvokeRule: func(sub rules.Subscriber, w *world.World, env world.ActionEnvelope) (rules.Decision, error) {
			return rules.Decision{ActionID: env.ID, ModuleID: sub.ModuleID, Verdict: rules.VerdictDeny, Notes: []string{"frozen"}}, nil
		},
	}

	result, had, err := k.Step(w)
	require.NoError(t, err)
	require.True(t, had)
	assert.True(t, result.Rejected)
	require.Len(t, result.Events, 2) // RuleDecisionRecorded + ActionRejected
	assert.Equal(t, "ActionRejected", result.Events[1].Body.Kind())
}

func TestKernelStepAppliesModifyOverride(t *testing.T) {
	w := world.New()
	w.EnqueueAction(world.Action{Kind: "move", Params: map[string]any{"dest": "plaza"}})

	override := world.Action{Kind: "move", Params: map[string]any{"dest": "jail"}}
	k := &Kernel{
		Handlers: map[string]ActionHandler{"move": moveHandler},
		RuleSubs: []rules.Subscriber{{ModuleID: "guard", Stage: world.StagePreAction}},
		InvokeRule: func(sub rules.Subscriber, w *world.World, env world.ActionEnvelope) (rules.Decision, error) {
			return rules.Decision{ActionID: env.ID, ModuleID: sub.ModuleID, Verdict: rules.VerdictModify, OverrideAction: &override}, nil
		},
	}

	result, had, err := k.Step(w)
	require.NoError(t, err)
	require.True(t, had)
	assert.False(t, result.Rejected)
	require.Len(t, result.Events, 3) // RuleDecisionRecorded + ActionOverridden + domain event
	assert.Equal(t, "ActionOverridden", result.Events[1].Body.Kind())
	domain, ok := result.Events[2].Body.(world.DomainEvent)
	require.True(t, ok)
	assert.Equal(t, "jail", domain.Payload["dest"])
}

func TestKernelStepInvokesPostEventSubscribers(t *testing.T) {
	w := world.New()
	w.EnqueueAction(world.Action{Kind: "move", Params: map[string]any{"dest": "plaza"}})

	var invoked []string
	k := &Kernel{
		Handlers:      map[string]ActionHandler{"move": moveHandler},
		PostEventSubs: []rules.Subscriber{{ModuleID: "observer", Stage: world.StagePostEvent}},
		InvokePostEvent: func(sub rules.Subscriber, w *world.World, ev world.WorldEvent) error {
			invoked = append(invoked, string(sub.ModuleID))
			return nil
		},
	}

	_, had, err := k.Step(w)
	require.NoError(t, err)
	require.True(t, had)
	assert.Equal(t, []string{"observer"}, invoked)
}

func TestKernelStepReturnsFalseWhenNoActionsPending(t *testing.T) {
	w := world.New()
	k := &Kernel{Handlers: map[string]ActionHandler{}}
	_, had, err := k.Step(w)
	require.NoError(t, err)
	assert.False(t, had)
}
