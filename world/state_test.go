package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueAndPopActionIsFIFO(t *testing.T) {
	w := New()
	first := w.EnqueueAction(Action{Kind: "move"})
	second := w.EnqueueAction(Action{Kind: "speak"})
	assert.Less(t, uint64(first.ID), uint64(second.ID))

	got, ok := w.PopAction()
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)

	got, ok = w.PopAction()
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)

	_, ok = w.PopAction()
	assert.False(t, ok)
}

func TestQueueAndTakeNextEffectMovesToInflight(t *testing.T) {
	w := New()
	intent := w.QueueEffect("send_message", map[string]any{"to": "a1"}, "cap-1")
	require.Len(t, w.PendingEffects, 1)

	taken, ok := w.TakeNextEffect()
	require.True(t, ok)
	assert.Equal(t, intent.IntentID, taken.IntentID)
	assert.Empty(t, w.PendingEffects)
	assert.Contains(t, w.InflightEffects, intent.IntentID)
}

func TestModuleRegistryActivateAndList(t *testing.T) {
	reg := NewModuleRegistry()
	m1 := ModuleManifest{ModuleID: "combat", Version: "1.0.0"}
	m2 := ModuleManifest{ModuleID: "economy", Version: "1.0.0"}
	reg.Register(m1)
	reg.Register(m2)
	reg.Activate("combat", "1.0.0")
	reg.Activate("economy", "1.0.0")

	active := reg.ActiveManifests()
	require.Len(t, active, 2)
	assert.Equal(t, ModuleID("combat"), active[0].ModuleID)
	assert.Equal(t, ModuleID("economy"), active[1].ModuleID)

	reg.Deactivate("combat")
	active = reg.ActiveManifests()
	require.Len(t, active, 1)
	assert.Equal(t, ModuleID("economy"), active[0].ModuleID)
}
