package main

import (
	"os"
	"path/filepath"
	"testing"

	"agentworld/world"
)

func TestLoadScenarioFileParsesAgentsAndActions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	contents := `agents:
  - id: agent-1
    x: 1
    y: 2
actions:
  - kind: move_agent
    params:
      agent_id: agent-1
      dx: 3
      dy: 0
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}

	sf, err := loadScenarioFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sf.Agents) != 1 || sf.Agents[0].ID != "agent-1" || sf.Agents[0].X != 1 || sf.Agents[0].Y != 2 {
		t.Fatalf("unexpected agents: %+v", sf.Agents)
	}
	if len(sf.Actions) != 1 || sf.Actions[0].Kind != "move_agent" {
		t.Fatalf("unexpected actions: %+v", sf.Actions)
	}
}

func TestLoadScenarioFileRejectsEmptyAgentRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte("actions: []\n"), 0o644); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}
	if _, err := loadScenarioFile(path); err == nil {
		t.Fatal("expected error for a scenario file with no agents")
	}
}

func TestSeedFromFileNormalizesYAMLFloatParamsToInt64(t *testing.T) {
	w := world.New()
	sf := &scenarioFile{
		Agents: []agentSpec{{ID: "agent-1", X: 0, Y: 0}},
		Actions: []actionSpec{{
			Kind:   "move_agent",
			Params: map[string]any{"agent_id": "agent-1", "dx": float64(4), "dy": float64(0)},
		}},
	}
	seedFromFile(w, sf)

	action, ok := w.PopAction()
	if !ok {
		t.Fatal("expected a seeded action")
	}
	dx, ok := action.Action.Params["dx"].(int64)
	if !ok || dx != 4 {
		t.Fatalf("expected dx normalized to int64(4), got %#v", action.Action.Params["dx"])
	}
}
