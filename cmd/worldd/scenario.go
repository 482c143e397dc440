package main

import (
	"fmt"
	"os"

	"agentworld/world"

	"gopkg.in/yaml.v3"
)

// scenarioFile is the on-disk shape of a --scenario-file YAML document: a
// starting agent roster plus the actions to seed into the world before the
// first tick. Kept deliberately small — this is a demo driver's input, not
// a full world snapshot format.
type scenarioFile struct {
	Agents []agentSpec  `yaml:"agents"`
	Actions []actionSpec `yaml:"actions"`
}

type agentSpec struct {
	ID string `yaml:"id"`
	X  int64  `yaml:"x"`
	Y  int64  `yaml:"y"`
}

type actionSpec struct {
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params"`
}

// loadScenarioFile reads and parses a scenario YAML document from path.
func loadScenarioFile(path string) (*scenarioFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("world_demo: read scenario file: %w", err)
	}
	var sf scenarioFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("world_demo: parse scenario file: %w", err)
	}
	if len(sf.Agents) == 0 {
		return nil, fmt.Errorf("world_demo: scenario file %s defines no agents", path)
	}
	return &sf, nil
}

// seedFromFile populates w with the agents and actions described by sf,
// converting the numbers yaml.v3 decodes into params (int for integer
// scalars, float64 for decimal ones) to int64 where they are whole, so
// handlers written against the built-in demo scenario (which uses int64
// literals) work unchanged against file-driven scenarios too.
func seedFromFile(w *world.World, sf *scenarioFile) {
	for _, a := range sf.Agents {
		w.State.Agents[world.AgentID(a.ID)] = map[string]any{"x": a.X, "y": a.Y}
	}
	for _, act := range sf.Actions {
		w.EnqueueAction(world.Action{Kind: act.Kind, Params: normalizeParams(act.Params)})
	}
}

func normalizeParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if i, ok := v.(int); ok {
			out[k] = int64(i)
			continue
		}
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			out[k] = int64(f)
			continue
		}
		out[k] = v
	}
	return out
}
