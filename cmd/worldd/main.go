// Command world_demo drives a handful of kernel ticks over an in-memory
// world and prints one line per tick, per §6.5.
package main

import (
	"flag"
	"fmt"
	"os"

	"agentworld/kernel"
	"agentworld/observability/logging"
	"agentworld/world"
)

func main() {
	ticks := flag.Int("ticks", 10, "number of kernel ticks to run")
	scenarioFilePath := flag.String("scenario-file", "", "path to a YAML scenario file (overrides the built-in demo scenario)")
	flag.Parse()

	scenario := "default"
	if args := flag.Args(); len(args) > 0 {
		scenario = args[0]
	}

	logger := logging.Setup("world_demo", "")

	var (
		w   *world.World
		k   *kernel.Kernel
		err error
	)
	if *scenarioFilePath != "" {
		w, k, err = initWorldFromFile(*scenarioFilePath)
	} else {
		w, k, err = initWorld(scenario)
	}
	if err != nil {
		logger.Error("init failed", "error", err)
		os.Exit(1)
	}

	for n := 1; n <= *ticks; n++ {
		result, ran, err := k.Step(w)
		if err != nil {
			logger.Error("tick failed", "tick", n, "error", err)
			os.Exit(1)
		}
		if !ran {
			fmt.Printf("tick=%d idle\n", n)
			continue
		}
		agentID, _ := result.Action.Action.Params["agent_id"].(string)
		fmt.Printf("tick=%d agent=%s success=%v action=%+v\n", n, agentID, !result.Rejected, result.Action.Action)
	}
}

// initWorld builds the demo world and kernel for scenario, seeding a handful
// of move_agent actions so there's something to step through.
func initWorld(scenario string) (*world.World, *kernel.Kernel, error) {
	w := world.New()
	w.Manifest = world.Manifest{Version: 1, Content: map[string]any{"scenario": scenario}}

	agents := []string{"agent-1", "agent-2", "agent-3"}
	for i, id := range agents {
		w.State.Agents[world.AgentID(id)] = map[string]any{"x": int64(0), "y": int64(0)}
		w.EnqueueAction(world.Action{
			Kind: "move_agent",
			Params: map[string]any{
				"agent_id": id,
				"dx":       int64(i + 1),
				"dy":       int64(0),
			},
		})
	}

	k := &kernel.Kernel{
		Handlers: map[string]kernel.ActionHandler{
			"move_agent": moveAgentHandler,
		},
		Now: tickClock(),
	}
	return w, k, nil
}

// initWorldFromFile builds the world and kernel from a user-supplied YAML
// scenario file instead of the hardcoded demo roster.
func initWorldFromFile(path string) (*world.World, *kernel.Kernel, error) {
	sf, err := loadScenarioFile(path)
	if err != nil {
		return nil, nil, err
	}

	w := world.New()
	w.Manifest = world.Manifest{Version: 1, Content: map[string]any{"scenario_file": path}}
	seedFromFile(w, sf)

	k := &kernel.Kernel{
		Handlers: map[string]kernel.ActionHandler{
			"move_agent": moveAgentHandler,
		},
		Now: tickClock(),
	}
	return w, k, nil
}

func moveAgentHandler(state *world.SimState, action world.Action) ([]world.EventBody, error) {
	agentID, _ := action.Params["agent_id"].(string)
	if agentID == "" {
		return nil, fmt.Errorf("world_demo: move_agent requires agent_id")
	}
	pos, ok := state.Agents[world.AgentID(agentID)]
	if !ok {
		return nil, fmt.Errorf("world_demo: unknown agent %q", agentID)
	}
	dx, _ := action.Params["dx"].(int64)
	dy, _ := action.Params["dy"].(int64)
	x, _ := pos["x"].(int64)
	y, _ := pos["y"].(int64)
	x += dx
	y += dy
	pos["x"], pos["y"] = x, y

	return []world.EventBody{world.DomainEvent{
		DomainKind: "AgentMoved",
		Payload:    map[string]any{"agent_id": agentID, "x": x, "y": y},
	}}, nil
}

// tickClock returns a monotonically-increasing fake clock, avoiding a wall
// clock dependency so demo runs are reproducible.
func tickClock() func() int64 {
	var t int64
	return func() int64 {
		t++
		return t
	}
}
