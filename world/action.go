package world

// Action is a kind-tagged intent to mutate world state. Params carries the
// kind-specific payload; concrete action kinds (e.g. "move_agent") are
// interpreted by handlers registered with the kernel, not by this package.
type Action struct {
	Kind   string         `cbor:"kind" json:"kind"`
	Params map[string]any `cbor:"params" json:"params"`
}

// ActionEnvelope wraps an Action with its allocated id, as queued in
// pending_actions.
type ActionEnvelope struct {
	ID     ActionID `cbor:"id" json:"id"`
	Action Action   `cbor:"action" json:"action"`
}

// Equal reports whether two actions carry the same kind and params, used by
// override-conflict detection (§4.7).
func (a Action) Equal(other Action) bool {
	if a.Kind != other.Kind {
		return false
	}
	if len(a.Params) != len(other.Params) {
		return false
	}
	for k, v := range a.Params {
		ov, ok := other.Params[k]
		if !ok || !paramsEqual(v, ov) {
			return false
		}
	}
	return true
}

func paramsEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !paramsEqual(v, bv[k]) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !paramsEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
