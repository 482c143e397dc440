package world

import (
	"fmt"

	"agentworld/codec"
)

// eventWireForm is the on-the-wire shape of a WorldEvent: the body is a
// kind tag plus its canonically-encoded payload, since cbor cannot encode
// an interface value without knowing which concrete type backs it.
type eventWireForm struct {
	ID         EventID  `cbor:"id"`
	Time       int64    `cbor:"time"`
	BodyKind   string   `cbor:"body_kind"`
	BodyData   []byte   `cbor:"body_data"`
	CausedBy   *CausedBy `cbor:"caused_by,omitempty"`
}

// bodyConstructors maps a body kind tag to a fresh zero value of its
// concrete type, used when decoding.
var bodyConstructors = map[string]func() EventBody{
	"Domain":                 func() EventBody { return &DomainEvent{} },
	"EffectQueued":           func() EventBody { return &EffectQueuedBody{} },
	"ReceiptAppended":        func() EventBody { return &ReceiptAppendedBody{} },
	"ModuleEvent":            func() EventBody { return &ModuleEventBody{} },
	"ModuleEmitted":          func() EventBody { return &ModuleEmittedBody{} },
	"ModuleStateUpdated":     func() EventBody { return &ModuleStateUpdatedBody{} },
	"PolicyDecisionRecorded": func() EventBody { return &PolicyDecisionRecordedBody{} },
	"RuleDecisionRecorded":   func() EventBody { return &RuleDecisionRecordedBody{} },
	"ActionOverridden":       func() EventBody { return &ActionOverriddenBody{} },
	"ActionRejected":         func() EventBody { return &ActionRejectedBody{} },
	"Governance":             func() EventBody { return &GovernanceBody{} },
	"ManifestUpdated":        func() EventBody { return &ManifestUpdatedBody{} },
	"RollbackApplied":        func() EventBody { return &RollbackAppliedBody{} },
	"ModuleRuntimeCharged":   func() EventBody { return &ModuleRuntimeChargedBody{} },
}

// MarshalCBOR implements cbor.Marshaler so WorldEvent always encodes its
// tagged body deterministically regardless of the concrete Go type behind
// the EventBody interface.
func (e WorldEvent) MarshalCBOR() ([]byte, error) {
	if e.Body == nil {
		return nil, fmt.Errorf("world: event %d has nil body", e.ID)
	}
	bodyData, err := codec.MarshalCBOR(e.Body)
	if err != nil {
		return nil, fmt.Errorf("world: encode event %d body: %w", e.ID, err)
	}
	wire := eventWireForm{
		ID:       e.ID,
		Time:     e.Time,
		BodyKind: e.Body.Kind(),
		BodyData: bodyData,
		CausedBy: e.CausedBy,
	}
	return codec.MarshalCBOR(wire)
}

// UnmarshalCBOR implements cbor.Unmarshaler, reconstructing the concrete
// body type from its kind tag.
func (e *WorldEvent) UnmarshalCBOR(data []byte) error {
	var wire eventWireForm
	if err := codec.UnmarshalCBOR(data, &wire); err != nil {
		return err
	}
	ctor, ok := bodyConstructors[wire.BodyKind]
	if !ok {
		return fmt.Errorf("world: unknown event body kind %q", wire.BodyKind)
	}
	body := ctor()
	if err := codec.UnmarshalCBOR(wire.BodyData, body); err != nil {
		return fmt.Errorf("world: decode event %d body: %w", wire.ID, err)
	}
	e.ID = wire.ID
	e.Time = wire.Time
	e.Body = body
	e.CausedBy = wire.CausedBy
	return nil
}
