// Package effect implements the effect intent pipeline (§4.9): queuing
// capability/policy-admitted intents, dispatching them into flight, and
// folding returned receipts into the chained receipts root (§3.5 invariant
// 7).
package effect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"agentworld/capability"
	"agentworld/codec"
	"agentworld/world"
)

// Origin identifies what requested an effect, carried through for audit
// purposes but not interpreted by this package.
type Origin struct {
	Kind string
	ID   string
}

// EmitResult is everything EmitEffect produced: the events the caller must
// journal (PolicyDecisionRecorded always, EffectQueued only on success) and,
// on success, the queued intent.
type EmitResult struct {
	PolicyEvent world.PolicyDecisionRecordedBody
	QueuedEvent *world.EffectQueuedBody
	Intent      *world.EffectIntent
	Err         error
}

// EmitEffect implements `emit_effect(kind, params, cap_ref, origin)`: it
// allocates an intent id, runs capability+policy admission, and on success
// appends the intent to pending_effects.
func EmitEffect(w *world.World, kind string, params map[string]any, capRef string, now int64) EmitResult {
	intentID := w.Cursor.AllocIntent()
	admit := capability.Admit(w.Capabilities, w.Policies, kind, params, capRef, now)
	if admit.Err != nil {
		return EmitResult{PolicyEvent: admit.Event, Err: admit.Err}
	}

	intent := world.EffectIntent{IntentID: intentID, EffectKind: kind, Params: params, CapRef: capRef}
	w.PendingEffects = append(w.PendingEffects, intent)
	queuedBody := world.EffectQueuedBody{
		IntentID:   intent.IntentID,
		EffectKind: intent.EffectKind,
		Params:     intent.Params,
		CapRef:     intent.CapRef,
	}
	return EmitResult{PolicyEvent: admit.Event, QueuedEvent: &queuedBody, Intent: &intent}
}

// ErrInflightCapacityExceeded is the diagnostic failure take_next_effect
// reports instead of silently stalling when inflight capacity is full.
var ErrInflightCapacityExceeded = fmt.Errorf("world: inflight effect dispatch blocked")

// TakeNextEffect implements `take_next_effect()`: it moves one intent from
// pending to inflight when capacity allows. When full it leaves
// pending_effects untouched and returns the diagnostic error instead (the
// caller should surface an InflightEffectDispatchBlocked observable, not a
// hard failure).
func TakeNextEffect(w *world.World, inflightCapacity int) (world.EffectIntent, bool, error) {
	if inflightCapacity > 0 && len(w.InflightEffects) >= inflightCapacity {
		return world.EffectIntent{}, false, ErrInflightCapacityExceeded
	}
	intent, ok := w.TakeNextEffect()
	return intent, ok, nil
}

// Receipt is the caller-facing result of dispatching an effect intent,
// passed to IngestReceipt once the effect handler has a terminal outcome.
type Receipt struct {
	IntentID    world.IntentID
	Success     bool
	ResultBytes []byte
	Signature   []byte
}

// Signer produces and verifies the ed25519 signature over a receipt leaf,
// bound by the caller to the node's identity key.
type Signer interface {
	Sign(msg []byte) []byte
	Verify(msg, sig []byte) bool
}

// IngestResult is the journaled outcome of one ingest_receipt call.
type IngestResult struct {
	Event world.ReceiptAppendedBody
}

// IngestReceipt implements `ingest_receipt(receipt)` (§4.9): it verifies the
// intent is known, folds the receipts root forward, and (if signer is
// non-nil) either verifies an existing signature or signs a fresh one.
func IngestReceipt(w *world.World, r Receipt, signer Signer) (IngestResult, error) {
	_, pending := findPending(w, r.IntentID)
	_, inflight := w.InflightEffects[r.IntentID]
	if !pending && !inflight {
		return IngestResult{}, fmt.Errorf("%w: intent %d", world.ErrReceiptUnknownIntent, r.IntentID)
	}
	delete(w.InflightEffects, r.IntentID)

	height := w.JournalLen + 1
	leafHash := codec.Hash(codec.SHA256, leafBytes(r))
	nextRoot := foldReceiptsRoot(w.ReceiptsSigner.PrevRoot, height, leafHash)

	signature := r.Signature
	if signer != nil {
		if len(signature) > 0 {
			if !signer.Verify([]byte(nextRoot), signature) {
				return IngestResult{}, fmt.Errorf("world: receipt signature for intent %d failed verification", r.IntentID)
			}
		} else {
			signature = signer.Sign([]byte(nextRoot))
		}
	}

	w.ReceiptsSigner.PrevRoot = nextRoot
	w.ReceiptsSigner.Height = height

	return IngestResult{Event: world.ReceiptAppendedBody{
		IntentID:     r.IntentID,
		Success:      r.Success,
		ResultBytes:  r.ResultBytes,
		ReceiptsRoot: nextRoot,
		Signature:    signature,
	}}, nil
}

func findPending(w *world.World, id world.IntentID) (world.EffectIntent, bool) {
	for _, intent := range w.PendingEffects {
		if intent.IntentID == id {
			return intent, true
		}
	}
	return world.EffectIntent{}, false
}

func leafBytes(r Receipt) []byte {
	data, _ := codec.MarshalCBOR(struct {
		IntentID    world.IntentID
		Success     bool
		ResultBytes []byte
	}{r.IntentID, r.Success, r.ResultBytes})
	return data
}

// foldReceiptsRoot implements invariant 7's
// H("receipts-root:v1"|prev_root|height|leaf_hash).
func foldReceiptsRoot(prevRoot string, height uint64, leafHash string) string {
	h := sha256.New()
	h.Write([]byte("receipts-root:v1"))
	h.Write([]byte(prevRoot))
	h.Write([]byte(fmt.Sprintf("%d", height)))
	h.Write([]byte(leafHash))
	return hex.EncodeToString(h.Sum(nil))
}
