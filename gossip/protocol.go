package gossip

import (
	"fmt"

	"agentworld/world"
)

// topicFor names a per-world pub/sub channel (§6.2).
func topicFor(prefix string, worldID world.WorldID) string {
	return fmt.Sprintf("%s/%s", prefix, worldID)
}

// ActionTopic, HeadTopic, EventTopic, and MembershipReconcileTopic build the
// four per-world topic names the node subscribes to.
func ActionTopic(worldID world.WorldID) string              { return topicFor("action", worldID) }
func HeadTopic(worldID world.WorldID) string                { return topicFor("head", worldID) }
func EventTopic(worldID world.WorldID) string                { return topicFor("event", worldID) }
func MembershipReconcileTopic(worldID world.WorldID) string  { return topicFor("membership-reconcile", worldID) }

// ActionEnvelope is the wire payload published on an action topic.
type ActionEnvelope struct {
	WorldID      world.WorldID `cbor:"world_id" json:"world_id"`
	ActionID     world.ActionID `cbor:"action_id" json:"action_id"`
	ActorID      string        `cbor:"actor_id" json:"actor_id"`
	ActionKind   string        `cbor:"action_kind" json:"action_kind"`
	PayloadCBOR  []byte        `cbor:"payload_cbor" json:"payload_cbor"`
	PayloadHash  string        `cbor:"payload_hash" json:"payload_hash"`
	Nonce        string        `cbor:"nonce" json:"nonce"`
	TimestampMS  int64         `cbor:"timestamp_ms" json:"timestamp_ms"`
	SignatureHex string        `cbor:"signature_hex" json:"signature_hex"`
}

// RequestKind names one of the content-addressed request/response
// protocols a node serves (§6.3).
type RequestKind string

const (
	RRGetWorldHead       RequestKind = "RR_GET_WORLD_HEAD"
	RRGetBlock           RequestKind = "RR_GET_BLOCK"
	RRFetchBlob          RequestKind = "RR_FETCH_BLOB"
	RRGetSnapshot        RequestKind = "RR_GET_SNAPSHOT"
	RRGetJournalSegment  RequestKind = "RR_GET_JOURNAL_SEGMENT"
	RRGetReceiptSegment  RequestKind = "RR_GET_RECEIPT_SEGMENT"
	RRGetModuleManifest  RequestKind = "RR_GET_MODULE_MANIFEST"
	RRGetModuleArtifact  RequestKind = "RR_GET_MODULE_ARTIFACT"
)

// GetWorldHeadRequest/Response implements RR_GET_WORLD_HEAD.
type GetWorldHeadRequest struct {
	WorldID world.WorldID `cbor:"world_id" json:"world_id"`
}

type GetWorldHeadResponse struct {
	Head []byte `cbor:"head" json:"head"` // CBOR(block.WorldHeadAnnounce)
}

// GetBlockRequest/Response implements RR_GET_BLOCK.
type GetBlockRequest struct {
	WorldID world.WorldID `cbor:"world_id" json:"world_id"`
	Height  uint64        `cbor:"height" json:"height"`
}

type GetBlockResponse struct {
	Block       []byte `cbor:"block" json:"block"` // CBOR(block.WorldBlock)
	SnapshotRef string `cbor:"snapshot_ref" json:"snapshot_ref"`
	JournalRef  string `cbor:"journal_ref" json:"journal_ref"`
}

// FetchBlobRequest/Response implements RR_FETCH_BLOB; the response's blob
// is re-hashed by the caller on receipt (§6.3), not trusted as-is.
type FetchBlobRequest struct {
	ContentHash string `cbor:"content_hash" json:"content_hash"`
}

type FetchBlobResponse struct {
	Blob        []byte `cbor:"blob" json:"blob"`
	ContentHash string `cbor:"content_hash" json:"content_hash"`
}
