// Package block assembles and replay-validates per-world blocks (§4.10):
// the snapshot/journal manifests a commit writes, the WorldBlock header
// that roots them, and the head announcement a follower verifies before
// trusting any of it.
package block

import (
	"agentworld/codec"
	"agentworld/crypto"
	"agentworld/world"
)

// BlobRef names a content-addressed blob by hash and its byte length, the
// same pair the on-disk file_index.json uses.
type BlobRef struct {
	ContentHash string `cbor:"content_hash" json:"content_hash"`
	Size        int    `cbor:"size" json:"size"`
}

// SnapshotManifest lists the chunks a world snapshot was split into.
type SnapshotManifest struct {
	Chunks []BlobRef `cbor:"chunks" json:"chunks"`
}

// JournalSegmentRef names one cold journal segment blob and the event id
// range it covers.
type JournalSegmentRef struct {
	BlobRef
	FirstEventID world.EventID `cbor:"first_event_id" json:"first_event_id"`
	LastEventID  world.EventID `cbor:"last_event_id" json:"last_event_id"`
}

// JournalSegments is the ordered list of segments covering the full
// journal, oldest first.
type JournalSegments struct {
	Segments []JournalSegmentRef `cbor:"segments" json:"segments"`
}

// WorldBlock is the per-height commit header: every root is
// H(canonical_cbor(collection)), and snapshot_ref/journal_ref are hashes of
// their own CBOR(SnapshotManifest)/CBOR(JournalSegments) blobs.
type WorldBlock struct {
	WorldID      world.WorldID `cbor:"world_id" json:"world_id"`
	Height       uint64        `cbor:"height" json:"height"`
	ParentHash   string        `cbor:"parent_hash,omitempty" json:"parent_hash,omitempty"`
	SnapshotRef  string        `cbor:"snapshot_ref" json:"snapshot_ref"`
	JournalRef   string        `cbor:"journal_ref" json:"journal_ref"`
	ActionRoot   string        `cbor:"action_root" json:"action_root"`
	EventRoot    string        `cbor:"event_root" json:"event_root"`
	ReceiptsRoot string        `cbor:"receipts_root" json:"receipts_root"`
	StateRoot    string        `cbor:"state_root" json:"state_root"`
}

// Hash returns H(canonical_cbor(block)), the block_hash a WorldHeadAnnounce
// commits to.
func (b WorldBlock) Hash(alg codec.Algorithm) (string, error) {
	return codec.HashCBOR(alg, b)
}

// WorldHeadAnnounce is the gossiped pointer a follower fetches first.
type WorldHeadAnnounce struct {
	WorldID      world.WorldID `cbor:"world_id" json:"world_id"`
	Height       uint64        `cbor:"height" json:"height"`
	BlockHash    string        `cbor:"block_hash" json:"block_hash"`
	StateRoot    string        `cbor:"state_root" json:"state_root"`
	TimestampMS  int64         `cbor:"timestamp_ms" json:"timestamp_ms"`
	PublicKeyHex string        `cbor:"public_key_hex" json:"public_key_hex"`
	SignatureHex string        `cbor:"signature_hex" json:"signature_hex"`
}

func (a WorldHeadAnnounce) signingBytes() ([]byte, error) {
	a.SignatureHex = ""
	return codec.MarshalCBOR(a)
}

// Sign fills in PublicKeyHex/SignatureHex using key.
func (a *WorldHeadAnnounce) Sign(key *crypto.PrivateKey) error {
	a.PublicKeyHex = key.PubKey().Hex()
	data, err := a.signingBytes()
	if err != nil {
		return err
	}
	sig := key.Sign(data)
	a.SignatureHex = hexString(sig)
	return nil
}

// Verify checks the announce's signature against its embedded public key.
func (a WorldHeadAnnounce) Verify() bool {
	pub, err := crypto.PublicKeyFromHex(a.PublicKeyHex)
	if err != nil {
		return false
	}
	data, err := a.signingBytes()
	if err != nil {
		return false
	}
	sig, err := hexBytes(a.SignatureHex)
	if err != nil {
		return false
	}
	return pub.Verify(data, sig)
}
