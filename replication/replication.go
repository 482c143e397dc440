// Package replication implements the single-writer replication guard
// (§4.13): it rejects any replication record that does not strictly advance
// the known writer's sequence, and persists accepted payloads into CAS.
package replication

import (
	"fmt"

	"agentworld/codec"
	"agentworld/storage"
	"agentworld/world"
)

// Record is one inbound replication message.
type Record struct {
	WriterID     string
	Sequence     uint64
	PayloadHash  string
	SenderNodeID string
}

// Guard is SingleWriterReplicationGuard: it remembers which node_id is
// allowed to write and the last sequence it accepted.
type Guard struct {
	WriterID     *string
	LastSequence uint64
}

// ApplyReplicationRecord implements apply_replication_record (§4.13).
// selfNodeID lets the caller ignore its own echoed records without the
// guard needing direct access to the node's identity.
func ApplyReplicationRecord(blobs *storage.BlobStore, guard *Guard, record Record, payload []byte, selfNodeID string) error {
	if record.SenderNodeID != "" && record.SenderNodeID == selfNodeID {
		return nil
	}

	if guard.WriterID != nil && *guard.WriterID != record.WriterID {
		return fmt.Errorf("%w: record writer %s does not match bound writer %s", world.ErrReplicationConflict, record.WriterID, *guard.WriterID)
	}
	if record.Sequence <= guard.LastSequence && guard.WriterID != nil {
		return fmt.Errorf("%w: sequence %d does not advance past %d", world.ErrReplicationConflict, record.Sequence, guard.LastSequence)
	}

	actualHash := codec.Hash(blobs.Algorithm(), payload)
	if actualHash != record.PayloadHash {
		return fmt.Errorf("%w: payload_hash %s does not match computed %s", world.ErrBlobHashMismatch, record.PayloadHash, actualHash)
	}

	if err := blobs.Put(record.PayloadHash, payload); err != nil {
		return fmt.Errorf("world: store replication payload: %w", err)
	}

	writerID := record.WriterID
	guard.WriterID = &writerID
	guard.LastSequence = record.Sequence
	return nil
}
