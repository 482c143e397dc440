package block

import (
	"fmt"
	"sort"

	"agentworld/codec"
	"agentworld/storage"
	"agentworld/world"
)

// ValidateHead implements replay step 1: the head's signature must verify
// against its embedded public key (the caller is responsible for checking
// that key against a trusted signer keyring).
func ValidateHead(head WorldHeadAnnounce) error {
	if !head.Verify() {
		return fmt.Errorf("%w: head signature invalid", world.ErrDistributedValidationFailed)
	}
	return nil
}

// ValidateBlockMatchesHead implements replay step 2: the fetched block must
// hash to head.BlockHash and agree with the head on world_id/height/
// state_root.
func ValidateBlockMatchesHead(blk WorldBlock, head WorldHeadAnnounce, alg codec.Algorithm) error {
	hash, err := blk.Hash(alg)
	if err != nil {
		return fmt.Errorf("hash block: %w", err)
	}
	if hash != head.BlockHash {
		return fmt.Errorf("%w: block_hash %s does not match head %s", world.ErrDistributedValidationFailed, hash, head.BlockHash)
	}
	if blk.WorldID != head.WorldID || blk.Height != head.Height || blk.StateRoot != head.StateRoot {
		return fmt.Errorf("%w: block does not match head's world_id/height/state_root", world.ErrDistributedValidationFailed)
	}
	return nil
}

// VerifySnapshotManifest implements replay step 3: the manifest's own hash
// must equal block.snapshot_ref, and every chunk it lists must re-hash
// correctly (surfacing storage.ErrBlobHashMismatch as
// DistributedValidationFailed, per §4.10's corruption-detection rule).
// It returns the reassembled snapshot bytes.
func VerifySnapshotManifest(blobs *storage.BlobStore, blk WorldBlock, manifest SnapshotManifest) ([]byte, error) {
	ref, err := blobs.PutValue(manifest)
	if err != nil {
		return nil, fmt.Errorf("hash snapshot manifest: %w", err)
	}
	if ref != blk.SnapshotRef {
		return nil, fmt.Errorf("%w: snapshot manifest hash %s does not match block.snapshot_ref %s", world.ErrDistributedValidationFailed, ref, blk.SnapshotRef)
	}
	var out []byte
	for _, chunk := range manifest.Chunks {
		data, err := blobs.GetVerified(chunk.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot chunk %s: %v", world.ErrDistributedValidationFailed, chunk.ContentHash, err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// VerifyJournalSegments implements replay step 4: the segment list's own
// hash must equal block.journal_ref, segments must cover the journal
// contiguously with no gaps or overlaps, and every event id within and
// across segments must be strictly increasing. It returns the full decoded
// event sequence.
func VerifyJournalSegments(blobs *storage.BlobStore, blk WorldBlock, segs JournalSegments) ([]world.WorldEvent, error) {
	ref, err := blobs.PutValue(segs)
	if err != nil {
		return nil, fmt.Errorf("hash journal segments: %w", err)
	}
	if ref != blk.JournalRef {
		return nil, fmt.Errorf("%w: journal segments hash %s does not match block.journal_ref %s", world.ErrDistributedValidationFailed, ref, blk.JournalRef)
	}

	ordered := append([]JournalSegmentRef(nil), segs.Segments...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].FirstEventID < ordered[j].FirstEventID })

	var events []world.WorldEvent
	var lastID *world.EventID
	for _, seg := range ordered {
		if lastID != nil && seg.FirstEventID != *lastID+1 {
			return nil, fmt.Errorf("%w: journal segment gap/overlap before event %d", world.ErrDistributedValidationFailed, seg.FirstEventID)
		}
		data, err := blobs.GetVerified(seg.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("%w: journal segment %s: %v", world.ErrDistributedValidationFailed, seg.ContentHash, err)
		}
		var segEvents []world.WorldEvent
		if err := codec.UnmarshalCBOR(data, &segEvents); err != nil {
			return nil, fmt.Errorf("decode journal segment: %w", err)
		}
		for _, ev := range segEvents {
			if lastID != nil && ev.ID <= *lastID {
				return nil, fmt.Errorf("%w: journal event id %d did not increase past %d", world.ErrDistributedValidationFailed, ev.ID, *lastID)
			}
			id := ev.ID
			lastID = &id
			events = append(events, ev)
		}
	}
	return events, nil
}

// VerifyRoots implements replay step 5: action_root, event_root, and
// receipts_root are recomputed from the supplied collections and must
// match the block's recorded values exactly.
func VerifyRoots(blk WorldBlock, alg codec.Algorithm, actions, events, receipts any) error {
	actionRoot, err := ComputeRoot(alg, actions)
	if err != nil {
		return fmt.Errorf("recompute action_root: %w", err)
	}
	if actionRoot != blk.ActionRoot {
		return fmt.Errorf("%w: action_root mismatch", world.ErrDistributedValidationFailed)
	}
	eventRoot, err := ComputeRoot(alg, events)
	if err != nil {
		return fmt.Errorf("recompute event_root: %w", err)
	}
	if eventRoot != blk.EventRoot {
		return fmt.Errorf("%w: event_root mismatch", world.ErrDistributedValidationFailed)
	}
	receiptsRoot, err := ComputeRoot(alg, receipts)
	if err != nil {
		return fmt.Errorf("recompute receipts_root: %w", err)
	}
	if receiptsRoot != blk.ReceiptsRoot {
		return fmt.Errorf("%w: receipts_root mismatch", world.ErrDistributedValidationFailed)
	}
	return nil
}

// ReplayWorld implements replay step 6: reconstruct the World from its
// snapshot bytes, then replay every journal event from journal_len onward.
func ReplayWorld(snapshotBytes []byte, tailEvents []world.WorldEvent) (*world.World, error) {
	w, err := world.FromSnapshot(snapshotBytes)
	if err != nil {
		return nil, fmt.Errorf("reconstruct world from snapshot: %w", err)
	}
	for _, ev := range tailEvents {
		if ev.ID < world.EventID(w.JournalLen) {
			continue
		}
		if err := w.JournalAppend(ev); err != nil {
			return nil, fmt.Errorf("%w: replaying event %d: %v", world.ErrDistributedValidationFailed, ev.ID, err)
		}
	}
	return w, nil
}
