package block

import (
	"fmt"

	"agentworld/codec"
	"agentworld/storage"
	"agentworld/world"
)

// ChunkBytes splits data into chunks of at most chunkSize bytes each, in
// order. A zero-length input yields a single empty chunk so callers never
// have to special-case an empty snapshot.
func ChunkBytes(data []byte, chunkSize int) [][]byte {
	if chunkSize <= 0 {
		chunkSize = 1 << 18
	}
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

// StoreSnapshotManifest chunks snapshotBytes, stores each chunk and the
// manifest itself in blobs, and returns the manifest plus its content hash
// (the block's snapshot_ref).
func StoreSnapshotManifest(blobs *storage.BlobStore, snapshotBytes []byte, chunkSize int) (*SnapshotManifest, string, error) {
	manifest := &SnapshotManifest{}
	for _, chunk := range ChunkBytes(snapshotBytes, chunkSize) {
		hash := codec.Hash(blobs.Algorithm(), chunk)
		if err := blobs.Put(hash, chunk); err != nil {
			return nil, "", fmt.Errorf("store snapshot chunk: %w", err)
		}
		manifest.Chunks = append(manifest.Chunks, BlobRef{ContentHash: hash, Size: len(chunk)})
	}
	ref, err := blobs.PutValue(manifest)
	if err != nil {
		return nil, "", fmt.Errorf("store snapshot manifest: %w", err)
	}
	return manifest, ref, nil
}

// StoreJournalSegments splits events into ordered segments of at most
// segmentSize entries, stores each segment and the segment list in blobs,
// and returns the segment list plus its content hash (the block's
// journal_ref).
func StoreJournalSegments(blobs *storage.BlobStore, events []world.WorldEvent, segmentSize int) (*JournalSegments, string, error) {
	if segmentSize <= 0 {
		segmentSize = 1024
	}
	segs := &JournalSegments{}
	for off := 0; off < len(events); off += segmentSize {
		end := off + segmentSize
		if end > len(events) {
			end = len(events)
		}
		slice := events[off:end]
		data, err := codec.MarshalCBOR(slice)
		if err != nil {
			return nil, "", fmt.Errorf("encode journal segment: %w", err)
		}
		hash := codec.Hash(blobs.Algorithm(), data)
		if err := blobs.Put(hash, data); err != nil {
			return nil, "", fmt.Errorf("store journal segment: %w", err)
		}
		segs.Segments = append(segs.Segments, JournalSegmentRef{
			BlobRef:      BlobRef{ContentHash: hash, Size: len(data)},
			FirstEventID: slice[0].ID,
			LastEventID:  slice[len(slice)-1].ID,
		})
	}
	ref, err := blobs.PutValue(segs)
	if err != nil {
		return nil, "", fmt.Errorf("store journal segments: %w", err)
	}
	return segs, ref, nil
}

// ComputeRoot implements the block's uniform root construction,
// root = H(canonical_cbor(collection)), shared by action_root, event_root,
// and receipts_root.
func ComputeRoot(alg codec.Algorithm, collection any) (string, error) {
	return codec.HashCBOR(alg, collection)
}

// AssembleBlock composes a WorldBlock from its already-computed refs and
// roots (§4.10's commit-time assembly).
func AssembleBlock(worldID world.WorldID, height uint64, parentHash, snapshotRef, journalRef, actionRoot, eventRoot, receiptsRoot, stateRoot string) WorldBlock {
	return WorldBlock{
		WorldID:      worldID,
		Height:       height,
		ParentHash:   parentHash,
		SnapshotRef:  snapshotRef,
		JournalRef:   journalRef,
		ActionRoot:   actionRoot,
		EventRoot:    eventRoot,
		ReceiptsRoot: receiptsRoot,
		StateRoot:    stateRoot,
	}
}
