package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld/codec"
	"agentworld/crypto"
	"agentworld/storage"
	"agentworld/world"
)

func newBlobStore(t *testing.T) *storage.BlobStore {
	t.Helper()
	store, err := storage.NewBlobStore(t.TempDir(), codec.BLAKE3)
	require.NoError(t, err)
	return store
}

func sampleEvents() []world.WorldEvent {
	return []world.WorldEvent{
		{ID: 1, Time: 100, Body: world.ModuleEventBody{ModuleID: "m1", Name: "activated"}},
		{ID: 2, Time: 101, Body: world.ModuleEventBody{ModuleID: "m1", Name: "deactivated"}},
	}
}

func TestAssembleAndReplayBlockRoundTrip(t *testing.T) {
	blobs := newBlobStore(t)
	w := world.New()
	snapshotBytes, err := w.Snapshot()
	require.NoError(t, err)

	_, snapshotRef, err := StoreSnapshotManifest(blobs, snapshotBytes, 16)
	require.NoError(t, err)

	events := sampleEvents()
	_, journalRef, err := StoreJournalSegments(blobs, events, 1)
	require.NoError(t, err)

	actions := []string{"a1", "a2"}
	receipts := []string{"r1"}
	actionRoot, err := ComputeRoot(codec.BLAKE3, actions)
	require.NoError(t, err)
	eventRoot, err := ComputeRoot(codec.BLAKE3, events)
	require.NoError(t, err)
	receiptsRoot, err := ComputeRoot(codec.BLAKE3, receipts)
	require.NoError(t, err)
	stateRoot, err := ComputeRoot(codec.BLAKE3, w.State)
	require.NoError(t, err)

	blk := AssembleBlock(world.WorldID("w1"), 1, "", snapshotRef, journalRef, actionRoot, eventRoot, receiptsRoot, stateRoot)
	blockHash, err := blk.Hash(codec.BLAKE3)
	require.NoError(t, err)

	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	head := WorldHeadAnnounce{WorldID: blk.WorldID, Height: blk.Height, BlockHash: blockHash, StateRoot: blk.StateRoot, TimestampMS: 1000}
	require.NoError(t, head.Sign(priv))

	require.NoError(t, ValidateHead(head))
	require.NoError(t, ValidateBlockMatchesHead(blk, head, codec.BLAKE3))

	manifest, _, err := StoreSnapshotManifest(blobs, snapshotBytes, 16)
	require.NoError(t, err)
	reassembled, err := VerifySnapshotManifest(blobs, blk, *manifest)
	require.NoError(t, err)
	assert.Equal(t, snapshotBytes, reassembled)

	segs, _, err := StoreJournalSegments(blobs, events, 1)
	require.NoError(t, err)
	decodedEvents, err := VerifyJournalSegments(blobs, blk, *segs)
	require.NoError(t, err)
	assert.Len(t, decodedEvents, 2)

	require.NoError(t, VerifyRoots(blk, codec.BLAKE3, actions, events, receipts))

	replayed, err := ReplayWorld(snapshotBytes, decodedEvents)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), replayed.JournalLen)
}

func TestValidateHeadRejectsBadSignature(t *testing.T) {
	head := WorldHeadAnnounce{WorldID: "w1", Height: 1, BlockHash: "abc", SignatureHex: "not-a-real-sig", PublicKeyHex: "00"}
	err := ValidateHead(head)
	assert.Error(t, err)
}

func TestVerifySnapshotManifestRejectsHashMismatch(t *testing.T) {
	blobs := newBlobStore(t)
	manifest, ref, err := StoreSnapshotManifest(blobs, []byte("hello world"), 4)
	require.NoError(t, err)
	blk := WorldBlock{SnapshotRef: ref}
	tampered := *manifest
	tampered.Chunks = append([]BlobRef(nil), manifest.Chunks...)
	tampered.Chunks[0].ContentHash = "deadbeef"
	_, err = VerifySnapshotManifest(blobs, blk, tampered)
	assert.Error(t, err)
}

func TestVerifyRootsRejectsMismatch(t *testing.T) {
	blk := WorldBlock{ActionRoot: "wrong"}
	err := VerifyRoots(blk, codec.BLAKE3, []string{"a"}, []string{}, []string{})
	assert.Error(t, err)
}
