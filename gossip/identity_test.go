package gossip

import (
	"path/filepath"
	"testing"
)

func TestLoadOrCreateIdentityPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	first, err := LoadOrCreateIdentity(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.NodeID == "" {
		t.Fatal("expected a non-empty node id")
	}

	second, err := LoadOrCreateIdentity(path)
	if err != nil {
		t.Fatalf("unexpected error on reload: %v", err)
	}
	if second.NodeID != first.NodeID {
		t.Fatalf("expected reload to produce the same node id, got %s vs %s", second.NodeID, first.NodeID)
	}
}
