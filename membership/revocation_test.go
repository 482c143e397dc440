package membership

import "testing"

type fakeKeyring struct {
	revoked map[string]bool
}

func newFakeKeyring(keys ...string) *fakeKeyring {
	k := &fakeKeyring{revoked: make(map[string]bool)}
	for _, key := range keys {
		k.revoked[key] = true
	}
	return k
}

func (k *fakeKeyring) RevokedKeys() []string {
	out := make([]string, 0, len(k.revoked))
	for key := range k.revoked {
		out = append(out, key)
	}
	return out
}

func (k *fakeKeyring) RevokeKey(keyID string) (bool, error) {
	if k.revoked[keyID] {
		return false, nil
	}
	k.revoked[keyID] = true
	return true, nil
}

func TestBuildRevocationCheckpointNormalizesAndHashes(t *testing.T) {
	cp, err := BuildRevocationCheckpoint("w1", "node-a", 1000, []string{" key-b ", "key-a", "key-b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cp.RevokedKeyIDs) != 2 || cp.RevokedKeyIDs[0] != "key-a" || cp.RevokedKeyIDs[1] != "key-b" {
		t.Fatalf("expected deduped sorted key ids, got %v", cp.RevokedKeyIDs)
	}
	if cp.RevokedSetHash == "" {
		t.Fatal("expected a non-empty revoked set hash")
	}
}

func TestBuildRevocationCheckpointRejectsEmptyIDs(t *testing.T) {
	if _, err := BuildRevocationCheckpoint("", "node-a", 1000, nil); err == nil {
		t.Fatal("expected error for empty world id")
	}
	if _, err := BuildRevocationCheckpoint("w1", "", 1000, nil); err == nil {
		t.Fatal("expected error for empty node id")
	}
	if _, err := BuildRevocationCheckpoint("w1", "node-a", 1000, []string{" "}); err == nil {
		t.Fatal("expected error for blank key id")
	}
}

func TestReconcileReportsInSyncWhenKeyringMatches(t *testing.T) {
	cp, err := BuildRevocationCheckpoint("w1", "node-a", 1000, []string{"key-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keyring := newFakeKeyring("key-a")

	report, err := Reconcile("w1", []RevocationCheckpoint{*cp}, keyring, ReconcilePolicy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.InSync != 1 || report.Diverged != 0 || report.Rejected != 0 {
		t.Fatalf("expected in-sync report, got %+v", report)
	}
}

func TestReconcileMergesMissingKeysWhenAutoRevokeEnabled(t *testing.T) {
	cp, err := BuildRevocationCheckpoint("w1", "node-a", 1000, []string{"key-a", "key-b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keyring := newFakeKeyring("key-a")

	report, err := Reconcile("w1", []RevocationCheckpoint{*cp}, keyring, ReconcilePolicy{AutoRevokeMissingKeys: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Diverged != 1 || report.Merged != 1 {
		t.Fatalf("expected one diverged checkpoint with one merged key, got %+v", report)
	}
	if !keyring.revoked["key-b"] {
		t.Fatal("expected key-b to be merged into the local keyring")
	}
}

func TestReconcileDivergesWithoutMergingWhenAutoRevokeDisabled(t *testing.T) {
	cp, err := BuildRevocationCheckpoint("w1", "node-a", 1000, []string{"key-a", "key-b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keyring := newFakeKeyring("key-a")

	report, err := Reconcile("w1", []RevocationCheckpoint{*cp}, keyring, ReconcilePolicy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Diverged != 1 || report.Merged != 0 {
		t.Fatalf("expected diverged with no merge, got %+v", report)
	}
	if keyring.revoked["key-b"] {
		t.Fatal("expected key-b to remain unrevoked locally")
	}
}

func TestReconcileRejectsUntrustedNode(t *testing.T) {
	cp, err := BuildRevocationCheckpoint("w1", "node-x", 1000, []string{"key-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keyring := newFakeKeyring()

	report, err := Reconcile("w1", []RevocationCheckpoint{*cp}, keyring, ReconcilePolicy{TrustedNodes: []string{"node-a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Rejected != 1 {
		t.Fatalf("expected untrusted checkpoint to be rejected, got %+v", report)
	}
}

func TestReconcileRejectsTamperedHash(t *testing.T) {
	cp, err := BuildRevocationCheckpoint("w1", "node-a", 1000, []string{"key-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cp.RevokedKeyIDs = append(cp.RevokedKeyIDs, "key-injected")
	keyring := newFakeKeyring("key-a")

	report, err := Reconcile("w1", []RevocationCheckpoint{*cp}, keyring, ReconcilePolicy{AutoRevokeMissingKeys: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Rejected != 1 {
		t.Fatalf("expected tampered checkpoint to be rejected, got %+v", report)
	}
	if keyring.revoked["key-injected"] {
		t.Fatal("expected tampered checkpoint's key to never be merged")
	}
}

func TestReconcileRejectsWrongWorldID(t *testing.T) {
	cp, err := BuildRevocationCheckpoint("w1", "node-a", 1000, []string{"key-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keyring := newFakeKeyring()

	report, err := Reconcile("w2", []RevocationCheckpoint{*cp}, keyring, ReconcilePolicy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Rejected != 1 {
		t.Fatalf("expected world id mismatch to be rejected, got %+v", report)
	}
}
