package membership

import "testing"

func TestReplayDeadLettersPrioritizesRetryLimitExceeded(t *testing.T) {
	store := NewInMemoryDeadLetterStore()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	must(store.Put(DeadLetterRecord{
		WorldID: "w1", NodeID: "n1", Reason: ReasonCapacityEvicted,
		Pending: PendingAlert{Alert: AnomalyAlert{Code: "a", DetectedAtMS: 100}, Attempt: 1},
	}))
	must(store.Put(DeadLetterRecord{
		WorldID: "w1", NodeID: "n1", Reason: ReasonRetryLimitExceeded,
		Pending: PendingAlert{Alert: AnomalyAlert{Code: "b", DetectedAtMS: 200}, Attempt: 3},
	}))
	must(store.Put(DeadLetterRecord{
		WorldID: "w1", NodeID: "n1", Reason: ReasonRetryLimitExceeded,
		Pending: PendingAlert{Alert: AnomalyAlert{Code: "c", DetectedAtMS: 50}, Attempt: 1},
	}))

	out, err := ReplayDeadLetters("w1", "n1", 10, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if out[0].Pending.Alert.Code != "c" {
		t.Fatalf("expected lowest-attempt retry-limit record first, got %s", out[0].Pending.Alert.Code)
	}
	if out[1].Pending.Alert.Code != "b" {
		t.Fatalf("expected second retry-limit record second, got %s", out[1].Pending.Alert.Code)
	}
	if out[2].Pending.Alert.Code != "a" {
		t.Fatalf("expected capacity-evicted record last, got %s", out[2].Pending.Alert.Code)
	}
}

func TestReplayDeadLettersHonorsLimit(t *testing.T) {
	store := NewInMemoryDeadLetterStore()
	for i := 0; i < 5; i++ {
		if err := store.Put(DeadLetterRecord{
			WorldID: "w1", NodeID: "n1", Reason: ReasonRetryLimitExceeded,
			Pending: PendingAlert{Alert: AnomalyAlert{Code: "x", DetectedAtMS: int64(i)}},
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	out, err := ReplayDeadLetters("w1", "n1", 2, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(out))
	}
}

func TestReplayDeadLettersScopesByWorldAndNode(t *testing.T) {
	store := NewInMemoryDeadLetterStore()
	if err := store.Put(DeadLetterRecord{WorldID: "w1", NodeID: "n1", Pending: PendingAlert{Alert: AnomalyAlert{Code: "a"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Put(DeadLetterRecord{WorldID: "w2", NodeID: "n1", Pending: PendingAlert{Alert: AnomalyAlert{Code: "b"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := ReplayDeadLetters("w1", "n1", 10, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Pending.Alert.Code != "a" {
		t.Fatalf("expected only world w1 records, got %+v", out)
	}
}

func TestInMemoryDeadLetterStoreRemove(t *testing.T) {
	store := NewInMemoryDeadLetterStore()
	alert := AnomalyAlert{Code: "a", DetectedAtMS: 100}
	if err := store.Put(DeadLetterRecord{WorldID: "w1", NodeID: "n1", Pending: PendingAlert{Alert: alert}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Remove("w1", "n1", alert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := store.List("w1", "n1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected record to be removed, got %d remaining", len(out))
	}
}
