package membership

import "testing"

func TestEvaluateAlertsReportsCriticalBeforeWarn(t *testing.T) {
	report := ReconcileReport{Drained: 5, InSync: 1, Diverged: 2, Rejected: 2}
	policy := AlertPolicy{WarnDivergedThreshold: 1, CriticalRejectedThreshold: 1}

	alerts := EvaluateAlerts("world-1", "node-a", 1000, report, policy)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Severity != AlertCritical || alerts[0].Code != "reconcile_rejected" {
		t.Fatalf("expected critical rejected alert first, got %+v", alerts[0])
	}
	if alerts[1].Severity != AlertWarn || alerts[1].Code != "reconcile_diverged" {
		t.Fatalf("expected warn diverged alert second, got %+v", alerts[1])
	}
}

func TestEvaluateAlertsBelowThresholdsProducesNone(t *testing.T) {
	report := ReconcileReport{Drained: 5, InSync: 5}
	policy := AlertPolicy{WarnDivergedThreshold: 1, CriticalRejectedThreshold: 1}

	alerts := EvaluateAlerts("world-1", "node-a", 1000, report, policy)
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

func TestDeduplicateAlertsSuppressesWithinWindow(t *testing.T) {
	policy := DedupPolicy{SuppressWindowMS: 10_000}
	state := NewDedupState()

	first := []AnomalyAlert{{WorldID: "w1", NodeID: "n1", Code: "reconcile_diverged"}}
	out := DeduplicateAlerts(first, 1_000, policy, state)
	if len(out) != 1 {
		t.Fatalf("expected first alert to survive, got %d", len(out))
	}

	again := DeduplicateAlerts(first, 5_000, policy, state)
	if len(again) != 0 {
		t.Fatalf("expected repeat alert within window to be suppressed, got %d", len(again))
	}

	later := DeduplicateAlerts(first, 12_000, policy, state)
	if len(later) != 1 {
		t.Fatalf("expected alert after window to fire again, got %d", len(later))
	}
}

func TestDeduplicateAlertsTracksDistinctKeysIndependently(t *testing.T) {
	policy := DedupPolicy{SuppressWindowMS: 10_000}
	state := NewDedupState()

	alerts := []AnomalyAlert{
		{WorldID: "w1", NodeID: "n1", Code: "reconcile_diverged"},
		{WorldID: "w1", NodeID: "n2", Code: "reconcile_diverged"},
	}
	out := DeduplicateAlerts(alerts, 1_000, policy, state)
	if len(out) != 2 {
		t.Fatalf("expected both distinct-node alerts to survive, got %d", len(out))
	}
}
