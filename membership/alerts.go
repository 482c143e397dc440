package membership

import "fmt"

// AlertSeverity ranks an anomaly alert.
type AlertSeverity string

const (
	AlertWarn     AlertSeverity = "Warn"
	AlertCritical AlertSeverity = "Critical"
)

// AnomalyAlert is raised when a reconcile run's tallies cross a threshold.
type AnomalyAlert struct {
	WorldID      string
	NodeID       string
	DetectedAtMS int64
	Severity     AlertSeverity
	Code         string
	Message      string
	Drained      int
	Diverged     int
	Rejected     int
}

// AlertPolicy names the thresholds a reconcile report is checked against.
type AlertPolicy struct {
	WarnDivergedThreshold   int
	CriticalRejectedThreshold int
}

// EvaluateAlerts checks report against policy, returning Critical alerts
// before Warn alerts (rejected-count is the more severe signal).
func EvaluateAlerts(worldID, nodeID string, detectedAtMS int64, report ReconcileReport, policy AlertPolicy) []AnomalyAlert {
	var alerts []AnomalyAlert
	if policy.CriticalRejectedThreshold > 0 && report.Rejected >= policy.CriticalRejectedThreshold {
		alerts = append(alerts, AnomalyAlert{
			WorldID: worldID, NodeID: nodeID, DetectedAtMS: detectedAtMS,
			Severity: AlertCritical, Code: "reconcile_rejected",
			Message:  fmt.Sprintf("%d checkpoints rejected during reconcile", report.Rejected),
			Drained:  report.Drained, Diverged: report.Diverged, Rejected: report.Rejected,
		})
	}
	if policy.WarnDivergedThreshold > 0 && report.Diverged >= policy.WarnDivergedThreshold {
		alerts = append(alerts, AnomalyAlert{
			WorldID: worldID, NodeID: nodeID, DetectedAtMS: detectedAtMS,
			Severity: AlertWarn, Code: "reconcile_diverged",
			Message:  fmt.Sprintf("%d checkpoints diverged during reconcile", report.Diverged),
			Drained:  report.Drained, Diverged: report.Diverged, Rejected: report.Rejected,
		})
	}
	return alerts
}

// DedupPolicy bounds how often identical (world_id, node_id, code) alerts
// may fire.
type DedupPolicy struct {
	SuppressWindowMS int64
}

// DedupState tracks the last time each (world_id, node_id, code) triple
// fired, across calls to DeduplicateAlerts.
type DedupState struct {
	lastFiredMS map[string]int64
}

// NewDedupState constructs an empty dedup tracker.
func NewDedupState() *DedupState {
	return &DedupState{lastFiredMS: make(map[string]int64)}
}

func dedupKey(a AnomalyAlert) string {
	return a.WorldID + "\x00" + a.NodeID + "\x00" + a.Code
}

// DeduplicateAlerts suppresses any alert whose (world_id, node_id, code)
// triple fired within policy.SuppressWindowMS of nowMS, recording the
// surviving alerts' fire times into state.
func DeduplicateAlerts(alerts []AnomalyAlert, nowMS int64, policy DedupPolicy, state *DedupState) []AnomalyAlert {
	if state.lastFiredMS == nil {
		state.lastFiredMS = make(map[string]int64)
	}
	var out []AnomalyAlert
	for _, a := range alerts {
		key := dedupKey(a)
		if last, ok := state.lastFiredMS[key]; ok && nowMS-last < policy.SuppressWindowMS {
			continue
		}
		state.lastFiredMS[key] = nowMS
		out = append(out, a)
	}
	return out
}
