package observability

import (
	"testing"
	"time"
)

func TestKernelObserveTickDoesNotPanic(t *testing.T) {
	Kernel().ObserveTick("world-1", true, 5*time.Millisecond)
	Kernel().ObserveTick("world-1", false, 2*time.Millisecond)
	Kernel().RecordJournalEvent("world-1", "AgentSpawned")
}

func TestSandboxObserveDoesNotPanic(t *testing.T) {
	Sandbox().Observe("module-a", true, time.Millisecond, 1000)
	Sandbox().RecordTrap("module-a", "out_of_fuel")
}

func TestGossipMetricsDoNotPanic(t *testing.T) {
	Gossip().RecordPublish("head/world-1")
	Gossip().RecordRateLimited("peer-1")
	Gossip().RecordDispatch("RRGetWorldHead", true)
	Gossip().SetProviderCount("hash-1", 3)
}

func TestConsensusMetricsDoNotPanic(t *testing.T) {
	Consensus().RecordBlockInterval(250 * time.Millisecond)
	Consensus().RecordDecision("committed")
	Consensus().SetAttestingStakeRatio("42", 0.75)
}

func TestMembershipMetricsDoNotPanic(t *testing.T) {
	Membership().RecordReconcile("diverged", 2)
	Membership().RecordAlert("Critical", "reconcile_rejected")
	Membership().SetDeadLetterDepth("world-1", 4)
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var km *kernelMetrics
	km.ObserveTick("w", true, time.Millisecond)
	km.RecordJournalEvent("w", "k")

	var sm *SandboxMetrics
	sm.Observe("m", true, time.Millisecond, 1)
	sm.RecordTrap("m", "r")
}
