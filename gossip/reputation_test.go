package gossip

import (
	"testing"
	"time"
)

func TestProviderReputationBansAfterInvalidEnvelopes(t *testing.T) {
	cfg := DefaultReputationConfig()
	rep := NewProviderReputation(cfg)
	now := time.Unix(1000, 0)

	rep.PenalizeInvalidEnvelope("peer-a", now)
	rep.PenalizeInvalidEnvelope("peer-a", now)
	rep.PenalizeInvalidEnvelope("peer-a", now)
	if !rep.IsBanned("peer-a", now) {
		t.Fatal("expected three invalid-envelope penalties to exceed ban threshold")
	}
}

func TestProviderReputationBanExpires(t *testing.T) {
	cfg := DefaultReputationConfig()
	cfg.BanDuration = time.Minute
	rep := NewProviderReputation(cfg)
	now := time.Unix(1000, 0)

	rep.PenalizeInvalidEnvelope("peer-a", now)
	rep.PenalizeInvalidEnvelope("peer-a", now)
	rep.PenalizeInvalidEnvelope("peer-a", now)
	if !rep.IsBanned("peer-a", now.Add(30*time.Second)) {
		t.Fatal("expected peer-a still banned before expiry")
	}
	if rep.IsBanned("peer-a", now.Add(2*time.Minute)) {
		t.Fatal("expected ban to expire")
	}
}

func TestProviderReputationGreylistThenRecovery(t *testing.T) {
	cfg := DefaultReputationConfig()
	rep := NewProviderReputation(cfg)
	now := time.Unix(1000, 0)

	rep.PenalizeRateLimited("peer-b", now)
	rep.PenalizeRateLimited("peer-b", now)
	if !rep.IsGreylisted("peer-b", now) {
		t.Fatal("expected peer-b to be greylisted after repeated rate-limit penalties")
	}

	rep.RewardSustained("peer-b", now.Add(time.Hour))
	if rep.IsGreylisted("peer-b", now.Add(time.Hour)) {
		t.Fatal("expected decay plus reward to clear the greylist")
	}
}

func TestFilterReputableDropsBannedAndPenalizesGreylisted(t *testing.T) {
	cfg := DefaultReputationConfig()
	rep := NewProviderReputation(cfg)
	now := time.Unix(1000, 0)

	rep.PenalizeInvalidEnvelope("banned", now)
	rep.PenalizeInvalidEnvelope("banned", now)
	rep.PenalizeInvalidEnvelope("banned", now)
	rep.PenalizeRateLimited("grey", now)
	rep.PenalizeRateLimited("grey", now)

	providers := []ProviderRecord{
		{ProviderID: "banned", LastSeenMS: 1000},
		{ProviderID: "grey", LastSeenMS: 1000},
		{ProviderID: "clean", LastSeenMS: 1000},
	}

	policy := DefaultProviderSelectionPolicy()
	filtered := policy.FilterReputable(providers, now.UnixMilli(), rep)
	if len(filtered) != 2 {
		t.Fatalf("expected banned provider dropped, got %+v", filtered)
	}
	for _, pr := range filtered {
		if pr.ProviderID == "banned" {
			t.Fatal("banned provider must not survive filtering")
		}
		if pr.ProviderID == "grey" && (pr.LoadRatioPerMille == nil || *pr.LoadRatioPerMille == 0) {
			t.Fatal("expected greylisted provider's load score to be penalized")
		}
	}
}

func TestFilterReputableNilTrackerIsNoOp(t *testing.T) {
	policy := DefaultProviderSelectionPolicy()
	providers := []ProviderRecord{{ProviderID: "a"}}
	out := policy.FilterReputable(providers, 0, nil)
	if len(out) != 1 {
		t.Fatalf("expected nil reputation tracker to pass providers through unchanged, got %+v", out)
	}
}
