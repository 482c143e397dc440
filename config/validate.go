package config

import "fmt"

func ValidateConfig(g Global) error {
	if g.Governance.QuorumCount <= 0 {
		return fmt.Errorf("governance: quorum_count must be positive")
	}
	if g.Consensus.SupermajorityDenom <= 0 {
		return fmt.Errorf("consensus: supermajority_denom must be positive")
	}
	if g.Consensus.SupermajorityNum <= 0 || g.Consensus.SupermajorityNum > g.Consensus.SupermajorityDenom {
		return fmt.Errorf("consensus: supermajority_num must be in (0, supermajority_denom]")
	}
	if g.Consensus.EpochLengthSlots == 0 {
		return fmt.Errorf("consensus: epoch_length_slots must be positive")
	}
	if g.Sandbox.MaxMemBytes == 0 {
		return fmt.Errorf("sandbox: max_mem_bytes must be positive")
	}
	if g.Sandbox.MaxGas == 0 {
		return fmt.Errorf("sandbox: max_gas must be positive")
	}
	if g.Sandbox.WallClockTimeoutMS <= 0 {
		return fmt.Errorf("sandbox: wall_clock_timeout_ms must be positive")
	}
	if g.Gossip.PublishPerSecond <= 0 {
		return fmt.Errorf("gossip: publish_per_second must be positive")
	}
	if g.Gossip.PublishBurst <= 0 {
		return fmt.Errorf("gossip: publish_burst must be positive")
	}
	if g.Gossip.NonceTTLSeconds <= 0 {
		return fmt.Errorf("gossip: nonce_ttl_seconds must be positive")
	}
	if g.Membership.LeaseDurationMS <= 0 {
		return fmt.Errorf("membership: lease_duration_ms must be positive")
	}
	if g.Membership.WarnDivergedThreshold <= 0 {
		return fmt.Errorf("membership: warn_diverged_threshold must be positive")
	}
	if g.Membership.CriticalRejectedThreshold <= 0 {
		return fmt.Errorf("membership: critical_rejected_threshold must be positive")
	}
	return nil
}
