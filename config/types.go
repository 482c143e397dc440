package config

// GovernanceConfig mirrors module.Governance's quorum knob (§4.5).
type GovernanceConfig struct {
	QuorumCount int `toml:"QuorumCount"`
}

// ConsensusConfig mirrors consensus.Engine's stake-weighted supermajority
// fraction and epoch length (§4.11).
type ConsensusConfig struct {
	SupermajorityNum   int    `toml:"SupermajorityNum"`
	SupermajorityDenom int    `toml:"SupermajorityDenom"`
	EpochLengthSlots   uint64 `toml:"EpochLengthSlots"`
}

// SandboxConfig bounds the wasm sandbox's per-call resource ceilings (§4.6).
type SandboxConfig struct {
	MaxMemBytes        uint64 `toml:"MaxMemBytes"`
	MaxGas             uint64 `toml:"MaxGas"`
	WallClockTimeoutMS int64  `toml:"WallClockTimeoutMS"`
}

// GossipConfig bounds the per-peer publish rate and replay-rejection window
// the gossip router and nonce guard enforce (§6.2/§6.3).
type GossipConfig struct {
	PublishPerSecond float64 `toml:"PublishPerSecond"`
	PublishBurst     int     `toml:"PublishBurst"`
	NonceTTLSeconds  int64   `toml:"NonceTTLSeconds"`
}

// MembershipConfig drives the revocation-reconcile lease and alert
// thresholds (§4.12).
type MembershipConfig struct {
	LeaseDurationMS           int64 `toml:"LeaseDurationMS"`
	WarnDivergedThreshold     int   `toml:"WarnDivergedThreshold"`
	CriticalRejectedThreshold int   `toml:"CriticalRejectedThreshold"`
	DedupWindowMS             int64 `toml:"DedupWindowMS"`
}

// Global bundles the runtime configuration values ValidateConfig enforces.
type Global struct {
	Governance GovernanceConfig
	Consensus  ConsensusConfig
	Sandbox    SandboxConfig
	Gossip     GossipConfig
	Membership MembershipConfig
}
