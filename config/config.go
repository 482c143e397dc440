package config

import (
	"encoding/hex"
	"os"

	"agentworld/crypto"

	"github.com/BurntSushi/toml"
)

// Config is the top-level worldd configuration, loaded once at startup and
// rewritten in place the first time a node key is generated.
type Config struct {
	ListenAddress  string   `toml:"ListenAddress"`
	RPCAddress     string   `toml:"RPCAddress"`
	DataDir        string   `toml:"DataDir"`
	NodeKey        string   `toml:"NodeKey"`
	BootstrapPeers []string `toml:"BootstrapPeers"`

	Global
}

func defaultGlobal() Global {
	return Global{
		Governance: GovernanceConfig{QuorumCount: 2},
		Consensus: ConsensusConfig{
			SupermajorityNum:   2,
			SupermajorityDenom: 3,
			EpochLengthSlots:   100,
		},
		Sandbox: SandboxConfig{
			MaxMemBytes:        64 << 20,
			MaxGas:             10_000_000,
			WallClockTimeoutMS: 50,
		},
		Gossip: GossipConfig{
			PublishPerSecond: 50,
			PublishBurst:     100,
			NonceTTLSeconds:  900,
		},
		Membership: MembershipConfig{
			LeaseDurationMS:           30_000,
			WarnDivergedThreshold:     1,
			CriticalRejectedThreshold: 1,
			DedupWindowMS:             60_000,
		},
	}
}

// Load reads the configuration at path, creating a default file (with a
// freshly generated node key) the first time it is missing. A loaded config
// with no NodeKey gets one generated and the file is rewritten in place, the
// same pattern createDefault uses for a brand-new file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{Global: defaultGlobal()}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.NodeKey == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		cfg.NodeKey = hex.EncodeToString(key.Bytes())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, os.ModePerm)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, err
		}
	}

	if err := ValidateConfig(cfg.Global); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddress:  ":6001",
		RPCAddress:     ":8080",
		DataDir:        "./world-data",
		NodeKey:        hex.EncodeToString(key.Bytes()),
		BootstrapPeers: []string{},
		Global:         defaultGlobal(),
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
