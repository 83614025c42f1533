// Package config loads the YAML cluster bootstrap file a raftd process
// is started with: this server's identity, its listen address, and the
// initial stable configuration (or "blank", to join an existing cluster
// later via SetConfiguration).
//
// Grounded on the teacher's cmd/raft/demo/main.go flag-driven bootstrap,
// generalized to a YAML file the way a multi-node deployment needs
// (gopkg.in/yaml.v3, also already an indirect dependency of the
// teacher's module).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"raftcore/internal/raft"
)

// Peer is one member of the initial cluster, as written in the bootstrap
// file.
type Peer struct {
	ID      uint64 `yaml:"id"`
	Address string `yaml:"address"`
}

// Timing mirrors core.Timing in a YAML-friendly shape (plain durations
// instead of time.Duration's internal int64).
type Timing struct {
	FollowerTimeoutMS  int `yaml:"follower_timeout_ms"`
	CandidateTimeoutMS int `yaml:"candidate_timeout_ms"`
	HeartbeatPeriodMS  int `yaml:"heartbeat_period_ms"`
	RPCBackoffMS       int `yaml:"rpc_backoff_ms"`
	CatchUpSlackMS     int `yaml:"catch_up_slack_ms"`
	SoftRPCSizeLimit   int `yaml:"soft_rpc_size_limit_bytes"`
}

// Config is the bootstrap file's root.
type Config struct {
	SelfID    uint64 `yaml:"self_id"`
	Listen    string `yaml:"listen"`
	DataDir   string `yaml:"data_dir"`
	Peers     []Peer `yaml:"peers"`
	Timing    Timing `yaml:"timing"`
	LogLevel  string `yaml:"log_level"`
	DebugMode bool   `yaml:"debug_invariants"`
}

// Load reads and parses the bootstrap file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Listen == "" {
		return Config{}, fmt.Errorf("config %s: listen is required", path)
	}
	return cfg, nil
}

// Self returns this server's own descriptor.
func (c Config) Self() raft.ServerDescriptor {
	for _, p := range c.Peers {
		if p.ID == c.SelfID {
			return raft.ServerDescriptor{ID: raft.ServerID(p.ID), Address: p.Address}
		}
	}
	return raft.ServerDescriptor{ID: raft.ServerID(c.SelfID), Address: c.Listen}
}

// ServerDescriptors returns every peer listed in the bootstrap file as
// raft.ServerDescriptor, in file order.
func (c Config) ServerDescriptors() []raft.ServerDescriptor {
	out := make([]raft.ServerDescriptor, 0, len(c.Peers))
	for _, p := range c.Peers {
		out = append(out, raft.ServerDescriptor{ID: raft.ServerID(p.ID), Address: p.Address})
	}
	return out
}

func msOrDefault(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// ResolveTiming overlays the YAML timing overrides (where set) on top of
// the built-in defaults.
func (c Config) ResolveTiming(defaults TimingDefaults) TimingDefaults {
	return TimingDefaults{
		FollowerTimeout:  msOrDefault(c.Timing.FollowerTimeoutMS, defaults.FollowerTimeout),
		CandidateTimeout: msOrDefault(c.Timing.CandidateTimeoutMS, defaults.CandidateTimeout),
		HeartbeatPeriod:  msOrDefault(c.Timing.HeartbeatPeriodMS, defaults.HeartbeatPeriod),
		RPCBackoff:       msOrDefault(c.Timing.RPCBackoffMS, defaults.RPCBackoff),
		CatchUpSlack:     msOrDefault(c.Timing.CatchUpSlackMS, defaults.CatchUpSlack),
		SoftRPCSizeLimit: intOrDefault(c.Timing.SoftRPCSizeLimit, defaults.SoftRPCSizeLimit),
	}
}

func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// TimingDefaults is config's own copy of the tunables core.Timing needs,
// kept free of an import on package core so config stays a leaf package.
type TimingDefaults struct {
	FollowerTimeout  time.Duration
	CandidateTimeout time.Duration
	HeartbeatPeriod  time.Duration
	RPCBackoff       time.Duration
	CatchUpSlack     time.Duration
	SoftRPCSizeLimit int
}
