package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
)

func writeConfig(t *testing.T, yamlBody string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raftd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))
	return path
}

func TestLoadParsesBootstrapFile(t *testing.T) {
	path := writeConfig(t, `
self_id: 1
listen: ":8001"
data_dir: /tmp/raft1
log_level: debug
peers:
  - id: 1
    address: "127.0.0.1:8001"
  - id: 2
    address: "127.0.0.1:8002"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.SelfID)
	assert.Equal(t, ":8001", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Len(t, cfg.Peers, 2)
}

func TestLoadRejectsMissingListen(t *testing.T) {
	path := writeConfig(t, `
self_id: 1
peers:
  - id: 1
    address: "127.0.0.1:8001"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestSelfResolvesAddressFromPeerList(t *testing.T) {
	cfg := Config{
		SelfID: 2,
		Listen: ":9999",
		Peers: []Peer{
			{ID: 1, Address: "127.0.0.1:8001"},
			{ID: 2, Address: "127.0.0.1:8002"},
		},
	}
	assert.Equal(t, raft.ServerDescriptor{ID: 2, Address: "127.0.0.1:8002"}, cfg.Self())
}

func TestSelfFallsBackToListenWhenNotInPeerList(t *testing.T) {
	cfg := Config{SelfID: 5, Listen: ":9999"}
	assert.Equal(t, raft.ServerDescriptor{ID: 5, Address: ":9999"}, cfg.Self())
}

func TestServerDescriptorsPreservesFileOrder(t *testing.T) {
	cfg := Config{Peers: []Peer{{ID: 3, Address: "a"}, {ID: 1, Address: "b"}}}
	got := cfg.ServerDescriptors()
	require.Len(t, got, 2)
	assert.Equal(t, raft.ServerID(3), got[0].ID)
	assert.Equal(t, raft.ServerID(1), got[1].ID)
}

func TestResolveTimingOverlaysOnlySetFields(t *testing.T) {
	defaults := TimingDefaults{
		FollowerTimeout:  150 * time.Millisecond,
		CandidateTimeout: 150 * time.Millisecond,
		HeartbeatPeriod:  50 * time.Millisecond,
		RPCBackoff:       100 * time.Millisecond,
		CatchUpSlack:     150 * time.Millisecond,
		SoftRPCSizeLimit: 256 * 1024,
	}
	cfg := Config{Timing: Timing{FollowerTimeoutMS: 300}}

	got := cfg.ResolveTiming(defaults)
	assert.Equal(t, 300*time.Millisecond, got.FollowerTimeout)
	assert.Equal(t, defaults.CandidateTimeout, got.CandidateTimeout, "unset fields must keep the default")
	assert.Equal(t, defaults.SoftRPCSizeLimit, got.SoftRPCSizeLimit)
}
