package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
	"raftcore/internal/raft/core"
	"raftcore/internal/raft/storage"
)

type noopSM struct{}

func (noopSM) Apply(raft.Entry) {}

// newTestState builds a ConsensusState for selfID over the given server
// set (the set must include selfID), backed by an in-memory log.
func newTestState(t *testing.T, selfID raft.ServerID, servers []raft.ServerDescriptor) (*core.ConsensusState, *storage.MemoryLog) {
	t.Helper()
	log := storage.NewMemoryLog()

	self := raft.ServerDescriptor{ID: selfID}
	for _, sd := range servers {
		if sd.ID == selfID {
			self = sd
		}
	}

	c := conf.NewBlank(selfID)
	if len(servers) > 0 {
		c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: servers})
	}

	s, err := core.New(core.Options{
		Self:         self,
		Log:          log,
		Clock:        raft.SystemClock(),
		StateMachine: noopSM{},
		Timing:       core.DefaultTiming(),
		Configuration: c,
	})
	require.NoError(t, err)
	return s, log
}

// waitForPlan polls PlanPeerRPC(peerID) until it returns a plan of the
// given kind, or fails the test after timeout. Polling (rather than a
// single blocking call) is needed because a peer freshly staged via
// SetConfiguration has no PeerRecord yet, which makes PlanPeerRPC return
// ok=false immediately instead of waiting.
func waitForPlan(t *testing.T, s *core.ConsensusState, peerID raft.ServerID, kind core.RPCKind) core.Plan {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		plan, ok := s.PlanPeerRPC(peerID)
		if ok && plan.Kind == kind {
			return plan
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for a plan of kind %v for peer %d", kind, peerID)
	return core.Plan{}
}
