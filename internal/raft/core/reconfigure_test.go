package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
	"raftcore/internal/raft/core"
)

// TestSetConfigurationJointConsensusRoundTrip drives a single-server leader
// through adding a second server end to end: staging catch-up, the
// TRANSITIONAL entry, and the STABLE entry, each gated on a simulated
// successful AppendEntries round for the joining peer.
func TestSetConfigurationJointConsensusRoundTrip(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}})
	s.StartNewElection()
	require.Equal(t, raft.Leader, s.Snapshot().Role)
	require.Equal(t, raft.EntryID(1), s.CommitIndex())

	oldID, _ := s.CurrentConfiguration()

	resultCh := make(chan raft.ClientResult, 1)
	go func() {
		resultCh <- s.SetConfiguration(oldID, []raft.ServerDescriptor{{ID: 1}, {ID: 2}})
	}()

	// Round 1: the staging catch-up probe. Acking it immediately satisfies
	// the catch-up criterion because the round's goal was the log length
	// recorded when staging began.
	plan := waitForPlan(t, s, 2, core.AppendRPC)
	s.ApplyAppendResult(2, plan, raft.AppendEntriesResponse{Term: plan.Term}, nil)

	// Round 2: the TRANSITIONAL configuration entry.
	plan = waitForPlan(t, s, 2, core.AppendRPC)
	s.ApplyAppendResult(2, plan, raft.AppendEntriesResponse{Term: plan.Term}, nil)

	// Round 3: the STABLE configuration entry.
	plan = waitForPlan(t, s, 2, core.AppendRPC)
	s.ApplyAppendResult(2, plan, raft.AppendEntriesResponse{Term: plan.Term}, nil)

	result := <-resultCh
	assert.Equal(t, raft.ResultSuccess, result.Code)

	newID, desc := s.CurrentConfiguration()
	assert.Equal(t, result.EntryID, newID)
	assert.Len(t, desc.Prev, 2)
	assert.Empty(t, desc.Next, "a fully committed reconfiguration must leave no Next set")
}

func TestSetConfigurationRejectsStaleOldID(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}})
	s.StartNewElection()

	result := s.SetConfiguration(999, []raft.ServerDescriptor{{ID: 1}, {ID: 2}})
	assert.Equal(t, raft.ResultRetry, result.Code, "a reconfiguration against a stale configuration id must be retried, not applied")
}

func TestSetConfigurationRejectsWhenNotLeader(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	oldID, _ := s.CurrentConfiguration()

	result := s.SetConfiguration(oldID, []raft.ServerDescriptor{{ID: 1}, {ID: 2}})
	assert.Equal(t, raft.ResultNotLeader, result.Code)
}
