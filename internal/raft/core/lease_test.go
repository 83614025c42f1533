package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
	"raftcore/internal/raft/core"
)

func TestUpToDateLeaderFalseForFollower(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	assert.False(t, s.UpToDateLeader())
}

func TestUpToDateLeaderRequiresQuorumAtCurrentEpoch(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	s.StartNewElection()

	plan, ok := s.PlanPeerRPC(2)
	require.True(t, ok)
	s.ApplyVoteResult(2, plan, raft.RequestVoteResponse{Term: plan.Term, Granted: true}, nil)
	require.Equal(t, raft.Leader, s.Snapshot().Role)

	assert.False(t, s.UpToDateLeader(), "no peer has acknowledged the freshly-renewed epoch yet")

	s.RenewLease()
	appendPlan, ok := s.PlanPeerRPC(2)
	require.True(t, ok)
	require.Equal(t, core.AppendRPC, appendPlan.Kind)
	s.ApplyAppendResult(2, appendPlan, raft.AppendEntriesResponse{Term: appendPlan.Term}, nil)

	assert.True(t, s.UpToDateLeader(), "self plus one peer acking the current epoch is a majority of three")
}

func TestRenewLeaseNoopWhileNotLeader(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}})
	s.RenewLease()
	assert.False(t, s.UpToDateLeader())
}

func electAsLeaderOfThree(t *testing.T, s *core.ConsensusState) {
	t.Helper()
	s.StartNewElection()
	plan, ok := s.PlanPeerRPC(2)
	require.True(t, ok)
	s.ApplyVoteResult(2, plan, raft.RequestVoteResponse{Term: plan.Term, Granted: true}, nil)
	require.Equal(t, raft.Leader, s.Snapshot().Role)
}

// TestRenewLeaseDoesNotStepDownBeforeFollowerTimeout confirms a freshly
// elected leader survives ticks that arrive before its grace period, even
// though no peer has acknowledged its epoch yet.
func TestRenewLeaseDoesNotStepDownBeforeFollowerTimeout(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	electAsLeaderOfThree(t, s)

	s.RenewLease()
	assert.Equal(t, raft.Leader, s.Snapshot().Role)
}

// TestRenewLeaseStepsDownAfterFollowerTimeoutWithoutQuorumAck is the
// partition scenario of spec.md §8: a leader that never gets a quorum ack
// of its current epoch must step down once FollowerTimeout has elapsed
// since that epoch started.
func TestRenewLeaseStepsDownAfterFollowerTimeoutWithoutQuorumAck(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	electAsLeaderOfThree(t, s)

	time.Sleep(core.DefaultTiming().FollowerTimeout + 10*time.Millisecond)
	s.RenewLease()
	assert.Equal(t, raft.Follower, s.Snapshot().Role, "a leader partitioned from its quorum must step down once FollowerTimeout elapses without an epoch ack")
}

// TestReplicateReturnsRetryWhenLeaseExpiresWhileWaiting is the client-facing
// half of the same scenario: a submission already appended by the leader
// must come back as Retry, not NotLeader, once the leader steps itself
// down for lack of quorum contact (spec.md §7, §8).
func TestReplicateReturnsRetryWhenLeaseExpiresWhileWaiting(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	electAsLeaderOfThree(t, s)

	resultCh := make(chan raft.ClientResult, 1)
	go func() {
		resultCh <- s.Replicate([]byte("x"), raft.ClientIdentity{ClientID: 1, Sequence: 1})
	}()
	require.Eventually(t, func() bool {
		return s.Snapshot().LastLogID >= 2
	}, time.Second, time.Millisecond, "Replicate must append its entry promptly")

	time.Sleep(core.DefaultTiming().FollowerTimeout + 10*time.Millisecond)
	s.RenewLease()

	select {
	case result := <-resultCh:
		assert.Equal(t, raft.ResultRetry, result.Code)
	case <-time.After(time.Second):
		t.Fatal("Replicate did not unblock after the leader stepped down")
	}
}
