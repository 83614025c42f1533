package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
	"raftcore/internal/raft/core"
)

func TestHandleRequestVoteGrantsFirstCandidate(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})

	resp := s.HandleRequestVote(raft.RequestVoteRequest{CandidateID: 2, Term: 1})
	assert.True(t, resp.Granted)
	assert.Equal(t, raft.Term(1), resp.Term)
}

func TestHandleRequestVoteRejectsSecondCandidateSameTerm(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})

	resp1 := s.HandleRequestVote(raft.RequestVoteRequest{CandidateID: 2, Term: 1})
	require.True(t, resp1.Granted)

	resp2 := s.HandleRequestVote(raft.RequestVoteRequest{CandidateID: 3, Term: 1})
	assert.False(t, resp2.Granted, "a server must not grant two votes in the same term")
}

func TestHandleRequestVoteRejectsStaleTerm(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})

	s.HandleAppendEntries(raft.AppendEntriesRequest{LeaderID: 2, Term: 5})
	resp := s.HandleRequestVote(raft.RequestVoteRequest{CandidateID: 3, Term: 2})
	assert.False(t, resp.Granted)
	assert.Equal(t, raft.Term(5), resp.Term)
}

func TestHandleRequestVoteRejectsOutOfDateLog(t *testing.T) {
	s, log := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	log.Append(raft.Entry{Term: 5})

	resp := s.HandleRequestVote(raft.RequestVoteRequest{CandidateID: 2, Term: 6, LastLogTerm: 1, LastLogID: 0})
	assert.False(t, resp.Granted, "a candidate whose log is behind this server's must not receive a vote")
}

func TestHandleAppendEntriesCandidateConcedesToSameTermLeader(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}})
	s.StartNewElection()
	require.Equal(t, raft.Candidate, s.Snapshot().Role)

	s.HandleAppendEntries(raft.AppendEntriesRequest{LeaderID: 2, Term: s.Snapshot().Term})
	assert.Equal(t, raft.Follower, s.Snapshot().Role)
}

func TestStartNewElectionSingleServerBecomesLeaderAndCommitsNoOp(t *testing.T) {
	s, log := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}})
	s.StartNewElection()

	snap := s.Snapshot()
	assert.Equal(t, raft.Leader, snap.Role)
	assert.Equal(t, raft.EntryID(1), s.CommitIndex(), "a single-server cluster's no-op entry has trivial quorum and commits immediately")
	assert.Equal(t, raft.EntryID(1), log.LastID())
}

func TestTwoServerElectionNeedsOnlyOnePeerGrant(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}})
	s.StartNewElection()
	require.Equal(t, raft.Candidate, s.Snapshot().Role)

	plan, ok := s.PlanPeerRPC(2)
	require.True(t, ok)
	require.Equal(t, core.VoteRPC, plan.Kind)

	s.ApplyVoteResult(2, plan, raft.RequestVoteResponse{Term: plan.Term, Granted: true}, nil)
	assert.Equal(t, raft.Leader, s.Snapshot().Role, "self plus one granting peer is a majority of two")
}

func TestApplyVoteResultStepsDownOnHigherTerm(t *testing.T) {
	s, _ := newTestState(t, 1, []raft.ServerDescriptor{{ID: 1}, {ID: 2}, {ID: 3}})
	s.StartNewElection()

	plan, ok := s.PlanPeerRPC(2)
	require.True(t, ok)
	s.ApplyVoteResult(2, plan, raft.RequestVoteResponse{Term: plan.Term + 10, Granted: false}, nil)

	snap := s.Snapshot()
	assert.Equal(t, raft.Follower, snap.Role)
	assert.Equal(t, plan.Term+10, snap.Term)
}
