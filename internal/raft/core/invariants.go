package core

import "raftcore/internal/raft"

// checkInvariants runs the cheap, always-true consistency checks spec.md
// §4.6 calls the Invariant Checker: a leader has voted for itself,
// commitIndex does not exceed the log's LastID, and lastApplied does not
// exceed commitIndex. It keeps no history, so it does not check that term
// or commitIndex only grow, nor any per-peer state. It is compiled in
// everywhere but only invoked when debugInvariants is set, so it never
// costs anything in production.
//
// Grounded on the teacher's test assertions in internal/raft/server
// (which re-check term/role consistency after each transition) promoted
// into a standing checker, as spec.md §4.6 and §8 require.
func checkInvariants(s *ConsensusState) {
	if s.role == raft.Leader && (s.votedFor == nil || *s.votedFor != s.self.ID) {
		panic("raft: leader with votedFor not Some(self)")
	}
	if s.commitIndex > s.log.LastID() {
		panic("raft: commitIndex ahead of the log")
	}
	if s.lastApplied > s.commitIndex {
		panic("raft: lastApplied ahead of commitIndex")
	}
}
