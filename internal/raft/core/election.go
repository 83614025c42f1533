package core

import (
	"time"

	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
)

// resetElectionTimerLocked pushes startElectionAt out by a randomized
// timeout — FollowerTimeout, or CandidateTimeout while a candidate, plus
// jitter — per spec.md §4.4 (jitter avoids synchronized
// elections across a cluster that all started at once).
func (s *ConsensusState) resetElectionTimerLocked() {
	base := s.timing.FollowerTimeout
	if s.role == raft.Candidate {
		base = s.timing.CandidateTimeout
	}
	jitter := time.Duration(s.rng.jitter(int64(base)))
	s.startElectionAt = s.clock.Now().Add(base + jitter)
}

// stepDownLocked moves this server to Follower at term (if term is newer),
// records leaderHint (nil to clear it), persists the term/vote change, and
// interrupts any in-flight outbound RPCs that were issued under the old
// term/role (§4.1, §5).
func (s *ConsensusState) stepDownLocked(term raft.Term, leaderHint *raft.ServerID) {
	advanced := term > s.currentTerm
	if advanced {
		s.currentTerm = term
		s.votedFor = nil
	}
	wasLeader := s.role == raft.Leader
	s.role = raft.Follower
	s.leaderIDHint = leaderHint
	s.leaderReady = false
	if advanced || wasLeader {
		s.persistMetadataLocked()
	}
	s.interruptAllLocked()
	s.resetElectionTimerLocked()
}

func (s *ConsensusState) voteResponseLocked(grant bool) raft.RequestVoteResponse {
	lastTerm, lastID := s.lastLogTermIDLocked()
	return raft.RequestVoteResponse{
		Term:            s.currentTerm,
		Granted:         grant,
		LastLogTerm:     lastTerm,
		LastLogID:       lastID,
		BeginLastTermID: s.log.BeginLastTermID(),
	}
}

// HandleRequestVote implements the RequestVote RPC handler of spec.md §6.
func (s *ConsensusState) HandleRequestVote(req raft.RequestVoteRequest) raft.RequestVoteResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.RecordRequestVote()

	if req.Term > s.currentTerm {
		s.stepDownLocked(req.Term, nil)
	}
	if req.Term < s.currentTerm {
		return s.voteResponseLocked(false)
	}

	grant := (s.votedFor == nil || *s.votedFor == req.CandidateID) &&
		s.logUpToDateLocked(req.LastLogTerm, req.LastLogID)

	if grant {
		candidate := req.CandidateID
		s.votedFor = &candidate
		s.persistMetadataLocked()
		s.resetElectionTimerLocked()
	}

	resp := s.voteResponseLocked(grant)
	s.cond.Broadcast()
	s.checkInvariantsLocked()
	return resp
}

// NextElectionDeadline returns the time at which the election timer
// worker should next act, along with whether this server is exiting.
func (s *ConsensusState) NextElectionDeadline() (deadline time.Time, exiting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startElectionAt, s.exiting
}

// WaitForElectionDeadline blocks until the current startElectionAt has
// passed or exiting becomes true. It re-reads startElectionAt after every
// wakeup, so a deadline pushed out meanwhile is waited for here. It returns
// false if the server is exiting.
func (s *ConsensusState) WaitForElectionDeadline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.exiting {
			return false
		}
		now := s.clock.Now()
		if !now.Before(s.startElectionAt) {
			return true
		}
		s.waitUntilLocked(s.startElectionAt)
	}
}

// waitUntilLocked blocks on cond until Broadcast fires or deadline has
// passed, whichever comes first. It must be called with s.mu held and
// returns with it held.
func (s *ConsensusState) waitUntilLocked(deadline time.Time) {
	timer := time.AfterFunc(time.Until(deadline), func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()
	s.cond.Wait()
}

// StartNewElection implements spec.md §4.4's startNewElection: becomes (or
// remains) Candidate at term+1, votes for self, persists, resets the
// election timer, and requests votes from every peer via the Broadcast
// signal peer loops wait on.
func (s *ConsensusState) StartNewElection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exiting || s.role == raft.Leader {
		return
	}
	if !s.configuration.IsSingleServer() && !s.configuration.InConfiguration(s.self.ID) {
		// Not (yet) a member of any configuration: nothing to contest.
		s.resetElectionTimerLocked()
		return
	}

	// Step to CANDIDATE in currentTerm+1 and persist votedFor=self before
	// anything else, including the single-server fast path below, so a
	// single-server leader still satisfies "role == LEADER implies
	// votedFor == Some(selfId) for currentTerm" (spec.md §4.4, §8).
	s.currentTerm++
	s.role = raft.Candidate
	s.electionStartedAt = s.clock.Now()
	self := s.self.ID
	s.votedFor = &self
	s.electionAttempt++
	s.configuration.ForEach(func(r *conf.PeerRecord) {
		r.VoteRequested = r.ID == self
		r.VoteGranted = r.ID == self
	})
	s.persistMetadataLocked()
	s.resetElectionTimerLocked()
	s.metrics.RecordElection()

	if s.configuration.IsSingleServer() {
		s.becomeLeaderLocked()
		s.cond.Broadcast()
		s.checkInvariantsLocked()
		return
	}

	s.cond.Broadcast()
	s.checkInvariantsLocked()
}

// becomeLeaderLocked promotes this server to Leader at the current term.
// Must be called with s.mu held.
func (s *ConsensusState) becomeLeaderLocked() {
	s.role = raft.Leader
	self := s.self.ID
	s.leaderIDHint = &self
	if !s.electionStartedAt.IsZero() {
		s.metrics.RecordElectionDuration(s.clock.Now().Sub(s.electionStartedAt))
	}
	s.currentEpoch++
	s.epochDeadline = s.clock.Now().Add(s.timing.FollowerTimeout)
	s.leaderReady = false
	s.configuration.ForEach(func(r *conf.PeerRecord) {
		r.NextIndex = s.log.LastID() + 1
		r.LastAgreeID = 0
		r.VoteGranted = false
		r.VoteRequested = false
		r.NextHeartbeatAt = time.Time{}
	})
	// A fresh leader appends a no-op entry in its own term; once that
	// entry commits, maybeAdvanceCommitIndexLocked can finally move
	// commitIndex past whatever a prior leader left behind (§4.1.1,
	// §4.1.2's current-term-only commit rule).
	if _, err := s.appendEntryLocked(raft.Entry{Type: raft.EntryData}); err != nil {
		s.logger.WithError(err).Fatal("failed to append leader no-op entry")
	}
	s.cond.Broadcast()
}
