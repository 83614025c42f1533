package core

import "raftcore/internal/raft/conf"
import "raftcore/internal/raft"

// appendEntryLocked stamps entry with the current term and a fresh
// EntryID, appends it, applies any configuration-entry side effect, and
// lets a single-server cluster commit it immediately. Must be called with
// s.mu held and s.role == Leader.
func (s *ConsensusState) appendEntryLocked(entry raft.Entry) (raft.EntryID, error) {
	entry.ID = 0
	entry.Term = s.currentTerm
	id, err := s.log.Append(entry)
	if err != nil {
		return 0, err
	}
	if entry.Type == raft.EntryConfiguration {
		s.configuration.SetConfiguration(id, entry.Config)
	}
	s.maybeAdvanceCommitIndexLocked()
	s.cond.Broadcast()
	return id, nil
}

// maybeAdvanceCommitIndexLocked implements spec.md §4.1.2: a leader may
// only advance commitIndex to an entry it can prove is replicated to a
// quorum AND that was written in its own current term (the classic Raft
// restriction that prevents committing, then losing, entries from a
// previous term via a differently-elected future leader).
func (s *ConsensusState) maybeAdvanceCommitIndexLocked() {
	if s.role != raft.Leader {
		return
	}
	lastID := s.log.LastID()
	candidate := s.configuration.QuorumMin(func(r *conf.PeerRecord) raft.EntryID {
		if r.ID == s.self.ID {
			return lastID
		}
		return r.LastAgreeID
	})
	if candidate <= s.commitIndex {
		return
	}
	if s.log.GetTerm(candidate) != s.currentTerm {
		return
	}
	s.commitIndex = candidate
	s.leaderReady = true
	s.cond.Broadcast()
}

// CommitIndex returns the current commit index under lock.
func (s *ConsensusState) CommitIndex() raft.EntryID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitIndex
}

// NextToApply blocks until an entry beyond lastApplied is committed, or
// the server is exiting, and returns it. The caller (the state-machine
// applier goroutine) advances lastApplied by calling MarkApplied.
func (s *ConsensusState) NextToApply(after raft.EntryID) (raft.Entry, bool) {
	s.mu.Lock()
	for {
		if s.exiting {
			s.mu.Unlock()
			return raft.Entry{}, false
		}
		if s.commitIndex > after {
			break
		}
		s.cond.Wait()
	}
	id := after + 1
	s.mu.Unlock()
	entry, err := s.log.GetEntry(id)
	if err != nil {
		s.logger.WithError(err).Fatal("failed to read committed entry for application")
	}
	return entry, true
}

// MarkApplied records that entry id has been delivered to the state
// machine, and resolves any client waiter blocked on its completion.
func (s *ConsensusState) MarkApplied(id raft.EntryID, result raft.ClientResult, client raft.ClientIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastApplied = id
	if client.ClientID != 0 {
		s.applied[client] = appliedResult{result: result}
	}
	if submitted, ok := s.submittedAt[id]; ok {
		s.metrics.RecordCommandLatency(s.clock.Now().Sub(submitted))
		s.metrics.RecordCommandCommitted()
		delete(s.submittedAt, id)
	}
	s.cond.Broadcast()
}
