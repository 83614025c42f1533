package core

import "raftcore/internal/raft"

func (s *ConsensusState) appendResponseLocked() raft.AppendEntriesResponse {
	return raft.AppendEntriesResponse{Term: s.currentTerm}
}

// HandleAppendEntries implements the AppendEntries RPC handler of
// spec.md §6: term and leadership bookkeeping, log-matching consistency
// check, truncate-and-append, and commit index advancement.
func (s *ConsensusState) HandleAppendEntries(req raft.AppendEntriesRequest) raft.AppendEntriesResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.RecordAppendEntries()

	if req.Term > s.currentTerm {
		leader := req.LeaderID
		s.stepDownLocked(req.Term, &leader)
	}
	if req.Term < s.currentTerm {
		return s.appendResponseLocked()
	}

	// Same term: a competing candidate concedes, and every follower
	// refreshes its view of who the leader is and its election clock.
	if s.role == raft.Candidate {
		s.role = raft.Follower
	}
	leader := req.LeaderID
	s.leaderIDHint = &leader
	s.resetElectionTimerLocked()

	if req.PrevLogID > 0 {
		if req.PrevLogID > s.log.LastID() {
			resp := s.appendResponseLocked()
			resp.ConflictFirstID = s.log.LastID() + 1
			return resp
		}
		if got := s.log.GetTerm(req.PrevLogID); got != req.PrevLogTerm {
			resp := s.appendResponseLocked()
			resp.ConflictTerm = got
			resp.ConflictFirstID = s.firstIDOfTermLocked(req.PrevLogID, got)
			return resp
		}
	}

	lastNew := req.PrevLogID
	for i, entry := range req.Entries {
		pos := req.PrevLogID + raft.EntryID(i) + 1
		if pos <= s.log.LastID() {
			if s.log.GetTerm(pos) == entry.Term {
				lastNew = pos
				continue
			}
			if err := s.log.Truncate(pos - 1); err != nil {
				s.logger.WithError(err).Fatal("failed to truncate conflicting log suffix")
			}
		}
		entry.ID = 0 // assigned by Append
		id, err := s.log.Append(entry)
		if err != nil {
			s.logger.WithError(err).Fatal("failed to append replicated entry")
		}
		if entry.Type == raft.EntryConfiguration {
			s.configuration.SetConfiguration(id, entry.Config)
		}
		lastNew = id
	}

	if req.LeaderCommit > s.commitIndex {
		next := req.LeaderCommit
		if lastNew < next {
			next = lastNew
		}
		if next > s.commitIndex {
			s.commitIndex = next
		}
	}

	resp := s.appendResponseLocked()
	s.cond.Broadcast()
	s.checkInvariantsLocked()
	return resp
}

// firstIDOfTermLocked walks backward from at (which has term term) to find
// the earliest entry sharing that term, the accelerant hint described as
// an open question in spec.md §9.
func (s *ConsensusState) firstIDOfTermLocked(at raft.EntryID, term raft.Term) raft.EntryID {
	id := at
	for id > 1 && s.log.GetTerm(id-1) == term {
		id--
	}
	return id
}
