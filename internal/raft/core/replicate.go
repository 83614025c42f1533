package core

import "raftcore/internal/raft"

func (s *ConsensusState) leaderHintDescriptorLocked() *raft.ServerDescriptor {
	if s.leaderIDHint == nil {
		return nil
	}
	if r := s.configuration.Record(*s.leaderIDHint); r != nil {
		sd := r.ServerDescriptor
		return &sd
	}
	return &raft.ServerDescriptor{ID: *s.leaderIDHint}
}

// Replicate implements the client submission path of spec.md §4.1.1:
// reject if not leader, de-duplicate by ClientIdentity, append the entry,
// and block the caller until the state machine has applied it (Success),
// or this server loses leadership or changes term, or is exiting (Retry).
func (s *ConsensusState) Replicate(payload []byte, client raft.ClientIdentity) raft.ClientResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != raft.Leader {
		return raft.ClientResult{Code: raft.ResultNotLeader, LeaderHint: s.leaderHintDescriptorLocked()}
	}
	if client.ClientID != 0 {
		if prior, ok := s.applied[client]; ok {
			return prior.result
		}
	}

	term := s.currentTerm
	id, err := s.appendEntryLocked(raft.Entry{Type: raft.EntryData, Payload: payload, Client: client})
	if err != nil {
		return raft.ClientResult{Code: raft.ResultFail}
	}
	s.submittedAt[id] = s.clock.Now()

	for {
		if s.exiting {
			return raft.ClientResult{Code: raft.ResultRetry}
		}
		if s.role != raft.Leader || s.currentTerm != term {
			// The entry is already appended locally; whether it ends up
			// committed now depends on a leader this server no longer is.
			// That is exactly the transient, retry-safe outcome of §7/§8
			// (e.g. a lease-expiry step-down after a partition), not the
			// immediate "wrong server" rejection above, so the client
			// should retry rather than be told it simply asked the wrong
			// server.
			return raft.ClientResult{Code: raft.ResultRetry, LeaderHint: s.leaderHintDescriptorLocked()}
		}
		if s.lastApplied >= id {
			if client.ClientID != 0 {
				if prior, ok := s.applied[client]; ok {
					return prior.result
				}
			}
			return raft.ClientResult{Code: raft.ResultSuccess, EntryID: id}
		}
		s.cond.Wait()
	}
}

// GetLastCommittedID returns the highest EntryID known committed, the
// value backing the GetLastId client RPC (spec.md §6).
func (s *ConsensusState) GetLastCommittedID() raft.EntryID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitIndex
}

// CurrentConfiguration returns the active configuration's id and a
// descriptor suitable for returning from GetConfiguration.
func (s *ConsensusState) CurrentConfiguration() (raft.EntryID, raft.ConfigurationDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configuration.ID(), s.currentConfigurationDescriptorLocked()
}

func (s *ConsensusState) currentConfigurationDescriptorLocked() raft.ConfigurationDescriptor {
	return raft.ConfigurationDescriptor{
		Prev: s.configuration.OldServers(),
		Next: s.configuration.NewServers(),
	}
}
