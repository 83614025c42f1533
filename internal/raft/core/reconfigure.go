package core

import (
	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
)

// SetConfiguration implements the joint-consensus configuration change of
// spec.md §4.1 steps 1-6: stage the new servers, wait for them to catch
// up on the log, commit a TRANSITIONAL entry spanning both the old and
// new server sets, then commit a STABLE entry naming only the new set. A
// leader that removes itself steps down once the STABLE entry commits.
func (s *ConsensusState) SetConfiguration(oldID raft.EntryID, newServers []raft.ServerDescriptor) raft.ClientResult {
	s.mu.Lock()

	if s.role != raft.Leader {
		hint := s.leaderHintDescriptorLocked()
		s.mu.Unlock()
		return raft.ClientResult{Code: raft.ResultNotLeader, LeaderHint: hint}
	}
	if s.configuration.ID() != oldID {
		s.mu.Unlock()
		return raft.ClientResult{Code: raft.ResultRetry}
	}
	if s.configuration.State() != conf.Stable {
		s.mu.Unlock()
		return raft.ClientResult{Code: raft.ResultRetry}
	}

	term := s.currentTerm
	lastID := s.log.LastID()
	s.configuration.SetStagingServers(newServers)
	for _, sd := range newServers {
		if sd.ID == s.self.ID {
			continue
		}
		r := s.configuration.Record(sd.ID)
		r.NextIndex = lastID + 1
		r.CaughtUp = false
		r.CatchUpIterationStart = s.clock.Now()
		r.CatchUpIterationGoalID = lastID
		r.CatchUpIterations = 0
	}
	s.cond.Broadcast()

	// Wait for every staging server to catch up, or for one to exceed the
	// iteration budget, or for this server to lose leadership.
	for {
		if s.exiting {
			s.mu.Unlock()
			return raft.ClientResult{Code: raft.ResultRetry}
		}
		if s.currentTerm != term || s.role != raft.Leader {
			// Staging servers are already mutated into this configuration;
			// as in waitCommittedLocked, losing leadership mid-catch-up is
			// the transient case, reported as Retry.
			hint := s.leaderHintDescriptorLocked()
			s.mu.Unlock()
			return raft.ClientResult{Code: raft.ResultRetry, LeaderHint: hint}
		}

		allCaughtUp := true
		var failed []raft.ServerID
		for _, sd := range newServers {
			if sd.ID == s.self.ID {
				continue
			}
			r := s.configuration.Record(sd.ID)
			if r.CatchUpIterations > s.timing.MaxCatchUpIterations {
				failed = append(failed, sd.ID)
				continue
			}
			if !r.CaughtUp {
				allCaughtUp = false
			}
		}
		if len(failed) > 0 {
			s.configuration.ResetStagingServers()
			s.cond.Broadcast()
			s.mu.Unlock()
			return raft.ClientResult{Code: raft.ResultFail, FailedServers: failed}
		}
		if allCaughtUp {
			break
		}
		s.cond.Wait()
	}

	transitionalID, err := s.appendEntryLocked(raft.Entry{
		Type: raft.EntryConfiguration,
		Config: raft.ConfigurationDescriptor{
			Prev: s.configuration.OldServers(),
			Next: newServers,
		},
	})
	if err != nil {
		s.mu.Unlock()
		return raft.ClientResult{Code: raft.ResultFail}
	}
	if res, ok := s.waitCommittedLocked(term, transitionalID); !ok {
		return res
	}

	stableID, err := s.appendEntryLocked(raft.Entry{
		Type:   raft.EntryConfiguration,
		Config: raft.ConfigurationDescriptor{Prev: newServers},
	})
	if err != nil {
		s.mu.Unlock()
		return raft.ClientResult{Code: raft.ResultFail}
	}
	if res, ok := s.waitCommittedLocked(term, stableID); !ok {
		return res
	}

	stillMember := false
	for _, sd := range newServers {
		if sd.ID == s.self.ID {
			stillMember = true
			break
		}
	}
	if !stillMember {
		s.stepDownLocked(s.currentTerm, nil)
	}

	s.mu.Unlock()
	return raft.ClientResult{Code: raft.ResultSuccess, EntryID: stableID}
}

// waitCommittedLocked blocks until id is committed, leadership is lost, or
// the server exits. On any non-success outcome it unlocks s.mu itself and
// returns ok=false with the ClientResult the caller should return
// immediately; on success it returns with s.mu still held.
func (s *ConsensusState) waitCommittedLocked(term raft.Term, id raft.EntryID) (raft.ClientResult, bool) {
	for {
		if s.exiting {
			s.mu.Unlock()
			return raft.ClientResult{Code: raft.ResultRetry}, false
		}
		if s.currentTerm != term || s.role != raft.Leader {
			// As in Replicate: the entries are already appended, so losing
			// leadership mid-wait (e.g. a lease-expiry step-down) is the
			// transient case spec.md wants reported as Retry, not NotLeader.
			hint := s.leaderHintDescriptorLocked()
			s.mu.Unlock()
			return raft.ClientResult{Code: raft.ResultRetry, LeaderHint: hint}, false
		}
		if s.commitIndex >= id {
			return raft.ClientResult{}, true
		}
		s.cond.Wait()
	}
}
