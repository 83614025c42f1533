package core

import (
	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
)

// RPCKind distinguishes the two outbound RPCs a peer replicator issues.
type RPCKind int

const (
	NoRPC RPCKind = iota
	VoteRPC
	AppendRPC
)

// Plan is a snapshot of the next RPC a peer replicator should send,
// computed under the consensus lock and executed with it released (§5).
type Plan struct {
	Kind      RPCKind
	Term      raft.Term
	VoteReq   raft.RequestVoteRequest
	AppendReq raft.AppendEntriesRequest
	// sentCount is the number of entries included in AppendReq, recorded
	// here because Entries may be re-sliced by the transport layer.
	sentCount int
}

// PlanPeerRPC implements the decision half of spec.md §4.3's
// PeerReplicator loop: block until there is a reason to contact peerID
// (an election in progress and no vote requested yet, a leader with data
// or a heartbeat due), then return a snapshot describing exactly what to
// send. It returns ok=false once peerID drops out of every configuration
// set or this server exits, telling the replicator to shut down.
func (s *ConsensusState) PlanPeerRPC(peerID raft.ServerID) (Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.exiting {
			return Plan{}, false
		}
		r := s.configuration.Record(peerID)
		if r == nil {
			return Plan{}, false
		}

		now := s.clock.Now()
		if now.Before(r.BackoffUntil) {
			s.waitUntilLocked(r.BackoffUntil)
			continue
		}

		switch s.role {
		case raft.Candidate:
			if s.configuration.HasVote(peerID) && !r.VoteRequested {
				r.VoteRequested = true
				lastTerm, lastID := s.lastLogTermIDLocked()
				return Plan{
					Kind: VoteRPC,
					Term: s.currentTerm,
					VoteReq: raft.RequestVoteRequest{
						CandidateID: s.self.ID,
						Term:        s.currentTerm,
						LastLogTerm: lastTerm,
						LastLogID:   lastID,
					},
				}, true
			}
			s.cond.Wait()

		case raft.Leader:
			lastID := s.log.LastID()
			due := !now.Before(r.NextHeartbeatAt)
			behind := r.NextIndex <= lastID
			if due || behind {
				if due && !behind {
					s.metrics.RecordHeartbeat()
				}
				plan := s.buildAppendPlanLocked(r)
				r.NextHeartbeatAt = now.Add(s.timing.HeartbeatPeriod)
				return plan, true
			}
			s.waitUntilLocked(r.NextHeartbeatAt)

		default: // Follower
			s.cond.Wait()
		}
	}
}

// buildAppendPlanLocked constructs the next AppendEntries request for r,
// bounded by SoftRPCSizeLimit (spec.md §3, §9).
func (s *ConsensusState) buildAppendPlanLocked(r *conf.PeerRecord) Plan {
	prevID := r.NextIndex - 1
	prevTerm := s.log.GetTerm(prevID)

	var entries []raft.Entry
	size := 0
	id := r.NextIndex
	last := s.log.LastID()
	for id <= last {
		e, err := s.log.GetEntry(id)
		if err != nil {
			s.logger.WithError(err).Fatal("failed to read entry for replication")
		}
		if len(entries) > 0 && size+len(e.Payload) > s.timing.SoftRPCSizeLimit {
			break
		}
		entries = append(entries, e)
		size += len(e.Payload)
		id++
	}

	return Plan{
		Kind: AppendRPC,
		Term: s.currentTerm,
		AppendReq: raft.AppendEntriesRequest{
			LeaderID:     s.self.ID,
			Term:         s.currentTerm,
			PrevLogID:    prevID,
			PrevLogTerm:  prevTerm,
			Entries:      entries,
			LeaderCommit: s.commitIndex,
		},
		sentCount: len(entries),
	}
}

// ApplyVoteResult integrates the result of a RequestVote RPC sent to
// peerID, per spec.md §4.1 / §4.4. rpcErr != nil means the RPC itself
// failed (timeout, connection refused, cancellation); the peer is backed
// off and may be retried.
func (s *ConsensusState) ApplyVoteResult(peerID raft.ServerID, plan Plan, resp raft.RequestVoteResponse, rpcErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.configuration.Record(peerID)
	if r == nil {
		return
	}
	if rpcErr != nil {
		r.VoteRequested = false
		r.BackoffUntil = s.clock.Now().Add(s.timing.RPCFailureBackoff)
		s.cond.Broadcast()
		return
	}
	if resp.Term > s.currentTerm {
		s.stepDownLocked(resp.Term, nil)
		s.cond.Broadcast()
		return
	}
	if s.role != raft.Candidate || s.currentTerm != plan.Term {
		return
	}
	if !resp.Granted {
		return
	}

	r.VoteGranted = true
	if s.configuration.QuorumAll(func(p *conf.PeerRecord) bool {
		return p.ID == s.self.ID || p.VoteGranted
	}) {
		s.becomeLeaderLocked()
		s.checkInvariantsLocked()
	}
}

// ApplyAppendResult integrates the result of an AppendEntries RPC sent to
// peerID, per spec.md §4.1 / §4.1.2 / §4.3.
func (s *ConsensusState) ApplyAppendResult(peerID raft.ServerID, plan Plan, resp raft.AppendEntriesResponse, rpcErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.configuration.Record(peerID)
	if r == nil {
		return
	}
	if rpcErr != nil {
		r.BackoffUntil = s.clock.Now().Add(s.timing.RPCFailureBackoff)
		s.cond.Broadcast()
		return
	}
	if resp.Term > s.currentTerm {
		s.stepDownLocked(resp.Term, nil)
		s.cond.Broadcast()
		return
	}
	if s.role != raft.Leader || s.currentTerm != plan.Term {
		return
	}

	req := plan.AppendReq
	sentLast := req.PrevLogID + raft.EntryID(plan.sentCount)
	accepted := resp.Term == s.currentTerm && req.Term == s.currentTerm

	// A response at currentTerm with no ConflictFirstID set is success,
	// following the plain-ack scheme of spec.md §6; a response that carries
	// a ConflictFirstID is a log-mismatch rejection handled below.
	if accepted && resp.ConflictFirstID == 0 {
		r.NextIndex = sentLast + 1
		if sentLast > r.LastAgreeID {
			r.LastAgreeID = sentLast
		}
		r.LastAckEpoch = s.currentEpoch
		s.updateCatchUpLocked(r)
		s.maybeAdvanceCommitIndexLocked()
		s.cond.Broadcast()
		return
	}

	// Rejected due to log mismatch: back-probe using the conflict hint if
	// the responder supplied one, otherwise decrement by one.
	if resp.ConflictFirstID > 0 {
		hintID := resp.ConflictFirstID
		if resp.ConflictTerm != 0 {
			probed := hintID
			for probed > 1 && s.log.GetTerm(probed-1) == resp.ConflictTerm {
				probed--
			}
			hintID = probed
		}
		if hintID < 1 {
			hintID = 1
		}
		r.NextIndex = hintID
	} else if r.NextIndex > 1 {
		r.NextIndex--
	}
	s.cond.Broadcast()
}

// updateCatchUpLocked advances r's staging catch-up bookkeeping after a
// successful append, per spec.md §4.3's round-based criterion: a staging
// server is caught up once it completes a round (reaching the log length
// recorded when the round started) within one election timeout.
func (s *ConsensusState) updateCatchUpLocked(r *conf.PeerRecord) {
	if r.CaughtUp || s.configuration.State() == conf.Stable {
		return
	}
	if r.LastAgreeID < r.CatchUpIterationGoalID {
		return
	}
	elapsed := s.clock.Now().Sub(r.CatchUpIterationStart)
	r.LastIterationDuration = elapsed
	if elapsed <= s.timing.FollowerTimeout {
		r.CaughtUp = true
		return
	}
	r.CatchUpIterations++
	r.CatchUpIterationStart = s.clock.Now()
	r.CatchUpIterationGoalID = s.log.LastID()
}
