// Package peer implements PeerReplicator, the per-peer worker of
// spec.md §4.3: one goroutine per known server other than self, deciding
// and sending the next RequestVote or AppendEntries RPC and feeding the
// result back into the consensus core.
//
// Grounded on the teacher's internal/raft/transport client-call pattern
// for the RPC plumbing, and on w41ter-bior's raft/core/peer package for
// the idea of one independent worker per peer driven off shared state.
package peer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"raftcore/internal/raft"
	"raftcore/internal/raft/core"
)

// Replicator drives RPCs to exactly one peer for the lifetime of a
// ConsensusState.
type Replicator struct {
	peer      raft.ServerDescriptor
	state     *core.ConsensusState
	transport raft.Transport
	logger    *logrus.Entry
}

func New(peer raft.ServerDescriptor, state *core.ConsensusState, transport raft.Transport, logger *logrus.Entry) *Replicator {
	return &Replicator{
		peer:      peer,
		state:     state,
		transport: transport,
		logger:    logger.WithField("peer", peer.ID),
	}
}

// Run blocks, issuing RPCs as PlanPeerRPC directs, until the peer leaves
// every configuration or the server exits.
func (r *Replicator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		plan, ok := r.state.PlanPeerRPC(r.peer.ID)
		if !ok {
			return
		}

		rpcCtx, cancel := context.WithCancel(ctx)
		r.state.RegisterSession(r.peer.ID, cancel)

		switch plan.Kind {
		case core.VoteRPC:
			resp, err := r.transport.RequestVote(rpcCtx, r.peer, plan.VoteReq)
			cancel()
			r.state.UnregisterSession(r.peer.ID)
			if err != nil {
				r.logger.WithError(err).Debug("request vote rpc failed")
			}
			r.state.ApplyVoteResult(r.peer.ID, plan, resp, err)

		case core.AppendRPC:
			resp, err := r.transport.AppendEntries(rpcCtx, r.peer, plan.AppendReq)
			cancel()
			r.state.UnregisterSession(r.peer.ID)
			if err != nil {
				r.logger.WithError(err).Debug("append entries rpc failed")
			}
			r.state.ApplyAppendResult(r.peer.ID, plan, resp, err)

		default:
			cancel()
			r.state.UnregisterSession(r.peer.ID)
			time.Sleep(time.Millisecond)
		}
	}
}
