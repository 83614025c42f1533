package core

import (
	"context"

	"raftcore/internal/raft"
)

// RunApplier is the "separate reader" referenced by raft.StateMachine's
// doc comment: it delivers committed entries to sm in order, deduping
// client-submitted entries against Replicate's own waiters via
// MarkApplied. It runs until ctx is cancelled or Stop is called.
func (s *ConsensusState) RunApplier(ctx context.Context) {
	var after raft.EntryID
	for {
		entry, ok := s.NextToApply(after)
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.stateMachine.Apply(entry)
		result := raft.ClientResult{Code: raft.ResultSuccess, EntryID: entry.ID}
		s.MarkApplied(entry.ID, result, entry.Client)
		after = entry.ID
	}
}

// SupportedRPCVersions answers GetSupportedRpcVersions without taking the
// consensus lock (SPEC_FULL.md §13): the supported range is fixed at
// build time, not runtime state.
func (s *ConsensusState) SupportedRPCVersions() raft.SupportedRPCVersions {
	return raft.SupportedRPCVersions{MinVersion: 1, MaxVersion: 1}
}
