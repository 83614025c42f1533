package server

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"raftcore/internal/raft"
	"raftcore/internal/raft/statemachine"
)

// NewClientID derives a stable uint64 client identity from a fresh UUID,
// for use as the ClientID half of a raft.ClientIdentity (SPEC_FULL.md
// §13's idempotence scheme, grounded on LogCabin's ExactlyOnceRPCInfo).
func NewClientID() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}

func (s *Server) submit(ctx context.Context, payload []byte, client raft.ClientIdentity) (raft.EntryID, error) {
	result := s.state.Replicate(payload, client)
	switch result.Code {
	case raft.ResultSuccess:
		return result.EntryID, nil
	case raft.ResultNotLeader:
		return 0, &raft.NotLeaderError{LeaderHint: result.LeaderHint}
	case raft.ResultRetry:
		return 0, &raft.RetryError{}
	default:
		return 0, &raft.FailError{Reason: "command failed", FailedServers: result.FailedServers}
	}
}

// OpenLog creates logName if it does not already exist.
func (s *Server) OpenLog(ctx context.Context, logName string, client raft.ClientIdentity) error {
	payload, err := statemachine.EncodeCommand(statemachine.Command{Op: statemachine.OpOpenLog, LogName: logName})
	if err != nil {
		return fmt.Errorf("encode OpenLog: %w", err)
	}
	_, err = s.submit(ctx, payload, client)
	return err
}

// DeleteLog removes logName and every record it holds.
func (s *Server) DeleteLog(ctx context.Context, logName string, client raft.ClientIdentity) error {
	payload, err := statemachine.EncodeCommand(statemachine.Command{Op: statemachine.OpDeleteLog, LogName: logName})
	if err != nil {
		return fmt.Errorf("encode DeleteLog: %w", err)
	}
	_, err = s.submit(ctx, payload, client)
	return err
}

// Append adds data to logName and returns the committed EntryID.
func (s *Server) Append(ctx context.Context, logName string, data []byte, client raft.ClientIdentity) (raft.EntryID, error) {
	payload, err := statemachine.EncodeCommand(statemachine.Command{Op: statemachine.OpAppend, LogName: logName, Data: data})
	if err != nil {
		return 0, fmt.Errorf("encode Append: %w", err)
	}
	return s.submit(ctx, payload, client)
}

// LocalRead returns every record appended to logName between minID and
// maxID (maxID == 0 means "through the end"), answered locally from the
// state machine without an RPC round trip. Callers that need a
// linearizable read should first confirm core.ConsensusState.UpToDateLeader.
func (s *Server) LocalRead(logName string, minID, maxID raft.EntryID) ([][]byte, bool) {
	return s.store.Read(logName, minID, maxID)
}
