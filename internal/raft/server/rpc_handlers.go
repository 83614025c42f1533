package server

import (
	"context"

	"raftcore/internal/raft"
	"raftcore/internal/raft/transport"
)

// RequestVote implements transport.RaftServer.
func (s *Server) RequestVote(ctx context.Context, req *raft.RequestVoteRequest) (*raft.RequestVoteResponse, error) {
	resp := s.state.HandleRequestVote(*req)
	return &resp, nil
}

// AppendEntries implements transport.RaftServer.
func (s *Server) AppendEntries(ctx context.Context, req *raft.AppendEntriesRequest) (*raft.AppendEntriesResponse, error) {
	resp := s.state.HandleAppendEntries(*req)
	return &resp, nil
}

// GetSupportedRPCVersions implements transport.RaftServer. It is
// answered without touching the consensus lock (SPEC_FULL.md §13).
func (s *Server) GetSupportedRPCVersions(ctx context.Context, _ *struct{}) (*raft.SupportedRPCVersions, error) {
	v := s.state.SupportedRPCVersions()
	return &v, nil
}

// Submit implements transport.RaftServer: the single entry point every
// client-facing mutation (OpenLog/DeleteLog/Append) funnels through.
func (s *Server) Submit(ctx context.Context, req *transport.SubmitRequest) (*raft.ClientResult, error) {
	result := s.state.Replicate(req.Payload, req.Client)
	return &result, nil
}

// ReadLog implements transport.RaftServer.
func (s *Server) ReadLog(ctx context.Context, req *transport.ReadLogRequest) (*transport.ReadLogResponse, error) {
	records, found := s.store.Read(req.LogName, req.MinID, req.MaxID)
	return &transport.ReadLogResponse{Records: records, Found: found}, nil
}

// ListLogs implements transport.RaftServer.
func (s *Server) ListLogs(ctx context.Context, _ *struct{}) (*transport.ListLogsResponse, error) {
	return &transport.ListLogsResponse{Names: s.store.ListLogs()}, nil
}

// GetLastID implements transport.RaftServer.
func (s *Server) GetLastID(ctx context.Context, _ *struct{}) (*transport.GetLastIDResponse, error) {
	return &transport.GetLastIDResponse{ID: s.state.GetLastCommittedID()}, nil
}

// GetConfiguration implements transport.RaftServer.
func (s *Server) GetConfiguration(ctx context.Context, _ *struct{}) (*transport.GetConfigurationResponse, error) {
	id, desc := s.state.CurrentConfiguration()
	return &transport.GetConfigurationResponse{ID: id, Desc: desc}, nil
}

// SetConfiguration implements transport.RaftServer. It starts replicators
// for any newly-referenced server before handing off to the consensus
// layer, since core.SetConfiguration's catch-up wait depends on a
// replicator already feeding that server AppendEntries (spec.md §1
// scenario 4: adding a server must work against a running cluster, not
// just at next restart). Once the call settles, whatever outcome it
// reached, replicators are reconciled against the resulting live
// configuration so servers dropped from it stop being replicated to.
func (s *Server) SetConfiguration(ctx context.Context, req *transport.SetConfigurationRequest) (*raft.ClientResult, error) {
	for _, sd := range req.NewServers {
		if sd.ID != s.self.ID {
			s.addPeerLive(sd)
		}
	}
	result := s.state.SetConfiguration(req.OldID, req.NewServers)
	s.reconcilePeers(s.peersFromConfiguration())
	return &result, nil
}

// GetMetricsReport implements transport.RaftServer, answering with this
// node's current performance snapshot for raftctl's metrics subcommand.
func (s *Server) GetMetricsReport(ctx context.Context, _ *struct{}) (*transport.GetMetricsReportResponse, error) {
	if s.reporter == nil {
		return &transport.GetMetricsReportResponse{}, nil
	}
	return &transport.GetMetricsReportResponse{Report: s.reporter.GetReport(s.clusterSize())}, nil
}
