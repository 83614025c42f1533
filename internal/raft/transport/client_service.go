package transport

import (
	"raftcore/internal/raft"
	"raftcore/internal/raft/metrics"
)

// The request/response shapes below are the client-facing half of the
// RaftService, carried over the same gob codec as the consensus RPCs
// (SPEC_FULL.md §13: OpenLog/DeleteLog/Append are all submitted as a
// single opaque payload the state machine interprets; Read/ListLogs/
// GetLastId/GetConfiguration/SetConfiguration are direct calls).

type SubmitRequest struct {
	Payload []byte
	Client  raft.ClientIdentity
}

type ReadLogRequest struct {
	LogName  string
	MinID    raft.EntryID
	MaxID    raft.EntryID
}

type ReadLogResponse struct {
	Records [][]byte
	Found   bool
}

type ListLogsResponse struct {
	Names []string
}

type GetLastIDResponse struct {
	ID raft.EntryID
}

type GetConfigurationResponse struct {
	ID   raft.EntryID
	Desc raft.ConfigurationDescriptor
}

type SetConfigurationRequest struct {
	OldID      raft.EntryID
	NewServers []raft.ServerDescriptor
}

// GetMetricsReportResponse carries a node's performance snapshot, so
// raftctl can print or save it.
type GetMetricsReportResponse struct {
	Report metrics.Report
}
