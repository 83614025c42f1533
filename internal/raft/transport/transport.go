package transport

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"raftcore/internal/raft"
)

var callOpts = []grpc.CallOption{grpc.CallContentSubtype(codecName)}

// Transport is the production raft.Transport: one lazily-created gRPC
// connection per peer address, reused across every RPC package peer
// issues to that address.
//
// Grounded on the teacher's internal/raft/transport/transport.go
// connection-pool-by-address pattern, generalized from a single
// generated RaftServiceClient per address to three direct cc.Invoke
// calls using the gob codec registered in codec.go.
type Transport struct {
	mu    sync.RWMutex
	conns map[string]*grpc.ClientConn
}

func New() *Transport {
	return &Transport{conns: make(map[string]*grpc.ClientConn)}
}

func (t *Transport) connFor(addr string) (*grpc.ClientConn, error) {
	t.mu.RLock()
	conn, ok := t.conns[addr]
	t.mu.RUnlock()
	if ok {
		return conn, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if conn, ok := t.conns[addr]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial peer %s: %w", addr, err)
	}
	t.conns[addr] = conn
	return conn, nil
}

func (t *Transport) RequestVote(ctx context.Context, peer raft.ServerDescriptor, req raft.RequestVoteRequest) (raft.RequestVoteResponse, error) {
	conn, err := t.connFor(peer.Address)
	if err != nil {
		return raft.RequestVoteResponse{}, err
	}
	resp := new(raft.RequestVoteResponse)
	if err := conn.Invoke(ctx, "/"+serviceName+"/RequestVote", &req, resp, callOpts...); err != nil {
		return raft.RequestVoteResponse{}, err
	}
	return *resp, nil
}

func (t *Transport) AppendEntries(ctx context.Context, peer raft.ServerDescriptor, req raft.AppendEntriesRequest) (raft.AppendEntriesResponse, error) {
	conn, err := t.connFor(peer.Address)
	if err != nil {
		return raft.AppendEntriesResponse{}, err
	}
	resp := new(raft.AppendEntriesResponse)
	if err := conn.Invoke(ctx, "/"+serviceName+"/AppendEntries", &req, resp, callOpts...); err != nil {
		return raft.AppendEntriesResponse{}, err
	}
	return *resp, nil
}

func (t *Transport) GetSupportedRPCVersions(ctx context.Context, peer raft.ServerDescriptor) (raft.SupportedRPCVersions, error) {
	conn, err := t.connFor(peer.Address)
	if err != nil {
		return raft.SupportedRPCVersions{}, err
	}
	resp := new(raft.SupportedRPCVersions)
	if err := conn.Invoke(ctx, "/"+serviceName+"/GetSupportedRpcVersions", &struct{}{}, resp, callOpts...); err != nil {
		return raft.SupportedRPCVersions{}, err
	}
	return *resp, nil
}

// Close tears down every pooled connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var firstErr error
	for addr, conn := range t.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close conn to %s: %w", addr, err)
		}
	}
	t.conns = make(map[string]*grpc.ClientConn)
	return firstErr
}

var _ raft.Transport = (*Transport)(nil)
