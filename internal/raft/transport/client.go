package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"raftcore/internal/raft"
)

// NodeClient is a thin gRPC client for the client-facing half of
// RaftService, used by cmd/raftctl.
type NodeClient struct {
	conn *grpc.ClientConn
}

// Dial connects to a single node's listen address.
func Dial(addr string) (*NodeClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &NodeClient{conn: conn}, nil
}

func (c *NodeClient) Close() error { return c.conn.Close() }

func (c *NodeClient) Submit(ctx context.Context, req SubmitRequest) (raft.ClientResult, error) {
	resp := new(raft.ClientResult)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/Submit", &req, resp, callOpts...); err != nil {
		return raft.ClientResult{}, err
	}
	return *resp, nil
}

func (c *NodeClient) ReadLog(ctx context.Context, req ReadLogRequest) (ReadLogResponse, error) {
	resp := new(ReadLogResponse)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/ReadLog", &req, resp, callOpts...); err != nil {
		return ReadLogResponse{}, err
	}
	return *resp, nil
}

func (c *NodeClient) ListLogs(ctx context.Context) (ListLogsResponse, error) {
	resp := new(ListLogsResponse)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/ListLogs", &struct{}{}, resp, callOpts...); err != nil {
		return ListLogsResponse{}, err
	}
	return *resp, nil
}

func (c *NodeClient) GetLastID(ctx context.Context) (GetLastIDResponse, error) {
	resp := new(GetLastIDResponse)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/GetLastID", &struct{}{}, resp, callOpts...); err != nil {
		return GetLastIDResponse{}, err
	}
	return *resp, nil
}

func (c *NodeClient) GetConfiguration(ctx context.Context) (GetConfigurationResponse, error) {
	resp := new(GetConfigurationResponse)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/GetConfiguration", &struct{}{}, resp, callOpts...); err != nil {
		return GetConfigurationResponse{}, err
	}
	return *resp, nil
}

func (c *NodeClient) SetConfiguration(ctx context.Context, req SetConfigurationRequest) (raft.ClientResult, error) {
	resp := new(raft.ClientResult)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/SetConfiguration", &req, resp, callOpts...); err != nil {
		return raft.ClientResult{}, err
	}
	return *resp, nil
}

func (c *NodeClient) GetMetricsReport(ctx context.Context) (GetMetricsReportResponse, error) {
	resp := new(GetMetricsReportResponse)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/GetMetricsReport", &struct{}{}, resp, callOpts...); err != nil {
		return GetMetricsReportResponse{}, err
	}
	return *resp, nil
}
