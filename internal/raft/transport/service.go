package transport

import (
	"context"

	"google.golang.org/grpc"

	"raftcore/internal/raft"
)

const serviceName = "raft.RaftService"

// RaftServer is implemented by package server and registered with a
// *grpc.Server via RegisterRaftServer.
type RaftServer interface {
	RequestVote(context.Context, *raft.RequestVoteRequest) (*raft.RequestVoteResponse, error)
	AppendEntries(context.Context, *raft.AppendEntriesRequest) (*raft.AppendEntriesResponse, error)
	GetSupportedRPCVersions(context.Context, *struct{}) (*raft.SupportedRPCVersions, error)

	Submit(context.Context, *SubmitRequest) (*raft.ClientResult, error)
	ReadLog(context.Context, *ReadLogRequest) (*ReadLogResponse, error)
	ListLogs(context.Context, *struct{}) (*ListLogsResponse, error)
	GetLastID(context.Context, *struct{}) (*GetLastIDResponse, error)
	GetConfiguration(context.Context, *struct{}) (*GetConfigurationResponse, error)
	SetConfiguration(context.Context, *SetConfigurationRequest) (*raft.ClientResult, error)
	GetMetricsReport(context.Context, *struct{}) (*GetMetricsReportResponse, error)
}

func decodeRequestVote(dec func(any) error) (*raft.RequestVoteRequest, error) {
	req := new(raft.RequestVoteRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return req, nil
}

func _RaftService_RequestVote_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req, err := decodeRequestVote(dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).RequestVote(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RequestVote"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).RequestVote(ctx, req.(*raft.RequestVoteRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_AppendEntries_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(raft.AppendEntriesRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).AppendEntries(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AppendEntries"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).AppendEntries(ctx, req.(*raft.AppendEntriesRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_GetSupportedRPCVersions_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(struct{})
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).GetSupportedRPCVersions(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetSupportedRpcVersions"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).GetSupportedRPCVersions(ctx, req.(*struct{}))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_Submit_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(SubmitRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).Submit(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Submit"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).Submit(ctx, req.(*SubmitRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_ReadLog_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ReadLogRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).ReadLog(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ReadLog"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).ReadLog(ctx, req.(*ReadLogRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_ListLogs_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(struct{})
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).ListLogs(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListLogs"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).ListLogs(ctx, req.(*struct{}))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_GetLastID_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(struct{})
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).GetLastID(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetLastID"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).GetLastID(ctx, req.(*struct{}))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_GetConfiguration_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(struct{})
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).GetConfiguration(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetConfiguration"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).GetConfiguration(ctx, req.(*struct{}))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_SetConfiguration_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(SetConfigurationRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).SetConfiguration(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/SetConfiguration"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).SetConfiguration(ctx, req.(*SetConfigurationRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RaftService_GetMetricsReport_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(struct{})
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).GetMetricsReport(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetMetricsReport"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RaftServer).GetMetricsReport(ctx, req.(*struct{}))
	}
	return interceptor(ctx, req, info, handler)
}

// ServiceDesc is the hand-built equivalent of what protoc-gen-go-grpc
// generates from a .proto file: a method table grpc.Server dispatches
// through by full method name.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RaftServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RequestVote", Handler: _RaftService_RequestVote_Handler},
		{MethodName: "AppendEntries", Handler: _RaftService_AppendEntries_Handler},
		{MethodName: "GetSupportedRpcVersions", Handler: _RaftService_GetSupportedRPCVersions_Handler},
		{MethodName: "Submit", Handler: _RaftService_Submit_Handler},
		{MethodName: "ReadLog", Handler: _RaftService_ReadLog_Handler},
		{MethodName: "ListLogs", Handler: _RaftService_ListLogs_Handler},
		{MethodName: "GetLastID", Handler: _RaftService_GetLastID_Handler},
		{MethodName: "GetConfiguration", Handler: _RaftService_GetConfiguration_Handler},
		{MethodName: "SetConfiguration", Handler: _RaftService_SetConfiguration_Handler},
		{MethodName: "GetMetricsReport", Handler: _RaftService_GetMetricsReport_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "raft.proto",
}

// RegisterRaftServer wires srv into s's dispatch table.
func RegisterRaftServer(s grpc.ServiceRegistrar, srv RaftServer) {
	s.RegisterService(&ServiceDesc, srv)
}
