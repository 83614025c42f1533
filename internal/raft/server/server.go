// Package server wires together ConsensusState, its workers (peer
// replicators, election timer, lease monitor), the durable log, the
// state machine and the gRPC transport into one running node, and
// exposes the client-facing RPCs of SPEC_FULL.md §13.
//
// Grounded on the teacher's internal/raft/server/server.go (NewServer /
// StartServer / GracefulShutdown lifecycle, and the RequestVote /
// AppendEntries handler shape) generalized to delegate all consensus
// logic to package core instead of a per-field-mutex serverState.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
	"raftcore/internal/raft/core"
	"raftcore/internal/raft/election"
	"raftcore/internal/raft/lease"
	"raftcore/internal/raft/metrics"
	"raftcore/internal/raft/peer"
	"raftcore/internal/raft/statemachine"
	"raftcore/internal/raft/transport"
)

// reportingMetrics is implemented by *metrics.Metrics. It is narrower than
// core.MetricsCollector: just the read side the GetMetricsReport RPC needs,
// so Server doesn't have to depend on the full metrics type to record.
type reportingMetrics interface {
	GetReport(clusterSize int) metrics.Report
}

// Server is one running cluster member.
type Server struct {
	self      raft.ServerDescriptor
	state     *core.ConsensusState
	log       raft.Log
	store     *statemachine.LogStore
	transport raft.Transport
	logger    *logrus.Entry
	reporter  reportingMetrics

	grpcServer *grpc.Server
	timing     core.Timing

	mu          sync.Mutex
	runCtx      context.Context
	cancelRun   context.CancelFunc
	replicators map[raft.ServerID]context.CancelFunc
}

// Config bundles everything New needs to construct a node.
type Config struct {
	Self            raft.ServerDescriptor
	Log             raft.Log
	Transport       raft.Transport
	Logger          *logrus.Entry
	Timing          core.Timing
	Metrics         core.MetricsCollector
	Configuration   *conf.Configuration
	DebugInvariants bool
}

// New constructs a Server but does not start any goroutines.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	store := statemachine.New(logger.WithField("component", "statemachine"))

	timing := cfg.Timing
	if timing.HeartbeatPeriod == 0 {
		timing = core.DefaultTiming()
	}

	state, err := core.New(core.Options{
		Self:            cfg.Self,
		Log:             cfg.Log,
		Clock:           raft.SystemClock(),
		StateMachine:    store,
		Metrics:         cfg.Metrics,
		Timing:          timing,
		Logger:          logger,
		Configuration:   cfg.Configuration,
		DebugInvariants: cfg.DebugInvariants,
	})
	if err != nil {
		return nil, fmt.Errorf("construct consensus state: %w", err)
	}

	var reporter reportingMetrics
	if rm, ok := cfg.Metrics.(reportingMetrics); ok {
		reporter = rm
	}

	return &Server{
		self:        cfg.Self,
		state:       state,
		log:         cfg.Log,
		store:       store,
		transport:   cfg.Transport,
		logger:      logger,
		reporter:    reporter,
		timing:      timing,
		replicators: make(map[raft.ServerID]context.CancelFunc),
	}, nil
}

// Start launches every background worker (the applier, the election
// timer, the lease monitor, and one peer replicator per known peer) and
// binds a gRPC listener at addr.
func (s *Server) Start(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.runCtx = ctx
	s.cancelRun = cancel
	s.mu.Unlock()

	go s.state.RunApplier(ctx)
	go election.New(s.state, s.logger.WithField("component", "election")).Run(ctx)
	go lease.New(s.state, s.timing.HeartbeatPeriod).Run(ctx)
	s.syncReplicators(ctx)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		cancel()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.loggingInterceptor()))
	transport.RegisterRaftServer(s.grpcServer, s)

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			s.logger.WithError(err).Warn("grpc server stopped")
		}
	}()
	return nil
}

// syncReplicators starts one peer.Replicator per currently known peer. It
// runs once at startup against whatever configuration the log recovered;
// servers added or removed afterward are handled live by reconcilePeers,
// called from the SetConfiguration RPC handler.
func (s *Server) syncReplicators(ctx context.Context) {
	for _, r := range s.peersFromConfiguration() {
		s.AddPeer(ctx, r)
	}
}

func (s *Server) peersFromConfiguration() []raft.ServerDescriptor {
	_, desc := s.state.CurrentConfiguration()
	seen := make(map[raft.ServerID]bool)
	var out []raft.ServerDescriptor
	add := func(list []raft.ServerDescriptor) {
		for _, sd := range list {
			if sd.ID == s.self.ID || seen[sd.ID] {
				continue
			}
			seen[sd.ID] = true
			out = append(out, sd)
		}
	}
	add(desc.Prev)
	add(desc.Next)
	return out
}

// AddPeer starts a replicator goroutine for peer if one is not already
// running. Safe to call concurrently with Start and with itself.
func (s *Server) AddPeer(ctx context.Context, peerDesc raft.ServerDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replicators[peerDesc.ID]; ok {
		return
	}
	peerCtx, cancel := context.WithCancel(ctx)
	s.replicators[peerDesc.ID] = cancel
	r := peer.New(peerDesc, s.state, s.transport, s.logger.WithField("component", "peer"))
	go r.Run(peerCtx)
}

// addPeerLive starts a replicator for sd using the server's running
// context, for use by request handlers that run after Start.
func (s *Server) addPeerLive(sd raft.ServerDescriptor) {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	s.AddPeer(ctx, sd)
}

// RemovePeer stops peerID's replicator, if one is running.
func (s *Server) RemovePeer(peerID raft.ServerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.replicators[peerID]; ok {
		cancel()
		delete(s.replicators, peerID)
	}
}

// reconcilePeers brings the live replicator set in line with members: a
// replicator is started for every member not already being replicated to,
// and stopped for every running replicator whose server is no longer a
// member. Called from the SetConfiguration RPC handler so an online
// membership change (spec.md §1 scenario 4: add a server to a running
// cluster) actually starts feeding the new server AppendEntries instead of
// waiting on a restart.
func (s *Server) reconcilePeers(members []raft.ServerDescriptor) {
	want := make(map[raft.ServerID]bool, len(members))
	for _, sd := range members {
		if sd.ID != s.self.ID {
			want[sd.ID] = true
		}
	}
	s.mu.Lock()
	var stale []raft.ServerID
	for id := range s.replicators {
		if !want[id] {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, sd := range members {
		if sd.ID != s.self.ID {
			s.addPeerLive(sd)
		}
	}
	for _, id := range stale {
		s.RemovePeer(id)
	}
}

// clusterSize reports the number of distinct servers named by the current
// configuration, self included, for the GetMetricsReport RPC.
func (s *Server) clusterSize() int {
	return len(s.peersFromConfiguration()) + 1
}

// Stop shuts down every worker and the gRPC listener.
func (s *Server) Stop() {
	s.state.Stop()
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.mu.Unlock()
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	s.log.Close()
}

// ConsensusState exposes the underlying monitor for callers that need
// direct, read-only status (e.g. tests).
func (s *Server) ConsensusState() *core.ConsensusState { return s.state }
