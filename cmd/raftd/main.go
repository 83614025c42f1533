// Command raftd runs a single replicated-log cluster member: it loads a
// YAML bootstrap file, opens its durable log, and serves the consensus
// RPCs and client-facing log operations over gRPC until terminated.
//
// Grounded on the teacher's cmd/raft/demo/main.go entrypoint shape
// (flag-parsed bootstrap, signal-driven graceful shutdown).
package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"raftcore/internal/config"
	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
	"raftcore/internal/raft/core"
	"raftcore/internal/raft/metrics"
	"raftcore/internal/raft/server"
	"raftcore/internal/raft/storage"
	"raftcore/internal/raft/transport"
)

func main() {
	configPath := flag.String("config", "raftd.yaml", "path to the cluster bootstrap file")
	flag.Parse()

	logger := logrus.NewEntry(logrus.StandardLogger())

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err == nil {
			logrus.SetLevel(level)
		}
	}
	logger = logger.WithField("server", cfg.SelfID)

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	logPath := filepath.Join(dataDir, "raft.db")
	log, err := storage.OpenBoltLog(logPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to open log store")
	}

	descriptors := cfg.ServerDescriptors()
	self := cfg.Self()

	var initial *conf.Configuration
	switch len(descriptors) {
	case 0:
		initial = conf.NewBlank(self.ID)
	case 1:
		initial = conf.NewSingleServer(self)
	default:
		initial = conf.NewBlank(self.ID)
		initial.SetConfiguration(0, raft.ConfigurationDescriptor{Prev: descriptors})
	}

	defaults := config.TimingDefaults{
		FollowerTimeout:  core.DefaultTiming().FollowerTimeout,
		CandidateTimeout: core.DefaultTiming().CandidateTimeout,
		HeartbeatPeriod:  core.DefaultTiming().HeartbeatPeriod,
		RPCBackoff:       core.DefaultTiming().RPCFailureBackoff,
		CatchUpSlack:     core.DefaultTiming().CatchUpSlack,
		SoftRPCSizeLimit: core.DefaultTiming().SoftRPCSizeLimit,
	}
	resolved := cfg.ResolveTiming(defaults)
	timing := core.Timing{
		FollowerTimeout:      resolved.FollowerTimeout,
		CandidateTimeout:     resolved.CandidateTimeout,
		HeartbeatPeriod:      resolved.HeartbeatPeriod,
		RPCFailureBackoff:    resolved.RPCBackoff,
		CatchUpSlack:         resolved.CatchUpSlack,
		SoftRPCSizeLimit:     resolved.SoftRPCSizeLimit,
		MaxCatchUpIterations: core.DefaultTiming().MaxCatchUpIterations,
	}

	node, err := server.New(server.Config{
		Self:            self,
		Log:             log,
		Transport:       transport.New(),
		Logger:          logger,
		Timing:          timing,
		Metrics:         metrics.NewMetrics(),
		Configuration:   initial,
		DebugInvariants: cfg.DebugMode,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to construct server")
	}

	if err := node.Start(cfg.Listen); err != nil {
		logger.WithError(err).Fatal("failed to start server")
	}
	logger.WithField("listen", cfg.Listen).Info("raftd started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	node.Stop()
}
