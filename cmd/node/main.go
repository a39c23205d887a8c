package main

import (
	"chordring/internal/bootstrap"
	"chordring/internal/config"
	"chordring/internal/logger"
	zapfactory "chordring/internal/logger/zap"
	"chordring/internal/node"
	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/server"
	"chordring/internal/stabilizer"
	"chordring/internal/storage"
	"chordring/internal/telemetry"
	"chordring/internal/telemetry/lookuptrace"
	"chordring/internal/transport/rpc"
	"chordring/internal/watcher"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
)

var defaultConfigPath = "config/node/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.NewZapLogger(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.New(zapLog)
	} else {
		lgr = &logger.NopLogger{}
	}
	cfg.LogConfig(lgr)

	lis, advertised, err := server.Listen(cfg.Ring.Mode, cfg.Node.Bind, cfg.Node.Host, cfg.Node.Port)
	if err != nil {
		lgr.Error("failed to initialize listener", logger.F("err", err))
		os.Exit(1)
	}
	defer func() { _ = lis.Close() }()
	lgr.Debug("created listener", logger.F("advertised", advertised))

	space, err := ringid.NewSpace(cfg.Ring.IDBits, cfg.Ring.FaultTolerance.SuccessorListSize)
	if err != nil {
		lgr.Error("failed to initialize identifier space", logger.F("err", err))
		os.Exit(1)
	}
	lgr.Debug("identifier space initialized",
		logger.F("bits", space.Bits), logger.F("byteLen", space.ByteLen), logger.F("succListSize", space.SuccListSize))

	var id ringid.ID
	if cfg.Node.Id == "" {
		id = space.NewIDFromString(advertised)
	} else {
		id, err = space.FromHexString(cfg.Node.Id)
		if err != nil {
			lgr.Error("invalid node ID in configuration", logger.F("err", err))
			os.Exit(1)
		}
	}
	self := ring.PeerAddress{ID: id, Handle: advertised}
	lgr = lgr.Named("node").With(logger.FPeer("self", self))
	lgr.Info("node initializing")

	shutdown := telemetry.InitTracer(cfg.Telemetry, "chordring-node", id)
	defer func() { _ = shutdown(context.Background()) }()

	store := storage.NewMemoryStore(lgr.Named("storage"))
	dial := rpc.NewManager(lgr.Named("rpc"), 5*time.Second, 2*time.Minute)
	defer dial.Close()
	watch := watcher.NewInMemorySupervisor(lgr.Named("watcher"))

	timeouts := stabilizer.Timeouts{
		Liveness:   cfg.Ring.FaultTolerance.Timeouts.Liveness,
		Structural: cfg.Ring.FaultTolerance.Timeouts.Structural,
		FindNode:   cfg.Ring.FaultTolerance.Timeouts.FindNode,
		SetChunk:   cfg.Ring.FaultTolerance.Timeouts.SetChunk,
	}
	n := node.New(self, space, store, dial, watch, cfg.Ring.FaultTolerance.SuccessorListSize, timeouts, lgr.Named("stabilizer"))
	lgr.Debug("node struct initialized")

	var grpcOpts []grpc.ServerOption
	if cfg.Telemetry.Tracing.Enabled {
		grpcOpts = append(grpcOpts, grpc.ChainUnaryInterceptor(lookuptrace.ServerInterceptor()))
		lgr.Debug("gRPC tracing enabled (lookup-only)")
	}

	srv, err := server.New(lis, n, grpcOpts, server.WithLogger(lgr.Named("server")))
	if err != nil {
		lgr.Error("failed to initialize gRPC server", logger.F("err", err))
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()
	lgr.Debug("server started")

	var reg bootstrap.Bootstrap
	switch cfg.Ring.Bootstrap.Mode {
	case "static":
		reg = bootstrap.NewStaticBootstrap(cfg.Ring.Bootstrap.Peers)
	case "dns":
		if cfg.Ring.Bootstrap.Register.Enabled {
			reg, err = bootstrap.NewRoute53Bootstrap(cfg.Ring.Bootstrap.Register)
			if err != nil {
				lgr.Error("failed to initialize Route53 bootstrap", logger.F("err", err))
				srv.Stop()
				os.Exit(1)
			}
		} else {
			reg = bootstrap.NewDNSBootstrap(cfg.Ring.Bootstrap)
		}
	case "init":
		reg = bootstrap.NewStaticBootstrap(nil)
	default:
		lgr.Error("unsupported bootstrap mode", logger.F("mode", cfg.Ring.Bootstrap.Mode))
		srv.Stop()
		os.Exit(1)
	}

	discoverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	peers, err := reg.Discover(discoverCtx)
	cancel()
	if err != nil {
		lgr.Error("failed to resolve bootstrap peers", logger.F("err", err))
		srv.Stop()
		os.Exit(1)
	}
	lgr.Info("resolved bootstrap peers", logger.F("peers", peers))

	if err := n.Join(context.Background(), peers); err != nil {
		lgr.Error("failed to join ring", logger.F("err", err))
		srv.Stop()
		os.Exit(1)
	}
	if len(peers) == 0 {
		lgr.Debug("no bootstrap peers found, starting a new ring")
	}

	registerCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = reg.Register(registerCtx, self)
	cancel()
	if err != nil {
		lgr.Error("failed to register node", logger.F("err", err))
	} else {
		lgr.Info("node registered successfully")
		defer func() {
			deregisterCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := reg.Deregister(deregisterCtx, self); err != nil {
				lgr.Warn("failed to deregister node", logger.F("err", err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	handle := watcher.NewTickerHandle(ctx, cfg.Ring.FaultTolerance.StabilizationInterval, lgr.Named("stabilizer"), n.Step)
	n.SetHandle(handle)
	lgr.Debug("stabilization loop started")

	select {
	case <-ctx.Done():
		lgr.Info("shutdown signal received, stopping server gracefully...")
		stop()
		handle.Stop()

		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		snap := n.Snapshot()
		if snap.Pred != nil {
			if err := rpc.NotifyLeave(leaveCtx, dial, *snap.Pred, self); err != nil {
				lgr.Warn("failed to notify predecessor of departure", logger.F("err", err))
			}
		}
		if succ := snap.Successor(); !succ.Equal(self) {
			if err := rpc.NotifyLeave(leaveCtx, dial, succ, self); err != nil {
				lgr.Warn("failed to notify successor of departure", logger.F("err", err))
			}
		}
		leaveCancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
			lgr.Info("server stopped gracefully")
		case <-shutdownCtx.Done():
			lgr.Warn("graceful stop timed out, forcing shutdown")
		}

	case err := <-serveErr:
		lgr.Error("gRPC server terminated unexpectedly", logger.F("err", err))
		stop()
		handle.Stop()
		os.Exit(1)
	}
}
