// Package daemon wires the samepaged runtime and gRPC lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	samepagedv1 "github.com/cowpool/samepaged/api/gen/go/samepaged/v1"
	"github.com/cowpool/samepaged/internal/accessor/memsim"
	"github.com/cowpool/samepaged/internal/accessor/procfs"
	"github.com/cowpool/samepaged/internal/api/grpc/control"
	"github.com/cowpool/samepaged/internal/api/grpc/interceptors"
	"github.com/cowpool/samepaged/internal/dedup"
	"github.com/cowpool/samepaged/internal/journal"
	journalsqlite "github.com/cowpool/samepaged/internal/journal/sqlite"
	"github.com/cowpool/samepaged/internal/platform/config"
)

// DefaultSocketPath is where the control API listens when no listener is
// configured.
const DefaultSocketPath = "/run/samepaged.sock"

// Memory backend names accepted by SAMEPAGED_ACCESSOR.
const (
	accessorProcfs = "procfs"
	accessorSim    = "sim"
)

type serverEnv struct {
	Accessor        string `env:"SAMEPAGED_ACCESSOR"`
	ProcRoot        string `env:"SAMEPAGED_PROC_ROOT"`
	DriverRoot      string `env:"SAMEPAGED_DRIVER_ROOT"`
	QueueDepth      int    `env:"SAMEPAGED_QUEUE_DEPTH"`
	ScanConcurrency int    `env:"SAMEPAGED_SCAN_CONCURRENCY"`
	JournalDBPath   string `env:"SAMEPAGED_JOURNAL_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.Accessor) == "" {
		cfg.Accessor = accessorProcfs
	}
	return cfg
}

// Config selects the control listener for the daemon.
type Config struct {
	// SocketPath is the unix socket serving the control API. Empty selects
	// DefaultSocketPath.
	SocketPath string
	// ListenAddr switches the control API to TCP when set.
	ListenAddr string
}

// Server hosts the control gRPC API and the dedup core lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	core       *dedup.Core
	journal    *journalsqlite.Store
}

// New creates a configured daemon serving the control API.
func New(cfg Config) (*Server, error) {
	srvEnv := loadServerEnv()

	accessor, regions, err := buildAccessor(srvEnv)
	if err != nil {
		return nil, err
	}
	journalStore, observer, err := openJournal(srvEnv.JournalDBPath)
	if err != nil {
		return nil, err
	}

	core := dedup.NewCore(accessor, regions, dedup.Options{
		QueueDepth:      srvEnv.QueueDepth,
		ScanConcurrency: srvEnv.ScanConcurrency,
		Observer:        passLogger{next: observer},
	})

	listener, err := listen(cfg)
	if err != nil {
		if journalStore != nil {
			_ = journalStore.Close()
		}
		return nil, err
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors.CommandLog(log.Printf)),
	)
	healthServer := health.NewServer()
	samepagedv1.RegisterControlServiceServer(grpcServer, control.NewService(core))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("samepaged.v1.ControlService", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		core:       core,
		journal:    journalStore,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a daemon until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the dedup core and the gRPC server until context
// cancellation. The core keeps draining commands through GracefulStop so
// in-flight requests finish before it exits.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	coreCtx, stopCore := context.WithCancel(context.Background())
	defer stopCore()
	coreDone := make(chan struct{})
	go func() {
		defer close(coreDone)
		if err := s.core.Run(coreCtx); err != nil {
			log.Printf("core loop: %v", err)
		}
	}()

	log.Printf("control server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		stopCore()
		<-coreDone
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		stopCore()
		<-coreDone
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases daemon resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			log.Printf("close journal store: %v", err)
		}
	}
}

func buildAccessor(srvEnv serverEnv) (dedup.MemoryAccessor, dedup.RegionSource, error) {
	switch strings.ToLower(strings.TrimSpace(srvEnv.Accessor)) {
	case accessorSim:
		sim := memsim.New(0)
		seedSimulator(sim)
		log.Printf("using simulated memory backend")
		return sim, sim, nil
	case accessorProcfs:
		accessor := procfs.New(procfs.Config{
			ProcRoot:   srvEnv.ProcRoot,
			DriverRoot: srvEnv.DriverRoot,
		})
		if err := accessor.CheckDriver(); err != nil {
			return nil, nil, fmt.Errorf("probe driver: %w", err)
		}
		return accessor, accessor, nil
	default:
		return nil, nil, fmt.Errorf("unknown accessor %q", srvEnv.Accessor)
	}
}

// seedSimulator gives the simulated backend a small set of processes so
// control commands have something to merge.
func seedSimulator(sim *memsim.Accessor) {
	shared := []byte("simulated shared page")
	for pid := uint64(1); pid <= 2; pid++ {
		sim.Spawn(pid)
		_ = sim.WritePage(pid, 0x1000, shared)
		_ = sim.WritePage(pid, 0x2000, shared)
		_ = sim.WritePage(pid, 0x3000, []byte{byte(pid)})
	}
}

// passLogger writes one summary line per completed pass and forwards
// everything to the journal observer when one is configured.
type passLogger struct {
	next dedup.Observer
}

func (p passLogger) PassCompleted(ctx context.Context, stats dedup.PassStats) {
	log.Printf("%s pass: tasks=%d scanned=%d merged=%d unmerged=%d conflicts=%d read_failures=%d pruned=%d records=%d in %s",
		stats.Kind, stats.Tasks, stats.PagesScanned, stats.Merged, stats.Unmerged,
		stats.Conflicts, stats.ReadFailures, stats.Pruned, stats.RecordsLive,
		stats.Duration.Round(time.Microsecond))
	if p.next != nil {
		p.next.PassCompleted(ctx, stats)
	}
}

func (p passLogger) TaskEvent(ctx context.Context, pid uint64, event dedup.TaskEventKind) {
	if event == dedup.TaskEventPrune {
		log.Printf("pruned departed pid %d", pid)
	}
	if p.next != nil {
		p.next.TaskEvent(ctx, pid, event)
	}
}

func openJournal(path string) (*journalsqlite.Store, dedup.Observer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	store, err := journalsqlite.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal store: %w", err)
	}
	return store, journal.NewRecorder(store), nil
}

func listen(cfg Config) (net.Listener, error) {
	if addr := strings.TrimSpace(cfg.ListenAddr); addr != "" {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", addr, err)
		}
		return listener, nil
	}

	path := strings.TrimSpace(cfg.SocketPath)
	if path == "" {
		path = DefaultSocketPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create socket dir: %w", err)
		}
	}
	// A previous daemon that died without cleanup leaves the socket file
	// behind and the bind would fail.
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("restrict socket %s: %w", path, err)
	}
	return listener, nil
}
