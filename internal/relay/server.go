package relay

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"go.uber.org/zap"
)

// EmbeddedServer is an in-process NATS server for single-binary deployments.
type EmbeddedServer struct {
	ns *server.Server

	startupTimeout time.Duration
	host           string
	port           int
	log            *zap.Logger
}

type ServerOpt func(*EmbeddedServer)

// WithStartTimeout sets how long Start waits for the server to accept clients.
func WithStartTimeout(d time.Duration) ServerOpt {
	return func(s *EmbeddedServer) {
		s.startupTimeout = d
	}
}

func WithHost(host string) ServerOpt {
	return func(s *EmbeddedServer) {
		s.host = host
	}
}

// WithPort sets the client port. -1 picks a random free port.
func WithPort(port int) ServerOpt {
	return func(s *EmbeddedServer) {
		s.port = port
	}
}

func NewEmbeddedServer(log *zap.Logger, opts ...ServerOpt) (*EmbeddedServer, error) {
	s := &EmbeddedServer{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		log:            log,
	}
	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true, // the process handles signals
		NoLog:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("nats server: %w", err)
	}
	s.ns = ns
	return s, nil
}

// Start launches the server and waits until it accepts connections.
func (s *EmbeddedServer) Start() error {
	s.ns.Start()
	if !s.ns.ReadyForConnections(s.startupTimeout) {
		s.ns.Shutdown()
		return fmt.Errorf("nats server not ready for connections")
	}
	s.log.Info("embedded nats listening", zap.String("url", s.ns.ClientURL()))
	return nil
}

func (s *EmbeddedServer) ClientURL() string { return s.ns.ClientURL() }

func (s *EmbeddedServer) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
