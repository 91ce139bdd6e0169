// Package samepaged parses daemon flags and launches the daemon.
package samepaged

import (
	"context"
	"flag"

	"github.com/cowpool/samepaged/internal/daemon"
	entrypoint "github.com/cowpool/samepaged/internal/platform/cmd"
)

// Config holds daemon command configuration.
type Config struct {
	SocketPath string `env:"SAMEPAGED_SOCKET_PATH" envDefault:"/run/samepaged.sock"`
	ListenAddr string `env:"SAMEPAGED_LISTEN_ADDR"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.SocketPath, "socket", cfg.SocketPath, "The control API unix socket path")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Serve the control API over TCP instead of the unix socket")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the samepaged daemon.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDaemon, func(context.Context) error {
		return daemon.Run(ctx, daemon.Config{
			SocketPath: cfg.SocketPath,
			ListenAddr: cfg.ListenAddr,
		})
	})
}
