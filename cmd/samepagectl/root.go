package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	samepagedv1 "github.com/cowpool/samepaged/api/gen/go/samepaged/v1"
	apperrors "github.com/cowpool/samepaged/internal/errors"
	platformgrpc "github.com/cowpool/samepaged/internal/platform/grpc"
)

var (
	// Global flags
	socketPath string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "samepagectl",
	Short: "Control the samepaged daemon",
	Long: `samepagectl drives the samepaged control API: register processes for
same-page merging, trigger merge passes, and demote merged pages whose
content diverged.

The daemon listens on a unix socket by default; --socket also accepts a
host:port for daemons serving TCP.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "/run/samepaged.sock", "Daemon control socket path or host:port")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Total time allowed for the command")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withClient dials the daemon and runs fn with a control client.
func withClient(fn func(ctx context.Context, client samepagedv1.ControlServiceClient) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := platformgrpc.DialWithHealth(ctx, nil, socketPath, timeout, nil, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w", socketPath, err)
	}
	defer conn.Close()

	if err := fn(ctx, samepagedv1.NewControlServiceClient(conn)); err != nil {
		return controlError(err)
	}
	return nil
}

// controlError rewrites a gRPC status into a readable CLI error, keeping
// the daemon's reason code and metadata when it sent them.
func controlError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	reason := apperrors.ReasonFromStatus(err)
	if reason == "" {
		return errors.New(msg)
	}
	meta := apperrors.MetadataFromStatus(err)
	if len(meta) == 0 {
		return fmt.Errorf("%s (%s)", msg, reason)
	}
	pairs := make([]string, 0, len(meta))
	for k, v := range meta {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return fmt.Errorf("%s (%s: %s)", msg, reason, strings.Join(pairs, " "))
}

// parseAddr accepts decimal or 0x-prefixed hex addresses.
func parseAddr(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 64)
}
