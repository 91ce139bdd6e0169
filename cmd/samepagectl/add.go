package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	samepagedv1 "github.com/cowpool/samepaged/api/gen/go/samepaged/v1"
)

var (
	addPid   uint64
	addStart string
	addEnd   string
)

func init() {
	cmd := newAddCmd()
	cmd.Flags().Uint64Var(&addPid, "pid", 0, "Process ID to monitor")
	cmd.Flags().StringVar(&addStart, "start", "", "Range start address, page aligned (hex or decimal)")
	cmd.Flags().StringVar(&addEnd, "end", "", "Range end address, exclusive (hex or decimal)")
	_ = cmd.MarkFlagRequired("pid")
	rootCmd.AddCommand(cmd)
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add --pid <pid> [--start <addr> --end <addr>]",
		Short: "Monitor a process, or one address range of it",
		Long: `The add command registers a process with the daemon. Without a range the
whole address space is monitored and the daemon discovers eligible
mappings on every pass. With --start and --end only that range is
scanned.

Example:
  samepagectl add --pid 1234
  samepagectl add --pid 1234 --start 0x7f0000000000 --end 0x7f0000400000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd()
		},
	}
}

func runAdd() error {
	if (addStart == "") != (addEnd == "") {
		return errors.New("--start and --end must be set together")
	}

	var start, end uint64
	if addStart != "" {
		var err error
		start, err = parseAddr(addStart)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		end, err = parseAddr(addEnd)
		if err != nil {
			return fmt.Errorf("parse --end: %w", err)
		}
	}

	return withClient(func(ctx context.Context, client samepagedv1.ControlServiceClient) error {
		if _, err := client.Add(ctx, &samepagedv1.AddRequest{Pid: addPid, Start: start, End: end}); err != nil {
			return err
		}
		if start == 0 && end == 0 {
			fmt.Printf("pid %d monitored\n", addPid)
		} else {
			fmt.Printf("pid %d monitored for [0x%x, 0x%x)\n", addPid, start, end)
		}
		return nil
	})
}
