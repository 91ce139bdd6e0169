package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	samepagedv1 "github.com/cowpool/samepaged/api/gen/go/samepaged/v1"
)

var delPid uint64

func init() {
	cmd := newDelCmd()
	cmd.Flags().Uint64Var(&delPid, "pid", 0, "Process ID to release")
	_ = cmd.MarkFlagRequired("pid")
	rootCmd.AddCommand(cmd)
}

func newDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del --pid <pid>",
		Short: "Stop monitoring a process",
		Long: `The del command removes a process from the daemon. Its merged pages are
unmerged before the call returns, so the process owns private copies
again. Deleting an unknown pid succeeds.

Example:
  samepagectl del --pid 1234`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDel()
		},
	}
}

func runDel() error {
	return withClient(func(ctx context.Context, client samepagedv1.ControlServiceClient) error {
		if _, err := client.Del(ctx, &samepagedv1.DelRequest{Pid: delPid}); err != nil {
			return err
		}
		fmt.Printf("pid %d released\n", delPid)
		return nil
	})
}
