package main

import (
	"context"

	"github.com/spf13/cobra"

	samepagedv1 "github.com/cowpool/samepaged/api/gen/go/samepaged/v1"
)

func init() {
	rootCmd.AddCommand(newRefreshCmd())
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Demote merged pages whose content diverged",
		Long: `The refresh command rescans every monitored process and drops merged
pages that no longer match their group, so later merge passes see the
current content. Run it periodically between merges.

Example:
  samepagectl refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh()
		},
	}
}

func runRefresh() error {
	return runPass("refresh", func(ctx context.Context, client samepagedv1.ControlServiceClient) error {
		_, err := client.Refresh(ctx, &samepagedv1.RefreshRequest{})
		return err
	})
}
