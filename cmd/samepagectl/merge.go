package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	samepagedv1 "github.com/cowpool/samepaged/api/gen/go/samepaged/v1"
)

func init() {
	rootCmd.AddCommand(newMergeCmd())
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Run one merge pass over all monitored processes",
		Long: `The merge command scans every monitored process, groups pages with equal
content and merges each group down to one shared page. The call returns
when the pass finishes.

Example:
  samepagectl merge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge()
		},
	}
}

func runMerge() error {
	return runPass("merge", func(ctx context.Context, client samepagedv1.ControlServiceClient) error {
		_, err := client.Merge(ctx, &samepagedv1.MergeRequest{})
		return err
	})
}

func runPass(kind string, call func(ctx context.Context, client samepagedv1.ControlServiceClient) error) error {
	return withClient(func(ctx context.Context, client samepagedv1.ControlServiceClient) error {
		if err := call(ctx, client); err != nil {
			return err
		}
		fmt.Printf("%s pass completed\n", kind)
		return nil
	})
}
