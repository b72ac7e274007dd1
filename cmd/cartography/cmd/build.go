package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run one load-and-layout pass without serving",
	Long: `Loads the dataset directory, computes the universe layout and
writes a snapshot to the configured database. With --db pointing at a
file this warms the layout cache for the next serve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, cleanup, err := runOnce(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Printf("universe %s\n", session.Fingerprint[:12])
		fmt.Printf("  datasets: %d (%d files skipped)\n", len(session.Datasets), len(session.Skipped))
		fmt.Printf("  nodes:    %d\n", len(session.Universe.Nodes))
		fmt.Printf("  edges:    %d\n", len(session.Universe.Edges))
		for _, s := range session.Skipped {
			fmt.Printf("  skipped:  %s (%s)\n", s.Path, s.Reason)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
