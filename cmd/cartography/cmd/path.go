package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cartography/internal/domain"
	"cartography/internal/universe"
)

var pathCmd = &cobra.Command{
	Use:   "path <from> <to>",
	Short: "Find the strongest-relation route between two nodes",
	Long: `Computes the cheapest route between two universe nodes, where
heavily co-occurring pairs are cheap to traverse. Arguments accept
node IDs or bare tag names.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, cleanup, err := runOnce(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		u := session.Universe
		fromID := resolveRef(u, args[0])
		toID := resolveRef(u, args[1])

		route, found := universe.FindRoute(u, fromID, toID)
		if !found {
			return fmt.Errorf("no route from %q to %q", args[0], args[1])
		}

		fmt.Printf("route cost %d:\n", route.Cost)
		for _, id := range route.NodeIDs {
			node, _ := u.NodeByID(id)
			fmt.Printf("  %s (%s)\n", node.Label, node.Site)
		}
		return nil
	},
}

func resolveRef(u *domain.Universe, ref string) string {
	if u.HasNode(ref) {
		return ref
	}
	if tagID := domain.TagNodeID(ref); u.HasNode(tagID) {
		return tagID
	}
	return ref
}

func init() {
	rootCmd.AddCommand(pathCmd)
}
