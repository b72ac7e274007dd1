package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"cartography/internal/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the universe per domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, cleanup, err := runOnce(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		u := session.Universe
		perSite := make(map[string][2]int)
		for i := range u.Nodes {
			c := perSite[u.Nodes[i].Site]
			c[0]++
			perSite[u.Nodes[i].Site] = c
		}
		for i := range u.Edges {
			if from, ok := u.NodeByID(u.Edges[i].FromID); ok {
				c := perSite[from.Site]
				c[1]++
				perSite[from.Site] = c
			}
		}

		sites := make([]string, 0, len(perSite))
		for site := range perSite {
			sites = append(sites, site)
		}
		sort.Strings(sites)

		fmt.Printf("%-20s %8s %8s\n", "DOMAIN", "NODES", "EDGES")
		for _, site := range sites {
			c := perSite[site]
			fmt.Printf("%-20s %8d %8d\n", site, c[0], c[1])
		}
		fmt.Printf("%-20s %8d %8d\n", "total", len(u.Nodes), len(u.Edges))

		questionNodes := 0
		for i := range u.Nodes {
			if u.Nodes[i].Kind == domain.NodeKindQuestion {
				questionNodes++
			}
		}
		fmt.Printf("\n%d question nodes, %d tag nodes\n", questionNodes, len(u.Nodes)-questionNodes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
