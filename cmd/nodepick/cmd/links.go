package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/nodepick/internal/linkdb"
)

var linksCmd = &cobra.Command{
	Use:   "links [<document>#<node>]",
	Short: "List recorded links",
	Long:  `Lists the links recorded by insert-link, or only those pointing at the given node.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := linkdb.Open(cfg.LinksDBPath())
		if err != nil {
			return fmt.Errorf("failed to open link database: %w", err)
		}
		defer db.Close()

		var links []linkdb.Link
		if len(args) == 1 {
			target, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			links, err = db.LinksTo(cmd.Context(), linkdb.Endpoint{
				DocumentID: string(target.DocumentID),
				NodeID:     string(target.NodeID),
			})
			if err != nil {
				return err
			}
		} else {
			links, err = db.List(cmd.Context())
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if jsonlOut {
			return outputJSONL(out, links)
		}
		if jsonOut {
			if links == nil {
				links = []linkdb.Link{}
			}
			return outputJSON(out, links)
		}

		if len(links) == 0 {
			fmt.Fprintln(out, "No links found")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTARGET\tCREATED")
		for _, l := range links {
			fmt.Fprintf(w, "%s#%s\t%s#%s\t%s\n",
				l.Source.DocumentID, l.Source.NodeID,
				l.Target.DocumentID, l.Target.NodeID,
				l.CreatedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(linksCmd)
}
