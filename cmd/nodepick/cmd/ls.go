package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/nodepick/internal/nodes"
)

var (
	lsProfile    string
	lsSearch     string
	lsQuery      string
	lsTitleQuery string
)

var lsCmd = &cobra.Command{
	Use:   "ls [paths...]",
	Short: "List the candidate nodes of a profile",
	Long: `Lists the nodes the picker would offer, in document order, without opening
the picker. --search applies the same case-insensitive filter as the search
field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		profile, err := cfg.Profile(lsProfile)
		if err != nil {
			return err
		}

		elementQuery := profile.LinkableElementsQuery
		if lsQuery != "" {
			elementQuery = lsQuery
		}
		titleQuery := profile.TitleQuery
		if lsTitleQuery != "" {
			titleQuery = lsTitleQuery
		}

		docs, err := openDocuments(cmd.Context(), cfg, profile.DocumentLanguage(), args)
		if err != nil {
			return err
		}
		defer docs.Close()

		idx, err := nodes.Build(docs, elementQuery, titleQuery)
		if err != nil {
			return fmt.Errorf("failed to build index: %w", err)
		}
		idx = nodes.Filter(idx, lsSearch)

		out := cmd.OutOrStdout()
		if jsonlOut {
			return outputJSONL(out, idx)
		}
		if jsonOut {
			if idx == nil {
				idx = nodes.Index{}
			}
			return outputJSON(out, idx)
		}

		if len(idx) == 0 {
			fmt.Fprintln(out, "No nodes found")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DOCUMENT\tNODE\tLABEL\tTITLE")
		for _, vm := range idx {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", vm.DocumentID, vm.NodeID, vm.MarkupLabel, oneLine(vm.ShortLabel, 60))
		}
		return w.Flush()
	},
}

func init() {
	lsCmd.Flags().StringVarP(&lsProfile, "profile", "p", "", "profile to use (default: link)")
	lsCmd.Flags().StringVarP(&lsSearch, "search", "s", "", "only list nodes matching this text")
	lsCmd.Flags().StringVar(&lsQuery, "query", "", "element query, overrides the profile")
	lsCmd.Flags().StringVar(&lsTitleQuery, "title-query", "", "title query, overrides the profile")
	rootCmd.AddCommand(lsCmd)
}
