package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type profileRow struct {
	Name      string `json:"name"`
	Language  string `json:"language"`
	Query     string `json:"query"`
	Operation string `json:"operation,omitempty"`
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List picker profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var rows []profileRow
		for _, name := range cfg.ProfileNames() {
			p := cfg.Profiles[name]
			rows = append(rows, profileRow{
				Name:      name,
				Language:  p.DocumentLanguage(),
				Query:     p.LinkableElementsQuery,
				Operation: p.InsertOperationName,
			})
		}

		out := cmd.OutOrStdout()
		if jsonlOut {
			return outputJSONL(out, rows)
		}
		if jsonOut {
			return outputJSON(out, rows)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLANGUAGE\tOPERATION\tQUERY")
		for _, r := range rows {
			op := r.Operation
			if op == "" {
				op = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Language, op, oneLine(r.Query, 60))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
