package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/nodepick/internal/operation"
)

var (
	stateSource string
	stateData   map[string]string
)

var stateCmd = &cobra.Command{
	Use:   "state <operation> <document>#<node>",
	Short: "Ask an operation whether it is enabled for a node",
	Long: `Queries the operation with the same context the picker sends while a node
is selected and prints "enabled" or "disabled". Errors are reported as
errors here, while the picker treats them as disabled.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		target, err := parseTarget(args[1])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, db, err := openOperations(cfg, name == operation.InsertLink)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		data := operation.Context{}
		for k, v := range stateData {
			data[k] = v
		}
		if stateSource != "" {
			src, err := parseTarget(stateSource)
			if err != nil {
				return fmt.Errorf("--source: %w", err)
			}
			data[operation.KeySourceDocumentID] = string(src.DocumentID)
			data[operation.KeySourceNodeID] = string(src.NodeID)
		}
		data[operation.KeyDocumentID] = string(target.DocumentID)
		data[operation.KeyNodeID] = string(target.NodeID)

		st, err := reg.State(cmd.Context(), name, data)
		if err != nil {
			return err
		}

		if jsonOut || jsonlOut {
			return outputJSON(cmd.OutOrStdout(), st)
		}
		if st.Enabled {
			fmt.Fprintln(cmd.OutOrStdout(), "enabled")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "disabled")
		}
		return nil
	},
}

func init() {
	stateCmd.Flags().StringVar(&stateSource, "source", "", "source node, as <document>#<node>")
	stateCmd.Flags().StringToStringVar(&stateData, "data", nil, "extra operation data as key=value")
	rootCmd.AddCommand(stateCmd)
}
