package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/nodepick/internal/document"
	"github.com/tormodhaugland/nodepick/internal/doctor"
	"github.com/tormodhaugland/nodepick/internal/operation"
)

type doctorResult struct {
	Root      string                `json:"root"`
	Documents doctor.DocumentReport `json:"documents"`
	Profiles  []doctor.Problem      `json:"profiles,omitempty"`
}

func (r doctorResult) problemCount() int {
	return len(r.Documents.Problems) + len(r.Profiles)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check documents and profiles",
	Long: `Parses every document under the root and evaluates every profile against
the documents of its language. Reports documents the picker would skip and
profiles that cannot produce any candidate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		paths, err := document.Discover(cfg.Root, cfg.Documents, buildExcludes(cfg))
		if err != nil {
			return err
		}
		opts := document.LoadOptions{
			Root:         cfg.Root,
			ReadOnly:     cfg.ReadOnly,
			MaxFileSize:  cfg.MaxFileSize,
			MarkupLabels: cfg.MarkupLabels,
		}
		report, err := doctor.CheckDocuments(ctx, paths, opts)
		if err != nil {
			return err
		}
		result := doctorResult{Root: cfg.Root, Documents: report}

		needLinks := false
		for _, p := range cfg.Profiles {
			needLinks = needLinks || p.InsertOperationName == operation.InsertLink
		}
		reg, db, err := openOperations(cfg, needLinks)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		for _, name := range cfg.ProfileNames() {
			profile := cfg.Profiles[name]
			docs, err := openDocuments(ctx, cfg, profile.DocumentLanguage(), nil)
			if err != nil {
				return err
			}
			result.Profiles = append(result.Profiles, doctor.CheckProfile(name, profile.Options, docs, reg)...)
			_ = docs.Close()
		}

		out := cmd.OutOrStdout()
		if jsonOut || jsonlOut {
			if err := outputJSON(out, result); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "Checked %d document(s) under %s: %d operable, %d read-only\n",
				report.Checked, cfg.Root, report.Operable, len(report.ReadOnly))
			for _, p := range report.Problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}
			for _, p := range result.Profiles {
				fmt.Fprintf(out, "  - %s\n", p)
			}
			if result.problemCount() == 0 {
				fmt.Fprintln(out, "No problems found")
			}
		}

		if n := result.problemCount(); n > 0 {
			return fmt.Errorf("doctor found %d problem(s)", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
