package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/nodepick/internal/config"
	"github.com/tormodhaugland/nodepick/internal/document"
	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/operation"
	"github.com/tormodhaugland/nodepick/internal/picker"
	"github.com/tormodhaugland/nodepick/internal/tui"
)

var (
	pickProfile    string
	pickQuery      string
	pickTitleQuery string
	pickOperation  string
	pickNode       string
	pickDocument   string
	pickSource     string
	pickTitle      string
	pickButton     string
	pickIcon       string
	pickData       map[string]string
)

// pickOutput is the JSON form of a confirmed pick.
type pickOutput struct {
	nodes.Target
	Operation string `json:"operation,omitempty"`
	Executed  bool   `json:"executed"`
}

var pickCmd = &cobra.Command{
	Use:   "pick [paths...]",
	Short: "Open the node picker",
	Long: `Opens the interactive picker over the documents of the selected profile
and prints the picked target as <document>#<node>.

Paths restrict the documents to open; without paths the document root is
searched with the configured patterns. Confirmation is gated by the
profile's operation. Once confirmed, operations that can run (insert-link,
exec operations with a run command) are executed for the picked node.

Cancelling exits with status 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out, err := runPick(cmd.Context(), cfg, args)
		if err != nil {
			return err
		}
		if out == nil {
			exitWithError("cancelled", 1)
		}

		if jsonOut || jsonlOut {
			return outputJSON(cmd.OutOrStdout(), out)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Target.String())
		return nil
	},
}

// pickOptions merges the command line over the profile.
func pickOptions(profile config.Profile) (picker.Options, error) {
	opts := profile.Options

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&opts.LinkableElementsQuery, pickQuery)
	set(&opts.TitleQuery, pickTitleQuery)
	set(&opts.InsertOperationName, pickOperation)
	set(&opts.ModalTitle, pickTitle)
	set(&opts.ModalPrimaryButtonLabel, pickButton)
	set(&opts.ModalIcon, pickIcon)
	if pickNode != "" {
		opts.NodeID = document.NodeID(pickNode)
	}

	data := make(map[string]string, len(opts.Data)+len(pickData)+2)
	for k, v := range opts.Data {
		data[k] = v
	}
	for k, v := range pickData {
		data[k] = v
	}
	if pickSource != "" {
		src, err := parseTarget(pickSource)
		if err != nil {
			return picker.Options{}, fmt.Errorf("--source: %w", err)
		}
		data[operation.KeySourceDocumentID] = string(src.DocumentID)
		data[operation.KeySourceNodeID] = string(src.NodeID)
	}
	if len(data) > 0 {
		opts.Data = data
	}

	return opts, opts.Validate()
}

// runPick runs one picker session. It returns nil when nothing was picked.
func runPick(ctx context.Context, cfg *config.Config, args []string) (*pickOutput, error) {
	profile, err := cfg.Profile(pickProfile)
	if err != nil {
		return nil, err
	}
	opts, err := pickOptions(profile)
	if err != nil {
		return nil, err
	}

	docs, err := openDocuments(ctx, cfg, profile.DocumentLanguage(), args)
	if err != nil {
		return nil, err
	}
	defer docs.Close()

	if pickDocument != "" {
		id, err := resolveDocument(pickDocument, docs.DocumentIDs())
		if err != nil {
			return nil, err
		}
		opts.DocumentID = id
	}

	idx, err := nodes.Build(docs, opts.LinkableElementsQuery, opts.TitleQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	reg, db, err := openOperations(cfg, opts.InsertOperationName == operation.InsertLink)
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	var oracle operation.Oracle
	if opts.InsertOperationName != "" {
		if _, err := reg.Lookup(opts.InsertOperationName); err != nil {
			return nil, err
		}
		oracle = reg
	}

	ctrl, err := picker.New(opts, idx, oracle, picker.Callbacks{
		Confirm: func(t nodes.Target) { slog.Info("picked", "target", t.String()) },
		Cancel:  func() { slog.Info("pick cancelled") },
	})
	if err != nil {
		return nil, err
	}

	restoreLogging, err := initSessionLogging(cfg.LogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	res, err := tui.RunBrowser(ctrl, previewFor(docs))
	restoreLogging()
	if err != nil {
		return nil, err
	}
	if !res.Confirmed() {
		return nil, nil
	}

	out := &pickOutput{Target: res.Target, Operation: opts.InsertOperationName}
	if opts.InsertOperationName != "" {
		out.Executed, err = reg.Execute(ctx, opts.InsertOperationName, opts.OperationContext(res.Target))
		if err != nil {
			return nil, err
		}
		slog.Debug("operation finished", "operation", opts.InsertOperationName, "executed", out.Executed)
	}
	return out, nil
}

// previewFor shows the source text of a candidate when its document can
// produce one.
func previewFor(docs *document.Manager) tui.PreviewFunc {
	return func(vm nodes.ViewModel) (string, string) {
		doc, err := docs.Document(vm.DocumentID)
		if err != nil {
			return "", ""
		}
		p, ok := doc.(document.Previewer)
		if !ok {
			return "", doc.Language()
		}
		text, _ := p.Preview(vm.NodeID)
		return text, doc.Language()
	}
}

func init() {
	pickCmd.Flags().StringVarP(&pickProfile, "profile", "p", "", "profile to use (default: link)")
	pickCmd.Flags().StringVar(&pickQuery, "query", "", "element query, overrides the profile")
	pickCmd.Flags().StringVar(&pickTitleQuery, "title-query", "", "title query, overrides the profile")
	pickCmd.Flags().StringVar(&pickOperation, "operation", "", "operation gating confirmation")
	pickCmd.Flags().StringVar(&pickNode, "node", "", "node id to pre-select")
	pickCmd.Flags().StringVar(&pickDocument, "document", "", "document of the pre-selected node (fuzzy)")
	pickCmd.Flags().StringVar(&pickSource, "source", "", "source node of the link, as <document>#<node>")
	pickCmd.Flags().StringVar(&pickTitle, "title", "", "picker title")
	pickCmd.Flags().StringVar(&pickButton, "button", "", "primary button label")
	pickCmd.Flags().StringVar(&pickIcon, "icon", "", "icon shown before the title")
	pickCmd.Flags().StringToStringVar(&pickData, "data", nil, "extra operation data as key=value")
	rootCmd.AddCommand(pickCmd)
}
