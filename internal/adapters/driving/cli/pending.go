package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/tokens"
	"github.com/wbattistetti/AILawyer-sub000/internal/connectors/filesystem"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

var (
	pendingCase string
	pendingJSON bool
)

var pendingCmd = &cobra.Command{
	Use:   "pending [files or directories...]",
	Short: "List documents not yet extracted",
	Long: `Reports which of the given documents have no extraction snapshot for the
case. Documents are recognised by content, so a renamed file is not pending.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPending,
}

func init() {
	pendingCmd.Flags().StringVarP(&pendingCase, "case", "c", "", "case to check against")
	pendingCmd.Flags().BoolVar(&pendingJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	roots := make([]string, len(args))
	for i, a := range args {
		roots[i] = filesystem.ResolvePath(a)
	}
	paths, err := collectFiles(ctx, roots)
	if err != nil {
		return err
	}
	metas, err := docMetas(ctx, paths, pendingCase)
	if err != nil {
		return err
	}

	entities, err := app.Entities()
	if err != nil {
		return err
	}
	pending, err := entities.PendingDocs(ctx, metas)
	if err != nil {
		return err
	}

	if pendingJSON {
		return printJSON(cmd.OutOrStdout(), pending)
	}
	p := newPrinter(cmd.OutOrStdout())
	if len(pending) == 0 {
		p.success("All %d documents are extracted.", len(metas))
		return nil
	}
	p.title("%d of %d documents pending", len(pending), len(metas))
	for _, m := range pending {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", m.ID)
	}
	return nil
}

func docMetas(ctx context.Context, paths []string, caseID string) ([]domain.DocMeta, error) {
	metas := make([]domain.DocMeta, 0, len(paths))
	for _, path := range paths {
		d, err := tokens.Open(path, tokens.Options{CaseID: caseID})
		if err != nil {
			return nil, err
		}
		m, err := d.Meta(ctx)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, nil
}
