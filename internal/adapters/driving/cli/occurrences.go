package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	occurrencesCase  string
	occurrencesLimit int
	occurrencesJSON  bool
)

var occurrencesCmd = &cobra.Command{
	Use:     "occurrences <person-id>",
	Aliases: []string{"occ"},
	Short:   "List where a person is mentioned",
	Args:    cobra.ExactArgs(1),
	RunE:    runOccurrences,
}

func init() {
	occurrencesCmd.Flags().StringVarP(&occurrencesCase, "case", "c", "", "case the person belongs to")
	occurrencesCmd.Flags().IntVarP(&occurrencesLimit, "limit", "n", 0, "maximum number of occurrences (default 1000)")
	occurrencesCmd.Flags().BoolVar(&occurrencesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(occurrencesCmd)
}

func runOccurrences(cmd *cobra.Command, args []string) error {
	entities, err := app.Entities()
	if err != nil {
		return err
	}
	occs, err := entities.Occurrences(cmd.Context(), occurrencesCase, args[0], occurrencesLimit)
	if err != nil {
		return fmt.Errorf("list occurrences: %w", err)
	}

	if occurrencesJSON {
		return printJSON(cmd.OutOrStdout(), occs)
	}
	p := newPrinter(cmd.OutOrStdout())
	if len(occs) == 0 {
		p.muted("No occurrences for %s.", args[0])
		return nil
	}

	snippetWidth := 60
	if p.width > 0 {
		snippetWidth = max(p.width-60, 20)
	}
	rows := make([][]string, 0, len(occs))
	for _, o := range occs {
		rows = append(rows, []string{
			o.DocTitle,
			strconv.Itoa(o.Page),
			string(o.Rule),
			strconv.FormatFloat(o.Confidence, 'f', 2, 64),
			truncate(o.Snippet, snippetWidth),
		})
	}
	p.table([]string{"Document", "Page", "Rule", "Conf", "Snippet"}, rows)
	return nil
}
