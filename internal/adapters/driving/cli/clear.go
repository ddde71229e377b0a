package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	clearCase string
	clearAll  bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove extracted data",
	Long:  `Removes the persons, occurrences and snapshots of one case, or of every case with --all.`,
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().StringVarP(&clearCase, "case", "c", "", "case to clear")
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "clear every case")
	clearCmd.MarkFlagsMutuallyExclusive("case", "all")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if clearCase == "" && !clearAll {
		return errors.New("either --case or --all is required")
	}
	entities, err := app.Entities()
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	if clearAll {
		if err := entities.ClearAll(cmd.Context()); err != nil {
			return err
		}
		p.success("Index cleared.")
		return nil
	}
	if err := entities.ClearCase(cmd.Context(), clearCase); err != nil {
		return err
	}
	p.success("Case %s cleared.", clearCase)
	return nil
}
