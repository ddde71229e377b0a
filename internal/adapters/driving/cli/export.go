package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCase string

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Export persons and occurrences to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportCase, "case", "c", "", "case to export (default every case)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	exports, err := app.Exports()
	if err != nil {
		return err
	}

	out, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create %s: %w", args[0], err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", args[0], cerr)
		}
		if err != nil {
			_ = os.Remove(args[0])
		}
	}()

	if err := exports.Export(cmd.Context(), out, exportCase); err != nil {
		return err
	}
	newPrinter(cmd.OutOrStdout()).success("Exported to %s", args[0])
	return nil
}
