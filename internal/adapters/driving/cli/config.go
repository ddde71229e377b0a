package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configListJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change settings",
	Long: `Settings live in ~/.ailawyer/config.toml. Keys use dot notation, for example
address.url or scanner.extra_blacklist. Run "ailawyer config list" to see them all.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := app.Settings().Value(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), entry.Value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Changes a setting and saves the configuration file. Lists are comma
separated; an empty service URL disables that service.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Settings().Set(args[0], args[1]); err != nil {
			return err
		}
		entry, err := app.Settings().Value(args[0])
		if err != nil {
			return err
		}
		newPrinter(cmd.OutOrStdout()).success("%s = %s", entry.Key, entry.Value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries := app.Settings().List()
		if configListJSON {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			value := e.Value
			if e.IsDefault {
				value += " (default)"
			}
			rows = append(rows, []string{e.Key, value, e.Description})
		}
		newPrinter(cmd.OutOrStdout()).table([]string{"Key", "Value", "Description"}, rows)
		return nil
	},
}

func init() {
	configListCmd.Flags().BoolVar(&configListJSON, "json", false, "output as JSON")
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
