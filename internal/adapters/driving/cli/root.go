// Package cli implements the ailawyer command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var (
	verbose   bool
	logFile   string
	dataDir   string
	useMemory bool
)

// app is built before the first command runs. Tests install their own.
var app *App

var rootCmd = &cobra.Command{
	Use:   "ailawyer",
	Short: "Find the persons named in legal documents",
	Long: `ailawyer scans legal documents for the persons they name, links the mentions
across pages and documents into identities, and keeps them in a local index
that can be searched, exported or served over HTTP and MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "index directory (default ~/.ailawyer/data)")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "keep the index in memory for this run")
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if logFile != "" {
		logger.SetFile(logFile, 10, 3)
	}
	if app != nil {
		return nil
	}
	app = NewApp(AppOptions{DataDir: dataDir, Memory: useMemory})
	return nil
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if app != nil {
		err = errors.Join(err, app.Close())
	}
	return errors.Join(err, logger.Close())
}
