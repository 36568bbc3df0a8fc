package main

import (
	"fmt"
	"os"

	"liblinker/internal/server"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

var flagVerbose int

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "liblinker",
	Short:         "Highlight library imports that are rendered as markup tags",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

var flagLogfile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagLogfile, "logfile", "", "path to log file (default: stderr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol, so logs go to stderr or a file.
	if flagLogfile != "" {
		commonlog.Configure(flagVerbose, &flagLogfile)
	} else {
		commonlog.Configure(flagVerbose, nil)
	}
	commonlog.GetLogger("liblinker").Noticef("Starting liblinker %s", Version)

	if err := server.NewServer(Version, flagVerbose > 1).RunStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "liblinker version %s\n", Version)
	},
}
