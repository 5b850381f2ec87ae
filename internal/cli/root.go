// Package cli wires the export paths into the crmexport command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crmexport/internal/config"
	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/logging"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type contextKey string

const cfgKey contextKey = "cfg"

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skipConfig"

// ErrDifferent is returned by diff when the two files disagree.
var ErrDifferent = errors.New("exports differ")

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crmexport",
		Short: "Export CRM leads to CSV from PostgreSQL or over JSON-RPC",
		Long: `crmexport writes every CRM lead to a 40-column CSV file.

The db command reads the PostgreSQL store directly with COPY. The api command
reads the same records through the server's JSON-RPC endpoint. Both produce
byte-identical files for identical data.`,
		Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRunE: loadConfig,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().String("log-format", "", "Log format: text or json (overrides LOG_FORMAT)")

	root.AddCommand(
		newDBCmd(),
		newAPICmd(),
		newDiffCmd(),
		newVersionCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if _, ok := cmd.Annotations[skipConfig]; ok {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	cmd.SetContext(context.WithValue(cmd.Context(), cfgKey, cfg))
	return nil
}

func getCfg(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey).(*config.Config)
	return cfg
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	if errors.Is(err, ErrDifferent) {
		fmt.Fprintln(w, err)
		return
	}

	msg := core.ClassifyError(err)
	fmt.Fprintf(w, "Error [%s]: %s\n", msg.Code, msg.Message)
	fmt.Fprintf(w, "  %v\n", err)
	if msg.Action != "" {
		fmt.Fprintf(w, "  %s\n", msg.Action)
	}
}
