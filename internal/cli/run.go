package cli

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crmexport/internal/config"
	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/logging"
	"github.com/JonMunkholm/crmexport/internal/metrics"
)

// runExport performs one run of exp and reports its outcome. A partial run
// is not an error; the summary lists what was skipped.
func runExport(cmd *cobra.Command, cfg *config.Config, runID string, mode core.Mode, args []string, exp core.Exporter, m *metrics.Run) error {
	ctx := logging.WithRunID(cmd.Context(), runID)
	logger := logging.FromContext(ctx)

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	path = core.ResolveOutputPath(path, cfg.Export.OutputDir, mode, time.Now())

	logger.Info("export starting", "mode", mode, "output", path)
	sum, err := core.Run(ctx, core.RunOptions{RunID: runID, Mode: mode, OutputPath: path}, exp)

	m.Record(sum, err, time.Now())
	if cfg.Metrics.TextfilePath != "" {
		if werr := m.WriteTextfile(cfg.Metrics.TextfilePath); werr != nil {
			logger.Warn("failed to write metrics", "path", cfg.Metrics.TextfilePath, "error", werr)
		}
	}

	if err != nil {
		logger.Error("export failed", "code", core.ClassifyError(err).Code, "error", err)
		return err
	}

	logger.Info("export finished",
		"status", sum.Status(),
		"rows", sum.RowsExported,
		"failed_rows", sum.RowsFailed,
		"duration", sum.Duration,
	)
	sum.Print(cmd.OutOrStdout())
	return nil
}

func newRunID() string {
	return uuid.NewString()
}
