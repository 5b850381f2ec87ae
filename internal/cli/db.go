package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crmexport/internal/config"
	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/dbexport"
	"github.com/JonMunkholm/crmexport/internal/metrics"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db [output.csv]",
		Short: "Export leads directly from the PostgreSQL store",
		Long: `Export every lead with a single COPY statement inside a read-only
snapshot. Reads DATABASE_URL. Labels are read in EXPORT_LOCALE, or ODOO_LANG
when it is unset, so both export paths agree. Without an output path the file
is named crm_export_db_<timestamp>.csv in EXPORT_OUTPUT_DIR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDB,
	}
	cmd.Flags().String("locale", "", "Translation key to export (overrides EXPORT_LOCALE and ODOO_LANG)")
	return cmd
}

func runDB(cmd *cobra.Command, args []string) error {
	cfg := getCfg(cmd)
	if locale, _ := cmd.Flags().GetString("locale"); locale != "" {
		cfg.Export.Locale = locale
	}
	if err := cfg.ValidateFor(config.ModeDB); err != nil {
		return err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database URL: %w", err)
	}
	// One connection holds the snapshot; a second serves the ping.
	poolConfig.MaxConns = 2
	poolConfig.ConnConfig.ConnectTimeout = cfg.Database.ConnectTimeout

	ctx := cmd.Context()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	exp := dbexport.New(pool, dbOptions(cfg))
	defer exp.Close(context.WithoutCancel(ctx))

	return runExport(cmd, cfg, newRunID(), core.ModeDB, args, exp, metrics.NewRun(core.ModeDB))
}

func dbOptions(cfg *config.Config) dbexport.Options {
	return dbexport.Options{Locale: cfg.Locale()}
}
