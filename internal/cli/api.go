package cli

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crmexport/internal/apiexport"
	"github.com/JonMunkholm/crmexport/internal/config"
	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/metrics"
	"github.com/JonMunkholm/crmexport/internal/odoo"
)

func newAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api [output.csv]",
		Short: "Export leads through the JSON-RPC endpoint",
		Long: `Export every lead through the server's JSON-RPC endpoint in pages of
ODOO_BATCH_SIZE records. Reads ODOO_URL, ODOO_DB, ODOO_USER and
ODOO_PASSWORD. Labels are requested in EXPORT_LOCALE, or ODOO_LANG when it is
unset. Pages that keep failing are skipped and listed in the summary.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAPI,
	}
	cmd.Flags().Int("batch-size", 0, "Leads per request (overrides ODOO_BATCH_SIZE)")
	cmd.Flags().Int("workers", 0, "Pages fetched concurrently (overrides ODOO_WORKERS)")
	cmd.Flags().String("lang", "", "Translation key to export (overrides EXPORT_LOCALE and ODOO_LANG)")
	return cmd
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg := getCfg(cmd)
	if cmd.Flags().Changed("batch-size") {
		cfg.Odoo.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Odoo.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		cfg.Export.Locale = lang
	}
	if err := cfg.ValidateFor(config.ModeAPI); err != nil {
		return err
	}

	m := metrics.NewRun(core.ModeAPI)
	client := odoo.NewClient(cfg.Odoo.URL, cfg.Odoo.DB, cfg.Odoo.User, cfg.Odoo.Password,
		odoo.WithTimeout(cfg.Odoo.RequestTimeout),
		odoo.WithCallHook(m.ObserveCall),
	)
	exp := apiexport.New(client, apiOptions(cfg))

	return runExport(cmd, cfg, newRunID(), core.ModeAPI, args, exp, m)
}

func apiOptions(cfg *config.Config) apiexport.Options {
	return apiexport.Options{
		BatchSize:       cfg.Odoo.BatchSize,
		Workers:         cfg.Odoo.Workers,
		MaxRetries:      cfg.Odoo.MaxRetries,
		RetryBackoff:    cfg.Odoo.RetryBackoff,
		Lang:            cfg.Locale(),
		IncludeArchived: cfg.Odoo.IncludeArchived,
	}
}
