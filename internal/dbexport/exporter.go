// Package dbexport implements the relational export path: one read-only
// transaction, one server-side query, streamed out with COPY.
package dbexport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/introspect"
	"github.com/JonMunkholm/crmexport/internal/logging"
	"github.com/JonMunkholm/crmexport/internal/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options configures the relational export.
type Options struct {
	// Locale is the preferred translation key; empty means choose one
	// from the stored translations.
	Locale string
}

// Exporter streams every lead from the store in a single pass.
// It implements core.Exporter. Call Close once the run is over.
type Exporter struct {
	pool *pgxpool.Pool
	opts Options

	conn      *pgxpool.Conn
	tx        pgx.Tx
	discovery introspect.Discovery
}

// New creates an Exporter reading from pool.
func New(pool *pgxpool.Pool, opts Options) *Exporter {
	return &Exporter{pool: pool, opts: opts}
}

// Prepare opens a repeatable-read snapshot, discovers the schema variations
// and counts the leads the export will contain.
func (e *Exporter) Prepare(ctx context.Context, sum *core.Summary) error {
	logger := logging.FromContext(ctx)

	if err := e.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		conn.Release()
		return fmt.Errorf("begin snapshot: %w", err)
	}
	e.conn, e.tx = conn, tx

	d, err := introspect.New(tx, e.opts.Locale).Discover(ctx)
	if err != nil {
		return fmt.Errorf("introspect schema: %w", err)
	}
	e.discovery = d
	for _, w := range d.Warnings {
		sum.Warn("%s", w)
	}

	lead := schema.MustGet(schema.EntityLead)
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM "+quoteIdentifier(lead.Table)).Scan(&sum.RowsExpected); err != nil {
		return fmt.Errorf("count leads: %w", err)
	}

	logger.Info("store ready",
		"leads", sum.RowsExpected,
		"locale", d.LocaleKey,
		"tags_relation", d.Tags.JoinTable,
	)
	return nil
}

// Export runs the COPY statement and streams its output through NFC
// normalization into w.
func (e *Exporter) Export(ctx context.Context, w *core.Writer, sum *core.Summary) error {
	if e.tx == nil {
		return errors.New("export called before prepare")
	}

	query, err := BuildQuery(e.discovery)
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	stmt := CopyStatement(query)
	logging.FromContext(ctx).Debug("copy statement", "sql", stmt)

	var tag pgconn.CommandTag
	err = w.StreamNormalized(func(dst io.Writer) error {
		var copyErr error
		tag, copyErr = e.tx.Conn().PgConn().CopyTo(ctx, dst, stmt)
		return copyErr
	})
	if err != nil {
		return fmt.Errorf("copy leads: %w", err)
	}
	w.AddRows(tag.RowsAffected())

	if err := e.tx.Commit(ctx); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}

// Close ends the snapshot if it is still open and returns the connection.
func (e *Exporter) Close(ctx context.Context) {
	if e.tx != nil {
		// Rollback after Commit is a no-op.
		_ = e.tx.Rollback(ctx)
		e.tx = nil
	}
	if e.conn != nil {
		e.conn.Release()
		e.conn = nil
	}
}

var _ core.Exporter = (*Exporter)(nil)
