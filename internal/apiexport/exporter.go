// Package apiexport implements the remote export path: leads are read in
// fixed-size pages over JSON-RPC, their references resolved with one read
// per related type per page, and rows appended to the output in id order.
//
// Pages may be fetched concurrently, but they are always written in page
// order. A page that keeps failing is skipped and recorded in the summary;
// the rest of the export continues.
package apiexport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/logging"
	"github.com/JonMunkholm/crmexport/internal/odoo"
	"github.com/JonMunkholm/crmexport/internal/schema"
	"golang.org/x/sync/errgroup"
)

// RPC is the subset of *odoo.Client used by the exporter.
type RPC interface {
	Authenticate(ctx context.Context) (int64, error)
	SearchCount(ctx context.Context, model string, domain []any, rctx odoo.Context) (int, error)
	SearchRead(ctx context.Context, model string, q odoo.Query, out any) error
	Read(ctx context.Context, model string, ids []int64, fields []string, rctx odoo.Context, out any) error
}

// Defaults applied to zero Options fields.
const (
	DefaultBatchSize    = 500
	DefaultWorkers      = 1
	DefaultRetryBackoff = time.Second
)

// Options configures the remote export.
type Options struct {
	BatchSize       int
	Workers         int
	MaxRetries      int
	RetryBackoff    time.Duration
	Lang            string
	IncludeArchived bool
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

// Exporter reads every lead through RPC. It implements core.Exporter.
type Exporter struct {
	rpc   RPC
	opts  Options
	total int
}

// New creates an Exporter.
func New(rpc RPC, opts Options) *Exporter {
	return &Exporter{rpc: rpc, opts: opts.withDefaults()}
}

// requestContext is the request context sent with every model call.
func (e *Exporter) requestContext() odoo.Context {
	rctx := odoo.Context{}
	if e.opts.Lang != "" {
		rctx["lang"] = e.opts.Lang
	}
	if e.opts.IncludeArchived {
		rctx["active_test"] = false
	}
	return rctx
}

func leadModel() string {
	return schema.MustGet(schema.EntityLead).Model
}

// Prepare authenticates and counts the leads to export. Both failures are
// fatal and happen before any output exists.
func (e *Exporter) Prepare(ctx context.Context, sum *core.Summary) error {
	logger := logging.FromContext(ctx)

	uid, err := e.rpc.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	total, err := e.rpc.SearchCount(ctx, leadModel(), nil, e.requestContext())
	if err != nil {
		return fmt.Errorf("count leads: %w", err)
	}

	e.total = total
	sum.RowsExpected = int64(total)
	sum.BatchesTotal = (total + e.opts.BatchSize - 1) / e.opts.BatchSize

	logger.Info("endpoint ready",
		"uid", uid,
		"leads", total,
		"batches", sum.BatchesTotal,
		"batch_size", e.opts.BatchSize,
		"workers", e.opts.Workers,
		"include_archived", e.opts.IncludeArchived,
	)
	return nil
}

// batchResult is the outcome of one page.
type batchResult struct {
	rows     []core.Row
	attempts int
	err      error
}

// Export fetches pages with up to Workers in flight and appends them in
// page order. A slot is held from the start of a fetch until its page has
// been written, so at most Workers pages are in memory.
func (e *Exporter) Export(ctx context.Context, w *core.Writer, sum *core.Summary) error {
	batches := sum.BatchesTotal
	if batches == 0 {
		return nil
	}
	logger := logging.FromContext(ctx)

	results := make([]chan batchResult, batches)
	for i := range results {
		results[i] = make(chan batchResult, 1)
	}
	slots := make(chan struct{}, e.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for i := 0; i < batches; i++ {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			g.Go(func() error {
				results[i] <- e.fetchWithRetry(gctx, i)
				return nil
			})
		}
		return nil
	})

	g.Go(func() error {
		for i := 0; i < batches; i++ {
			if err := gctx.Err(); err != nil {
				return err
			}

			var res batchResult
			select {
			case res = <-results[i]:
			case <-gctx.Done():
				return gctx.Err()
			}
			<-slots

			if res.err != nil {
				if errors.Is(res.err, context.Canceled) {
					return res.err
				}
				f := core.BatchFailure{
					Batch:    i,
					Offset:   e.offset(i),
					Rows:     e.expectedRows(i),
					Attempts: res.attempts,
					Code:     core.ClassifyError(res.err).Code,
					Err:      res.err.Error(),
				}
				sum.AddFailure(f)
				logger.Error("batch skipped",
					"batch", i+1,
					"of", batches,
					"offset", f.Offset,
					"attempts", f.Attempts,
					"code", f.Code,
					"error", res.err,
				)
				continue
			}

			if err := w.WriteRows(res.rows); err != nil {
				return fmt.Errorf("write batch %d: %w", i+1, err)
			}
			logger.Info("batch exported",
				"batch", i+1,
				"of", batches,
				"rows", len(res.rows),
				"exported", w.Rows(),
				"total", e.total,
			)
		}
		return nil
	})

	return g.Wait()
}

func (e *Exporter) offset(batch int) int {
	return batch * e.opts.BatchSize
}

// expectedRows estimates the size of a page from the initial count.
func (e *Exporter) expectedRows(batch int) int {
	n := e.total - e.offset(batch)
	if n > e.opts.BatchSize {
		n = e.opts.BatchSize
	}
	if n < 0 {
		n = 0
	}
	return n
}

// fetchWithRetry fetches one page, retrying retryable failures with
// exponential backoff.
func (e *Exporter) fetchWithRetry(ctx context.Context, batch int) batchResult {
	logger := logging.WithFields(ctx, "batch", batch+1, "offset", e.offset(batch))

	for attempt := 1; ; attempt++ {
		rows, err := e.fetchBatch(ctx, batch)
		if err == nil {
			return batchResult{rows: rows, attempts: attempt}
		}
		if ctx.Err() != nil {
			return batchResult{attempts: attempt, err: ctx.Err()}
		}
		if attempt > e.opts.MaxRetries || !odoo.IsRetryable(err) {
			return batchResult{attempts: attempt, err: err}
		}

		delay := e.backoff(attempt)
		logger.Warn("batch failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := sleep(ctx, delay); err != nil {
			return batchResult{attempts: attempt, err: err}
		}
	}
}

// backoff returns the delay after the given failed attempt.
func (e *Exporter) backoff(attempt int) time.Duration {
	return e.opts.RetryBackoff << (attempt - 1)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetchBatch reads one page of leads and renders it.
func (e *Exporter) fetchBatch(ctx context.Context, batch int) ([]core.Row, error) {
	var leads []odoo.Lead
	err := e.rpc.SearchRead(ctx, leadModel(), odoo.Query{
		Fields:  odoo.LeadFields,
		Offset:  e.offset(batch),
		Limit:   e.opts.BatchSize,
		Order:   "id asc",
		Context: e.requestContext(),
	}, &leads)
	if err != nil {
		return nil, fmt.Errorf("search leads at offset %d: %w", e.offset(batch), err)
	}

	lk, err := e.resolve(ctx, leads)
	if err != nil {
		return nil, err
	}

	rows := make([]core.Row, len(leads))
	for i := range leads {
		rows[i] = e.buildRow(&leads[i], lk)
	}
	return rows, nil
}

var _ core.Exporter = (*Exporter)(nil)
