package sync

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/cruxlog/cruxlog/internal/logging"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
	"github.com/cruxlog/cruxlog/internal/store/meta"
)

// Options tunes the coordinator.
type Options struct {
	// Interval between periodic drains.
	Interval time.Duration
	// PullInterval between periodic pulls of remote changes.
	PullInterval time.Duration
	// CallTimeout bounds each remote dispatch attempt.
	CallTimeout time.Duration
	// Workers bounds dispatch concurrency within one priority tier.
	Workers int
	// PullLimit is the page size for pulling remote changes.
	PullLimit int
}

func (o *Options) normalize() {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.PullInterval <= 0 {
		o.PullInterval = 5 * time.Minute
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 10 * time.Second
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.PullLimit <= 0 {
		o.PullLimit = 200
	}
}

// Coordinator is the single process-wide owner of sync traffic. It drains
// dirty records tier by tier, clears flags only after a confirmed remote
// write, and periodically pulls remote changes down.
type Coordinator struct {
	bindings map[models.EntityKind]Binding
	order    [][]models.EntityKind
	meta     meta.Repository
	log      logging.Logger
	opts     Options

	trigger  chan struct{}
	draining atomic.Bool
}

// New builds a coordinator over the given bindings. Kinds without a binding
// are skipped during drain and pull.
func New(bindings []Binding, metaRepo meta.Repository, log logging.Logger, opts Options) *Coordinator {
	opts.normalize()
	byKind := make(map[models.EntityKind]Binding, len(bindings))
	for _, b := range bindings {
		byKind[b.Kind()] = b
	}
	return &Coordinator{
		bindings: byKind,
		order:    models.PushOrder,
		meta:     metaRepo,
		log:      log,
		opts:     opts,
		trigger:  make(chan struct{}, 1),
	}
}

// TriggerDrain requests a drain outside the periodic schedule. Non-blocking;
// a request that arrives while one is already queued coalesces with it.
func (c *Coordinator) TriggerDrain() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run drains and pulls on their configured intervals until ctx is cancelled.
// An immediate drain and pull happen on startup to catch changes queued
// while the process was down.
func (c *Coordinator) Run(ctx context.Context) error {
	drainTicker := time.NewTicker(c.opts.Interval)
	defer drainTicker.Stop()
	pullTicker := time.NewTicker(c.opts.PullInterval)
	defer pullTicker.Stop()

	c.runDrain(ctx)
	c.runPull(ctx)

	for {
		select {
		case <-ctx.Done():
			c.log.Info(ctx, "sync coordinator stopping")
			return nil
		case <-c.trigger:
			c.runDrain(ctx)
		case <-drainTicker.C:
			c.runDrain(ctx)
		case <-pullTicker.C:
			c.runPull(ctx)
		}
	}
}

func (c *Coordinator) runDrain(ctx context.Context) {
	if err := c.DrainOnce(ctx); err != nil && ctx.Err() == nil {
		c.log.Error(ctx, "drain failed", "error", err)
	}
}

func (c *Coordinator) runPull(ctx context.Context) {
	if err := c.Pull(ctx); err != nil && ctx.Err() == nil {
		c.log.Error(ctx, "pull failed", "error", err)
	}
}

// DrainOnce runs a single drain pass: tier by tier in push order, dispatch
// every pending record, acknowledge confirmed writes, record failures. A
// drain requested while one is running is a no-op; the running pass reads
// current row state anyway.
//
// Remote failures in a tier end the pass before later tiers start, so a
// child record is never pushed ahead of a parent that has not landed. Local
// store errors abort the pass with an error.
func (c *Coordinator) DrainOnce(ctx context.Context) error {
	if !c.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer c.draining.Store(false)

	for _, tier := range c.order {
		failed, err := c.drainTier(ctx, tier)
		if err != nil {
			return err
		}
		if failed > 0 {
			c.log.Warn(ctx, "drain pass ended early", "failures", failed)
			return nil
		}
	}
	return nil
}

func (c *Coordinator) drainTier(ctx context.Context, tier []models.EntityKind) (int, error) {
	// Every kind's pending list is collected before any dispatch starts: a
	// listing error must abort the tier with no goroutines in flight, or the
	// next pass could work the same records concurrently with this one.
	type batch struct {
		b    Binding
		recs []models.PendingRecord
	}
	var batches []batch
	for _, kind := range tier {
		b, ok := c.bindings[kind]
		if !ok {
			continue
		}
		pending, err := b.Pending(ctx)
		if err != nil {
			return 0, fmt.Errorf("listing pending %s records: %w", kind, err)
		}
		batches = append(batches, batch{b: b, recs: pending})
	}

	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for _, bt := range batches {
		for _, rec := range bt.recs {
			g.Go(func() error {
				return c.drainRecord(gctx, bt.b, rec, &failures)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(failures.Load()), nil
}

// drainRecord pushes one record and settles its bookkeeping. Only local
// store errors are returned; remote failures are recorded on the row and
// counted, keeping the rest of the tier flowing.
func (c *Coordinator) drainRecord(ctx context.Context, b Binding, rec models.PendingRecord, failures *atomic.Int64) error {
	d := DescriptorFor(rec)

	if err := c.dispatch(ctx, b, rec); err != nil {
		permanent := remote.IsPermanent(err)
		c.log.Warn(ctx, "dispatch failed",
			"kind", d.Kind, "key", d.Key, "op", d.Op,
			"permanent", permanent, "error", err)
		failures.Add(1)
		if ferr := b.Fail(ctx, rec, permanent); ferr != nil {
			return fmt.Errorf("recording %s sync failure: %w", d.Kind, ferr)
		}
		return nil
	}

	ok, err := b.Acknowledge(ctx, rec)
	if err != nil {
		return fmt.Errorf("acknowledging %s record: %w", d.Kind, err)
	}
	if !ok {
		// Mutated mid-flight; stays dirty for the next pass.
		c.log.Debug(ctx, "record changed during dispatch", "kind", d.Kind, "key", d.Key)
		return nil
	}
	c.log.Debug(ctx, "record synced", "kind", d.Kind, "key", d.Key, "op", d.Op)
	return nil
}

// dispatch runs the remote call under the per-call timeout, retrying
// transient failures a couple of times with fibonacci backoff before handing
// the error back to the drain pass.
func (c *Coordinator) dispatch(ctx context.Context, b Binding, rec models.PendingRecord) error {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()

		err := b.Dispatch(callCtx, rec)
		if err == nil || remote.IsPermanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// Pull fetches remote changes for every bound kind, oldest first, advancing
// the per-kind cursor as pages are applied.
func (c *Coordinator) Pull(ctx context.Context) error {
	for _, tier := range c.order {
		for _, kind := range tier {
			b, ok := c.bindings[kind]
			if !ok {
				continue
			}
			if err := c.pullKind(ctx, b); err != nil {
				return fmt.Errorf("pulling %s records: %w", kind, err)
			}
		}
	}
	return nil
}

func (c *Coordinator) pullKind(ctx context.Context, b Binding) error {
	key := meta.KeyPullCursorBase + string(b.Kind())

	raw, err := c.meta.Get(ctx, key)
	if err != nil {
		return err
	}
	cursor, cursorKey, err := parsePullCursor(raw)
	if err != nil {
		return err
	}

	for {
		callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
		next, nextKey, n, err := b.Pull(callCtx, cursor, cursorKey, c.opts.PullLimit)
		cancel()

		if next.After(cursor) || (next.Equal(cursor) && nextKey != cursorKey) {
			cursor, cursorKey = next, nextKey
			if serr := c.meta.Set(ctx, key, formatPullCursor(cursor, cursorKey)); serr != nil {
				return serr
			}
		}
		if err != nil {
			return err
		}
		if n > 0 {
			c.log.Debug(ctx, "pulled remote records", "kind", b.Kind(), "count", n)
		}
		if n < c.opts.PullLimit {
			return nil
		}
	}
}

// The pull cursor pairs the newest applied updated_at with that row's key.
// The key tiebreaker keeps paging exact when a page boundary falls inside a
// run of identical timestamps.
func formatPullCursor(ts time.Time, key string) string {
	return ts.Format(time.RFC3339Nano) + " " + key
}

func parsePullCursor(raw string) (time.Time, string, error) {
	if raw == "" {
		return time.Time{}, "", nil
	}
	tsRaw, key, _ := strings.Cut(raw, " ")
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("corrupt pull cursor %q: %w", raw, err)
	}
	return ts, key, nil
}
