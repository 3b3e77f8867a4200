package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruxlog/cruxlog/internal/logging"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
)

// -------- test fakes --------

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (noopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (n noopLogger) With(args ...any) logging.Logger                  { return n }

type fakeBinding struct {
	mu   stdsync.Mutex
	kind models.EntityKind

	pending     []models.PendingRecord
	dispatchErr error

	dispatched []string
	acked      []string
	failed     []bool

	pendingCount int
	failedCount  int
}

func (f *fakeBinding) Kind() models.EntityKind { return f.kind }

func (f *fakeBinding) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeBinding) Dispatch(ctx context.Context, rec models.PendingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, rec.Key)
	return f.dispatchErr
}

func (f *fakeBinding) Acknowledge(ctx context.Context, rec models.PendingRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, rec.Key)
	return true, nil
}

func (f *fakeBinding) Fail(ctx context.Context, rec models.PendingRecord, permanent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, permanent)
	return nil
}

func (f *fakeBinding) Counts(ctx context.Context) (int, int, error) {
	return f.pendingCount, f.failedCount, nil
}

func (f *fakeBinding) Pull(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
	return since, sinceKey, 0, nil
}

type fakeMeta struct {
	mu   stdsync.Mutex
	data map[string]string
}

func newFakeMeta() *fakeMeta { return &fakeMeta{data: map[string]string{}} }

func (m *fakeMeta) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *fakeMeta) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func rec(kind models.EntityKind, key string) models.PendingRecord {
	return models.PendingRecord{Kind: kind, Key: key, UpdatedAt: time.Now().UTC()}
}

// -------- tests --------

func TestDrainOnce_PushOrder(t *testing.T) {
	var order []models.EntityKind
	var mu stdsync.Mutex

	mk := func(kind models.EntityKind) *orderBinding {
		return &orderBinding{
			fakeBinding: fakeBinding{kind: kind, pending: []models.PendingRecord{rec(kind, string(kind) + "-1")}},
			after: func() {
				mu.Lock()
				order = append(order, kind)
				mu.Unlock()
			},
		}
	}

	bindings := []Binding{
		mk(models.KindFollow),
		mk(models.KindAttempt),
		mk(models.KindClimb),
		mk(models.KindSession),
		mk(models.KindProfile),
	}

	c := New(bindings, newFakeMeta(), noopLogger{}, Options{Workers: 1})
	require.NoError(t, c.DrainOnce(context.Background()))

	// tiers flush parent kinds before child kinds regardless of wiring order
	require.Len(t, order, 5)
	assert.Equal(t, models.KindProfile, order[0])
	assert.Equal(t, models.KindSession, order[1])
	assert.Equal(t, models.KindClimb, order[2])
	assert.Equal(t, models.KindFollow, order[4])
}

type orderBinding struct {
	fakeBinding
	after func()
}

func (o *orderBinding) Dispatch(ctx context.Context, r models.PendingRecord) error {
	err := o.fakeBinding.Dispatch(ctx, r)
	o.after()
	return err
}

func TestDrainOnce_FailureStopsLaterTiers(t *testing.T) {
	sessions := &fakeBinding{
		kind:        models.KindSession,
		pending:     []models.PendingRecord{rec(models.KindSession, "s1")},
		dispatchErr: remote.Transient("sessions.upsert", errors.New("conn refused")),
	}
	climbs := &fakeBinding{
		kind:    models.KindClimb,
		pending: []models.PendingRecord{rec(models.KindClimb, "c1")},
	}

	c := New([]Binding{sessions, climbs}, newFakeMeta(), noopLogger{}, Options{})
	require.NoError(t, c.DrainOnce(context.Background()))

	// the session failure is recorded as transient
	require.Len(t, sessions.failed, 1)
	assert.False(t, sessions.failed[0])
	assert.Empty(t, sessions.acked)

	// the climb tier never ran: its parent has not landed
	assert.Empty(t, climbs.dispatched)
}

// slowBinding stretches every dispatch and tracks how many are running.
type slowBinding struct {
	fakeBinding
	delay    time.Duration
	inflight atomic.Int32
}

func (s *slowBinding) Dispatch(ctx context.Context, r models.PendingRecord) error {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	time.Sleep(s.delay)
	return s.fakeBinding.Dispatch(ctx, r)
}

// flakyPendingBinding fails its first listings, then behaves.
type flakyPendingBinding struct {
	fakeBinding
	failures int
}

func (b *flakyPendingBinding) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	if b.failures > 0 {
		b.failures--
		return nil, errors.New("database is locked")
	}
	return b.fakeBinding.Pending(ctx)
}

func TestDrainOnce_PendingErrorLeavesNothingInFlight(t *testing.T) {
	// attempts and photos share a tier; the photo listing fails while an
	// attempt dispatch would still be running
	attempts := &slowBinding{
		fakeBinding: fakeBinding{
			kind:    models.KindAttempt,
			pending: []models.PendingRecord{rec(models.KindAttempt, "a1")},
		},
		delay: 50 * time.Millisecond,
	}
	photos := &flakyPendingBinding{
		fakeBinding: fakeBinding{kind: models.KindPhoto},
		failures:    1,
	}

	c := New([]Binding{attempts, photos}, newFakeMeta(), noopLogger{}, Options{Workers: 2})
	require.Error(t, c.DrainOnce(context.Background()))

	// the failed listing aborts the tier before any dispatch starts, so no
	// goroutine can outlive this pass and overlap with the next one
	assert.Zero(t, attempts.inflight.Load())
	assert.Empty(t, attempts.dispatched)

	// the next pass is the only one touching the record
	require.NoError(t, c.DrainOnce(context.Background()))
	assert.Equal(t, []string{"a1"}, attempts.dispatched)
	assert.Equal(t, []string{"a1"}, attempts.acked)
}

func TestDrainOnce_PermanentFailureRecorded(t *testing.T) {
	b := &fakeBinding{
		kind:        models.KindProfile,
		pending:     []models.PendingRecord{rec(models.KindProfile, "p1")},
		dispatchErr: remote.Permanent("profiles.upsert", errors.New("handle taken")),
	}

	c := New([]Binding{b}, newFakeMeta(), noopLogger{}, Options{})
	require.NoError(t, c.DrainOnce(context.Background()))

	require.Len(t, b.failed, 1)
	assert.True(t, b.failed[0])
	assert.Empty(t, b.acked)

	// permanent errors are not retried within the dispatch
	assert.Len(t, b.dispatched, 1)
}

func TestDrainOnce_TransientRetriesWithinDispatch(t *testing.T) {
	b := &fakeBinding{
		kind:        models.KindProfile,
		pending:     []models.PendingRecord{rec(models.KindProfile, "p1")},
		dispatchErr: remote.Transient("profiles.upsert", errors.New("timeout")),
	}

	c := New([]Binding{b}, newFakeMeta(), noopLogger{}, Options{})
	require.NoError(t, c.DrainOnce(context.Background()))

	// initial call plus two backoff retries
	assert.Len(t, b.dispatched, 3)
	require.Len(t, b.failed, 1)
}

func TestDrainOnce_SuccessAcknowledges(t *testing.T) {
	b := &fakeBinding{
		kind: models.KindProfile,
		pending: []models.PendingRecord{
			rec(models.KindProfile, "p1"),
			rec(models.KindProfile, "p2"),
		},
	}

	c := New([]Binding{b}, newFakeMeta(), noopLogger{}, Options{Workers: 2})
	require.NoError(t, c.DrainOnce(context.Background()))

	assert.ElementsMatch(t, []string{"p1", "p2"}, b.dispatched)
	assert.ElementsMatch(t, []string{"p1", "p2"}, b.acked)
	assert.Empty(t, b.failed)
}

func TestStatus(t *testing.T) {
	p := &fakeBinding{kind: models.KindProfile, pendingCount: 2, failedCount: 1}
	s := &fakeBinding{kind: models.KindSession, pendingCount: 0, failedCount: 0}

	c := New([]Binding{p, s}, newFakeMeta(), noopLogger{}, Options{})
	status, err := c.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindStatus{Pending: 2, Failed: 1}, status[models.KindProfile])
	assert.Equal(t, KindStatus{}, status[models.KindSession])
}

func TestTriggerDrain_Coalesces(t *testing.T) {
	c := New(nil, newFakeMeta(), noopLogger{}, Options{})

	// both requests fit into the single buffered slot without blocking
	c.TriggerDrain()
	c.TriggerDrain()

	select {
	case <-c.trigger:
	default:
		t.Fatal("expected a queued drain request")
	}
	select {
	case <-c.trigger:
		t.Fatal("expected requests to coalesce into one")
	default:
	}
}

// pullRow is one remote row for the pull fakes: a timestamp plus its key.
type pullRow struct {
	ts  time.Time
	key string
}

// pullBinding serves rows from a sorted slice, honoring the (ts, key) cursor
// the way the postgres adapters do.
type pullBinding struct {
	fakeBinding
	rows  []pullRow
	calls []time.Time
	got   []string
}

func (p *pullBinding) Pull(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
	p.calls = append(p.calls, since)
	cursor, cursorKey, n := since, sinceKey, 0
	for _, r := range p.rows {
		if r.ts.Before(since) || (r.ts.Equal(since) && r.key <= sinceKey) {
			continue
		}
		p.got = append(p.got, r.key)
		cursor, cursorKey = r.ts, r.key
		if n++; n == limit {
			break
		}
	}
	return cursor, cursorKey, n, nil
}

func TestPull_AdvancesCursor(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	next := start.Add(time.Hour)

	b := &pullBinding{
		fakeBinding: fakeBinding{kind: models.KindProfile},
		rows:        []pullRow{{start, "p1"}, {next, "p2"}},
	}

	meta := newFakeMeta()
	c := New([]Binding{b}, meta, noopLogger{}, Options{PullLimit: 10})
	require.NoError(t, c.Pull(context.Background()))

	stored, err := meta.Get(context.Background(), "pull_cursor_profile")
	require.NoError(t, err)
	assert.Equal(t, formatPullCursor(next, "p2"), stored)

	// the next pull resumes from the stored cursor and refetches nothing
	require.NoError(t, c.Pull(context.Background()))
	require.Len(t, b.calls, 2)
	assert.Equal(t, next.UnixNano(), b.calls[1].UnixNano())
	assert.Equal(t, []string{"p1", "p2"}, b.got)
}

func TestPull_PageBoundaryTimestampTies(t *testing.T) {
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// three rows share one timestamp and the page size is two; the key
	// tiebreaker must carry the pull past the boundary to the third row
	b := &pullBinding{
		fakeBinding: fakeBinding{kind: models.KindProfile},
		rows:        []pullRow{{ts, "p1"}, {ts, "p2"}, {ts, "p3"}},
	}

	c := New([]Binding{b}, newFakeMeta(), noopLogger{}, Options{PullLimit: 2})
	require.NoError(t, c.Pull(context.Background()))

	assert.Equal(t, []string{"p1", "p2", "p3"}, b.got)
}
