// Package syncer pushes locally queued takes to the server. A run selects eligible takes,
// attempts each one independently and records the outcome on the take itself.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"twelfthman/internal/takes"
)

const (
	DefaultBatchSize  = 10
	DefaultMaxRetries = 3

	NoteAlreadyRunning = "already running"
)

var ErrMissingAck = errors.New("server returned no acknowledgment for take")

// TakeStore is the part of the mutation store a run needs.
type TakeStore interface {
	GetByStatus(ctx context.Context, statuses ...takes.Status) ([]takes.Take, error)
	UpdateStatus(ctx context.Context, id string, status takes.Status, errMsg string) (*takes.Take, error)
	MarkPosted(ctx context.Context, id, providerID string, syncedAt time.Time) (*takes.Take, error)
	IncrementRetry(ctx context.Context, id string) (*takes.Take, error)
	Retry(ctx context.Context, id string) (*takes.Take, error)
}

type Options struct {
	BatchSize  int
	MaxRetries int
	Backoff    Backoff
}

// Result is what a caller sees for one run. A run refused because another is active has
// Note set and every counter at zero.
type Result struct {
	Kind      RunKind   `json:"kind"`
	Attempted int       `json:"attempted"`
	Synced    int       `json:"synced"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Errors    []string  `json:"errors,omitempty"`
	Note      string    `json:"note,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

type Orchestrator struct {
	store   TakeStore
	remote  Remote
	runLog  RunLogStore
	logger  *zap.Logger
	backoff Backoff

	batchSize  int
	maxRetries int

	guard   *semaphore.Weighted
	running atomic.Bool

	subMu   sync.RWMutex
	subs    map[int]chan Result
	nextSub int
	dropped uint64

	Now func() time.Time
}

// New wires an orchestrator. A non-nil faults policy wraps remote so that every attempt
// fails while the policy is on.
func New(store TakeStore, remote Remote, faults FailurePolicy, runLog RunLogStore, logger *zap.Logger, opts Options) *Orchestrator {
	if faults != nil {
		remote = FaultInjectingRemote{Next: remote, Policy: faults}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Orchestrator{
		store:      store,
		remote:     remote,
		runLog:     runLog,
		logger:     logger,
		backoff:    opts.Backoff.normalized(),
		batchSize:  opts.BatchSize,
		maxRetries: opts.MaxRetries,
		guard:      semaphore.NewWeighted(1),
		subs:       map[int]chan Result{},
		Now:        time.Now,
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

// Busy reports whether a run is in progress.
func (o *Orchestrator) Busy() bool {
	return o.running.Load()
}

// Subscribe returns a channel receiving the result of every completed run. Slow
// subscribers miss results rather than stall the orchestrator.
func (o *Orchestrator) Subscribe(buf int) (<-chan Result, func()) {
	if buf <= 0 {
		buf = 4
	}
	ch := make(chan Result, buf)
	o.subMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	o.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.subMu.Lock()
			delete(o.subs, id)
			o.subMu.Unlock()
			close(ch)
		})
	}
}

func (o *Orchestrator) publish(res Result) {
	o.subMu.RLock()
	defer o.subMu.RUnlock()
	for _, ch := range o.subs {
		select {
		case ch <- res:
		default:
			atomic.AddUint64(&o.dropped, 1)
		}
	}
}

// SyncAll attempts queued takes, plus takes left in syncing by an interrupted run.
func (o *Orchestrator) SyncAll(ctx context.Context) (Result, error) {
	return o.guarded(ctx, RunSyncAll, o.selectPending)
}

// RetryFailed re-attempts failed takes still under the retry ceiling. retryCount is not reset.
func (o *Orchestrator) RetryFailed(ctx context.Context) (Result, error) {
	return o.guarded(ctx, RunRetryFailed, o.selectRetryable)
}

type selector func(ctx context.Context, now time.Time) (batch []takes.Take, skipped int, err error)

func (o *Orchestrator) guarded(ctx context.Context, kind RunKind, sel selector) (Result, error) {
	if !o.guard.TryAcquire(1) {
		return Result{Kind: kind, Note: NoteAlreadyRunning}, nil
	}
	o.running.Store(true)
	defer func() {
		o.running.Store(false)
		o.guard.Release(1)
	}()
	return o.run(ctx, kind, sel)
}

func (o *Orchestrator) run(ctx context.Context, kind RunKind, sel selector) (Result, error) {
	res := Result{Kind: kind, StartedAt: o.now()}
	batch, skipped, err := sel(ctx, res.StartedAt)
	if err != nil {
		return res, fmt.Errorf("select takes: %w", err)
	}
	res.Skipped = skipped

	o.logger.Debug("sync run started",
		zap.String("kind", string(kind)),
		zap.Int("batch", len(batch)),
		zap.Int("skipped", skipped),
	)

	outcomes := make([]outcome, len(batch))
	var g errgroup.Group
	for i := range batch {
		i := i
		g.Go(func() error {
			outcomes[i] = o.attemptSafe(ctx, batch[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, oc := range outcomes {
		switch {
		case oc.gone:
			continue
		case oc.err != nil:
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", oc.id, oc.err))
		default:
			res.Synced++
		}
		res.Attempted++
	}
	res.EndedAt = o.now()

	o.logger.Info("sync run finished",
		zap.String("kind", string(kind)),
		zap.Int("attempted", res.Attempted),
		zap.Int("synced", res.Synced),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
		zap.Duration("took", res.EndedAt.Sub(res.StartedAt)),
	)

	if o.runLog != nil {
		if err := o.runLog.Save(ctx, RunLog{
			Kind:      kind,
			StartedAt: res.StartedAt,
			EndedAt:   res.EndedAt,
			Attempted: res.Attempted,
			Succeeded: res.Synced,
			Failed:    res.Failed,
			Skipped:   res.Skipped,
			Errors:    res.Errors,
		}); err != nil {
			o.publish(res)
			return res, fmt.Errorf("save run log: %w", err)
		}
	}
	o.publish(res)
	return res, nil
}

func (o *Orchestrator) selectPending(ctx context.Context, now time.Time) ([]takes.Take, int, error) {
	items, err := o.store.GetByStatus(ctx, takes.StatusQueued, takes.StatusSyncing)
	if err != nil {
		return nil, 0, err
	}
	eligible := make([]takes.Take, 0, len(items))
	skipped := 0
	for _, t := range items {
		if !o.backoff.Eligible(t.RetryCount, t.LastAttempt, now) {
			skipped++
			continue
		}
		eligible = append(eligible, t)
	}
	return o.cap(eligible), skipped, nil
}

func (o *Orchestrator) selectRetryable(ctx context.Context, now time.Time) ([]takes.Take, int, error) {
	items, err := o.store.GetByStatus(ctx, takes.StatusFailed)
	if err != nil {
		return nil, 0, err
	}
	eligible := make([]takes.Take, 0, len(items))
	skipped := 0
	for _, t := range items {
		if t.RetryCount >= o.maxRetries || !o.backoff.Eligible(t.RetryCount, t.LastAttempt, now) {
			skipped++
			continue
		}
		eligible = append(eligible, t)
	}
	return o.cap(eligible), skipped, nil
}

func (o *Orchestrator) cap(items []takes.Take) []takes.Take {
	if len(items) > o.batchSize {
		return items[:o.batchSize]
	}
	return items
}

type outcome struct {
	id   string
	err  error
	gone bool
}

func (o *Orchestrator) attemptSafe(ctx context.Context, t takes.Take) (oc outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("sync attempt panicked", zap.String("take_id", t.ID), zap.Any("panic", r))
			oc = outcome{id: t.ID, err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return o.attempt(ctx, t)
}

// attempt moves one take through syncing to posted or failed. Its error is recorded on the
// take and in the run result, never returned to the caller of the run.
func (o *Orchestrator) attempt(ctx context.Context, t takes.Take) outcome {
	oc := outcome{id: t.ID}

	if t.Status == takes.StatusFailed {
		requeued, err := o.store.Retry(ctx, t.ID)
		if err != nil {
			oc.err = err
			return oc
		}
		if requeued == nil {
			oc.gone = true
			return oc
		}
	}

	cur, err := o.store.UpdateStatus(ctx, t.ID, takes.StatusSyncing, "")
	if err != nil {
		oc.err = err
		return oc
	}
	if cur == nil {
		oc.gone = true
		return oc
	}

	ack, err := o.push(ctx, *cur)
	if err == nil {
		_, err = o.store.MarkPosted(ctx, cur.ID, ack.ProviderID, ack.SyncedAt)
		if err == nil {
			return oc
		}
	}

	oc.err = err
	o.logger.Warn("take sync failed",
		zap.String("take_id", cur.ID),
		zap.String("client_id", cur.ClientID),
		zap.Int("retry_count", cur.RetryCount),
		zap.Error(err),
	)
	if _, serr := o.store.UpdateStatus(ctx, cur.ID, takes.StatusFailed, err.Error()); serr != nil {
		o.logger.Error("record sync failure", zap.String("take_id", cur.ID), zap.Error(serr))
		return oc
	}
	if _, serr := o.store.IncrementRetry(ctx, cur.ID); serr != nil {
		o.logger.Error("increment retry", zap.String("take_id", cur.ID), zap.Error(serr))
	}
	return oc
}

func (o *Orchestrator) push(ctx context.Context, t takes.Take) (Ack, error) {
	acks, err := o.remote.SyncTakes(ctx, []Submission{SubmissionFor(t)})
	if err != nil {
		return Ack{}, err
	}
	for _, a := range acks {
		if a.ClientID == t.ClientID {
			return a, nil
		}
	}
	return Ack{}, ErrMissingAck
}
