// Package mutation runs writes against the blog API with optimistic cache
// updates: snapshot, apply, then commit or roll back once the server answers.
package mutation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bassista/go_quill/internal/client"
	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/notify"
	"github.com/bassista/go_quill/internal/querycache"
	"github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StatePending
	StateOptimistic
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOptimistic:
		return "optimistic"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Plan describes one write. Keys are the query families the write may touch:
// they are cancelled and snapshotted before Apply and invalidated on commit.
type Plan struct {
	Name string
	Keys []querycache.Key

	// Apply performs the optimistic writes through tx. Misses are no-ops.
	Apply func(tx *Tx)
	// Call performs the server request. Its context is never cancelled.
	Call func(ctx context.Context) (any, error)
	// Reconcile swaps optimistic values for the server's result on success.
	// Its writes land on the confirmed values, under any layers still pending.
	Reconcile func(c *querycache.Cache, result any)

	Success func(result any) notify.Event
	Failure func(err error) notify.Event
}

// Mutation is one running write.
type Mutation struct {
	name string

	mu       sync.Mutex
	state    State
	result   any
	err      error
	snapshot []querycache.Snapshot
	done     chan struct{}
}

func (m *Mutation) Name() string { return m.name }

func (m *Mutation) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done is closed once the mutation has committed or rolled back.
func (m *Mutation) Done() <-chan struct{} { return m.done }

// Wait blocks until the mutation settles and returns the server's result.
func (m *Mutation) Wait() (any, error) {
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result, m.err
}

// Snapshot is the state of the plan's key families before Apply.
func (m *Mutation) Snapshot() []querycache.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *Mutation) set(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Mutation) finish(s State, result any, err error) {
	m.mu.Lock()
	m.state = s
	m.result = result
	m.err = err
	m.mu.Unlock()
	close(m.done)
}

// Coordinator starts mutations against one cache and reports their outcome
// to a sink. Cached entries show the confirmed server state plus the
// transforms of the mutations still in flight.
type Coordinator struct {
	cache   *querycache.Cache
	sink    notify.Sink
	metrics *Metrics
	log     *logrus.Entry
	wg      sync.WaitGroup
	seq     atomic.Uint64
}

type Option func(*Coordinator)

func WithMetrics(m *Metrics) Option {
	return func(co *Coordinator) { co.metrics = m }
}

func NewCoordinator(cache *querycache.Cache, sink notify.Sink, opts ...Option) *Coordinator {
	if sink == nil {
		sink = notify.Discard
	}
	co := &Coordinator{
		cache: cache,
		sink:  sink,
		log:   logger.WithComponent("mutation"),
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

func (co *Coordinator) Cache() *querycache.Cache { return co.cache }

// Start snapshots and applies the plan synchronously, then sends the request
// in the background. Cancelling ctx after Start does not cancel the request.
func (co *Coordinator) Start(ctx context.Context, plan Plan) *Mutation {
	m := &Mutation{name: plan.Name, done: make(chan struct{})}

	m.set(StatePending)
	if len(plan.Keys) > 0 {
		co.cache.Cancel(plan.Keys...)
		snapshot := co.cache.Snapshot(plan.Keys...)
		m.mu.Lock()
		m.snapshot = snapshot
		m.mu.Unlock()
	}

	tx := newTx(co.cache, co.seq.Add(1))
	if plan.Apply != nil {
		co.guard(plan.Name, "apply", func() { plan.Apply(tx) })
	}
	m.set(StateOptimistic)
	co.metrics.started()

	callCtx := context.WithoutCancel(ctx)
	co.wg.Add(1)
	go func() {
		defer co.wg.Done()
		result, err := co.call(callCtx, plan)
		if err != nil {
			co.rollback(plan, tx, m, err)
			return
		}
		co.commit(plan, tx, m, result)
	}()
	return m
}

// Run is Start followed by Wait.
func (co *Coordinator) Run(ctx context.Context, plan Plan) (any, error) {
	return co.Start(ctx, plan).Wait()
}

// Reject settles a plan that failed before reaching the cache, e.g. on local
// validation. It notifies once and leaves the cache untouched.
func (co *Coordinator) Reject(plan Plan, err error) *Mutation {
	m := &Mutation{name: plan.Name, done: make(chan struct{})}
	co.metrics.rejected(plan.Name)
	co.sink.Notify(failureEvent(plan, err))
	m.finish(StateRolledBack, nil, err)
	return m
}

// Wait blocks until every started mutation has settled.
func (co *Coordinator) Wait() {
	co.wg.Wait()
}

func (co *Coordinator) call(ctx context.Context, plan Plan) (result any, err error) {
	if plan.Call == nil {
		return nil, &client.Error{Kind: client.KindServer, Message: "mutation has no request"}
	}
	defer func() {
		if r := recover(); r != nil {
			co.log.WithField("mutation", plan.Name).Errorf("request panicked: %v", r)
			result, err = nil, &client.Error{Kind: client.KindServer, Message: fmt.Sprintf("unexpected failure: %v", r)}
		}
	}()
	return plan.Call(ctx)
}

func (co *Coordinator) commit(plan Plan, tx *Tx, m *Mutation, result any) {
	overlapping := tx.settle(true)
	if plan.Reconcile != nil {
		co.guard(plan.Name, "reconcile", func() { plan.Reconcile(co.cache, result) })
	}
	co.invalidate(append(tx.Touched(), plan.Keys...))

	co.metrics.settle(plan.Name, StateCommitted, overlapping)
	co.log.WithField("mutation", plan.Name).Debug("mutation committed")
	if plan.Success != nil {
		co.sink.Notify(plan.Success(result))
	} else {
		co.sink.Notify(notify.Event{Title: plan.Name + " succeeded", Color: notify.ColorSuccess})
	}
	m.finish(StateCommitted, result, nil)
}

// rollback drops this mutation's layers: every touched key goes back to its
// confirmed value with the other pending layers replayed, then is
// invalidated.
func (co *Coordinator) rollback(plan Plan, tx *Tx, m *Mutation, err error) {
	overlapping := tx.settle(false)
	co.invalidate(tx.Touched())

	co.metrics.settle(plan.Name, StateRolledBack, overlapping)
	co.log.WithFields(logrus.Fields{
		"mutation":    plan.Name,
		"kind":        client.KindOf(err).String(),
		"overlapping": overlapping,
	}).Debugf("mutation rolled back: %v", err)
	co.sink.Notify(failureEvent(plan, err))
	m.finish(StateRolledBack, nil, err)
}

func (co *Coordinator) invalidate(keys []querycache.Key) {
	if len(keys) > 0 {
		co.cache.Invalidate(keys...)
	}
}

func (co *Coordinator) guard(name, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			co.log.WithFields(logrus.Fields{"mutation": name, "step": step}).Errorf("recovered: %v", r)
		}
	}()
	fn()
}

func failureEvent(plan Plan, err error) notify.Event {
	if plan.Failure != nil {
		return plan.Failure(err)
	}
	return notify.Event{Title: plan.Name + " failed", Description: client.MessageOf(err), Color: notify.ColorDanger}
}
