package store

import (
	"context"
	"time"
)

// TickInterval is the scheduler's cadence: how often delayed jobs are
// promoted, recycle holds expire, and a snapshot is considered.
const TickInterval = 100 * time.Millisecond

// Op is a unit of work submitted to the Engine: a closure that reads or
// mutates the Store. It always runs on the engine goroutine, so it never
// needs its own locking.
type Op func(*Store) (interface{}, error)

type request struct {
	op    Op
	reply chan result
}

type result struct {
	value interface{}
	err   error
}

// TickFunc is invoked once per scheduler tick, after promotion/expiry, with
// the counts from that tick and a reference to the store for snapshot
// decision logic. It runs on the engine goroutine like everything else, so
// it must not block: it may start a snapshot writer subprocess, but must
// not wait for that subprocess to exit.
type TickFunc func(s *Store, now int64, promoted, expired int)

// Engine is the single serialized owner of a Store: it is the Go-native
// reinterpretation of a single-threaded reactor thread, minus a
// hand-rolled I/O multiplexer — Go's runtime netpoller already gives every
// connection goroutine readiness-driven blocking reads, so the only thing
// left to serialize by hand is access to the store itself.
type Engine struct {
	store  *Store
	reqCh  chan request
	onTick TickFunc
}

// NewEngine wraps a Store in a channel-serialized engine. onTick may be nil.
func NewEngine(s *Store, onTick TickFunc) *Engine {
	return &Engine{
		store:  s,
		reqCh:  make(chan request),
		onTick: onTick,
	}
}

// Run drives the engine loop until ctx is canceled: it services submitted
// ops and fires the scheduler tick every TickInterval. It is meant to run
// in its own goroutine, started once at server bootstrap.
func (e *Engine) Run(ctx context.Context, nowFn func() int64) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	// Set the clock before serving ops so delays on jobs created before the
	// first tick are measured from the current time.
	e.store.SetNow(nowFn())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := nowFn()
			promoted, expired := e.store.Tick(now)
			if e.onTick != nil {
				e.onTick(e.store, now, promoted, expired)
			}
		case req := <-e.reqCh:
			value, err := req.op(e.store)
			req.reply <- result{value: value, err: err}
		}
	}
}

// Submit hands an Op to the engine goroutine and blocks for its result, or
// returns ctx.Err() if ctx is canceled first (e.g. the connection closed
// while a command was queued).
func (e *Engine) Submit(ctx context.Context, op Op) (interface{}, error) {
	req := request{op: op, reply: make(chan result, 1)}

	select {
	case e.reqCh <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
