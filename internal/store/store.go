// Package store implements the job and queue store and the scheduler tick:
// the queue table, the global delay wheel, the global recycle pool, and
// the promote/expire/snapshot-trigger cycle that runs every 100ms.
//
// Store itself carries no internal locking: it is meant to be owned
// exclusively by one goroutine — see Engine in engine.go, which is the
// channel-serialized owner every command and every tick runs through.
package store

import (
	"fmt"

	"github.com/corvusq/queued/internal/index"
	"github.com/corvusq/queued/internal/job"
)

// Queue is a named collection of ready jobs, ordered by priority
// descending (highest priority first), stable FIFO on ties.
type Queue struct {
	Name  string
	Ready *index.Index
}

// RecycleToken names a single job held in the recycle pool.
type RecycleToken int64

type recycleEntry struct {
	token RecycleToken
	job   *job.Job
}

// Store holds the queue table and the two global indices. All exported
// methods assume single-goroutine access; see package doc.
type Store struct {
	queues map[string]*Queue
	delay  *index.Index // keyed by due_time ascending
	pool   *index.Index // keyed by recycle token ascending

	now            int64
	dirty          int64
	nextToken      int64
	recycleTimeout int64
}

// New returns an empty Store. recycleTimeoutSeconds is the hold duration
// applied to jobs dequeued via touch before they expire
// (--recycle-timeout on the CLI surface).
func New(recycleTimeoutSeconds int64) *Store {
	return &Store{
		queues:         make(map[string]*Queue),
		delay:          index.New(),
		pool:           index.New(),
		recycleTimeout: recycleTimeoutSeconds,
	}
}

// SetNow sets the process-wide clock the scheduler and job creation read.
// Called by the engine loop once at startup and by Tick on every tick,
// before promotion/expiry run.
func (s *Store) SetNow(now int64) { s.now = now }

// Now returns the most recently set wall-clock time.
func (s *Store) Now() int64 { return s.now }

// Dirty returns the mutation counter since the last snapshot fork.
func (s *Store) Dirty() int64 { return s.dirty }

// ResetDirty zeroes the mutation counter; called when a snapshot writer is
// forked, not when it is reaped.
func (s *Store) ResetDirty() { s.dirty = 0 }

func (s *Store) bump() { s.dirty++ }

// QueueGetOrCreate returns the named queue, creating it with an empty
// ready index if it does not yet exist.
func (s *Store) QueueGetOrCreate(name string) *Queue {
	if q, ok := s.queues[name]; ok {
		return q
	}
	q := &Queue{Name: name, Ready: index.New()}
	s.queues[name] = q
	return q
}

// QueueLookup returns the named queue without creating it.
func (s *Store) QueueLookup(name string) (*Queue, bool) {
	q, ok := s.queues[name]
	return q, ok
}

// QueueRemove detaches the queue from the table and destroys it, along
// with every job still in its ready index, the delay wheel, or the
// recycle pool that references it: remove cascades rather than leaving
// orphaned back-references behind.
func (s *Store) QueueRemove(name string) bool {
	_, ok := s.queues[name]
	if !ok {
		return false
	}
	delete(s.queues, name)

	s.delay.RemoveWhere(func(v interface{}) bool {
		return v.(*job.Job).Queue == name
	})
	s.pool.RemoveWhere(func(v interface{}) bool {
		return v.(*recycleEntry).job.Queue == name
	})

	s.bump()
	return true
}

// QueueSize returns the number of ready jobs in a queue.
func (s *Store) QueueSize(name string) (int, bool) {
	q, ok := s.queues[name]
	if !ok {
		return 0, false
	}
	return q.Ready.Size(), true
}

// JobCreate allocates a job with a length+2 body capacity. delaySeconds>0
// sets an absolute due time relative to the current tick's now; the
// caller fills the body and then calls Commit once the body is fully
// received and its CRLF sentinel validated.
func (s *Store) JobCreate(queue string, priority int32, delaySeconds int32, length int32) *job.Job {
	var due int64
	if delaySeconds > 0 {
		due = s.now + int64(delaySeconds)
	}
	return job.New(queue, priority, due, length)
}

// Commit inserts a fully-received job into the delay wheel (if its due
// time is in the future) or its queue's ready index (otherwise), and bumps
// the dirty counter. Called once a job's body has fully arrived and its
// CRLF sentinel has been validated.
func (s *Store) Commit(j *job.Job) {
	s.QueueGetOrCreate(j.Queue)
	if j.DueTime > s.now {
		s.delay.Insert(index.Key(j.DueTime), j)
	} else {
		j.DueTime = 0
		s.readyIndexFor(j.Queue).Insert(index.Key(-int64(j.Priority)), j)
	}
	s.bump()
}

func (s *Store) readyIndexFor(name string) *index.Index {
	return s.QueueGetOrCreate(name).Ready
}

// ErrQueueMissing, ErrQueueEmpty, and ErrRecycleMissing are the store-level
// errors; their Error() text is already the exact -ERR string the wire
// protocol sends, so the protocol layer writes it directly.
var (
	ErrQueueMissing   = fmt.Errorf("not found the queue")
	ErrQueueEmpty     = fmt.Errorf("the queue was empty")
	ErrRecycleMissing = fmt.Errorf("not found this recycle job")
)

// Dequeue pops the highest-priority ready job from the named queue.
func (s *Store) Dequeue(name string) (*job.Job, error) {
	q, ok := s.queues[name]
	if !ok {
		return nil, ErrQueueMissing
	}
	v, ok := q.Ready.PopMin()
	if !ok {
		return nil, ErrQueueEmpty
	}
	return v.(*job.Job), nil
}

// Touch pops the highest-priority ready job like Dequeue but allocates a
// recycle token for it; the caller is responsible for placing the job in
// the recycle pool once its body has finished streaming to the client
// (via HoldForRecycle).
func (s *Store) Touch(name string) (*job.Job, RecycleToken, error) {
	j, err := s.Dequeue(name)
	if err != nil {
		return nil, 0, err
	}
	s.nextToken++
	return j, RecycleToken(s.nextToken), nil
}

// HoldForRecycle places a touched job into the recycle pool, due to expire
// at now+recycle_timeout.
func (s *Store) HoldForRecycle(token RecycleToken, j *job.Job) {
	j.DueTime = s.now + s.recycleTimeout
	s.pool.Insert(index.Key(int64(token)), &recycleEntry{token: token, job: j})
}

// Recycle deletes the job matching token from the recycle pool, overwrites
// its priority and delay, and reinserts it into the delay wheel or its
// queue's ready index per the enqueue rule.
func (s *Store) Recycle(token RecycleToken, priority int32, delaySeconds int32) error {
	v, ok := s.pool.DeleteKey(index.Key(int64(token)))
	if !ok {
		return ErrRecycleMissing
	}
	entry := v.(*recycleEntry)
	j := entry.job
	j.Priority = priority
	if delaySeconds > 0 {
		j.DueTime = s.now + int64(delaySeconds)
	} else {
		j.DueTime = 0
	}
	s.Commit(j)
	return nil
}

// Dispose discards a job without returning it to any container (a served
// job with no recycle request, or an expired recycle hold). It bumps the
// dirty counter.
func (s *Store) Dispose(j *job.Job) {
	_ = j
	s.bump()
}

// Tick runs one scheduler cycle: promote due delayed jobs and expire
// recycle holds. The caller — the engine loop — owns actually forking a
// snapshot writer, since that requires goroutine/process machinery
// store.Store has no business knowing about.
func (s *Store) Tick(now int64) (promoted, expired int) {
	s.SetNow(now)

	for {
		key, ok := s.delay.PeekMinKey()
		if !ok || int64(key) > now {
			break
		}
		v, _ := s.delay.PopMin()
		j := v.(*job.Job)
		j.DueTime = 0
		s.readyIndexFor(j.Queue).Insert(index.Key(-int64(j.Priority)), j)
		promoted++
		s.bump()
	}

	for {
		v, ok := s.pool.PeekMin()
		if !ok {
			break
		}
		entry := v.(*recycleEntry)
		if entry.job.DueTime > now {
			break
		}
		s.pool.PopMin()
		s.Dispose(entry.job)
		expired++
	}

	return promoted, expired
}
