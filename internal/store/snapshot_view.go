package store

import (
	"github.com/corvusq/queued/internal/index"
	"github.com/corvusq/queued/internal/job"
)

// Record is one (priority, due_time, queue, job) tuple as the snapshot
// writer serializes it.
type Record struct {
	Priority int32
	DueTime  int64
	Queue    string
	Job      *job.Job
}

// SnapshotView returns every job currently owned by the store, in the
// order the writer protocol emits them: each queue's ready-index entries
// in index order, then the delay wheel in index order, then the recycle
// pool rewritten with due_time=0 — touched-but-unacked jobs are persisted
// as ready, since a recycle token is meaningless after a restart.
func (s *Store) SnapshotView() []Record {
	var records []Record

	for _, q := range s.queues {
		for _, v := range q.Ready.PeekAll() {
			j := v.(*job.Job)
			records = append(records, Record{Priority: j.Priority, DueTime: 0, Queue: q.Name, Job: j})
		}
	}

	for _, v := range s.delay.PeekAll() {
		j := v.(*job.Job)
		records = append(records, Record{Priority: j.Priority, DueTime: j.DueTime, Queue: j.Queue, Job: j})
	}

	for _, v := range s.pool.PeekAll() {
		j := v.(*recycleEntry).job
		records = append(records, Record{Priority: j.Priority, DueTime: 0, Queue: j.Queue, Job: j})
	}

	return records
}

// Restore inserts a job read back from a snapshot. due is the absolute due
// time recorded on disk; if it is still in the future relative to now, the
// job goes back into the delay wheel, otherwise straight into its queue's
// ready index.
func (s *Store) Restore(queue string, priority int32, due int64, j *job.Job) {
	j.Queue = queue
	j.Priority = priority
	s.QueueGetOrCreate(queue)

	if due > 0 && due > s.now {
		j.DueTime = due
		s.delay.Insert(index.Key(due), j)
		return
	}

	j.DueTime = 0
	s.readyIndexFor(queue).Insert(index.Key(-int64(priority)), j)
}
