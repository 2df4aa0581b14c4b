// Package job defines the unit of work the broker stores: a priority, a
// due time, a back-reference to its owning queue, and a length-delimited
// body that carries a trailing CRLF sentinel on wire and on disk.
package job

import "fmt"

// Job is a single enqueued item. At any instant it is owned by exactly one
// of: a queue's ready index, the global delay wheel, the global recycle
// pool, or a connection object during the transient send/recv phases —
// never more than one.
type Job struct {
	Priority int32
	// DueTime is an absolute Unix-second timestamp; 0 means "ready now".
	DueTime int64
	// Queue is the back-reference to the owning queue, encoded as its name
	// rather than a pointer so removal never leaves a dangling reference.
	Queue string
	// Length is the body length in bytes, excluding the trailing CRLF.
	Length int32
	// Body holds exactly Length+2 bytes: the payload followed by CR, LF.
	Body []byte
}

// New allocates a Job with a Length+2 body buffer ready to be filled by a
// connection's body reader. due is the absolute due time already resolved
// by the caller (0 for immediately-ready jobs).
func New(queue string, priority int32, due int64, length int32) *Job {
	return &Job{
		Priority: priority,
		DueTime:  due,
		Queue:    queue,
		Length:   length,
		Body:     make([]byte, length+2),
	}
}

// Payload returns the body without its trailing CRLF sentinel.
func (j *Job) Payload() []byte {
	if len(j.Body) < 2 {
		return nil
	}
	return j.Body[:len(j.Body)-2]
}

// ValidSentinel reports whether the job's body ends with the required CR
// LF sentinel.
func (j *Job) ValidSentinel() bool {
	n := len(j.Body)
	return n >= 2 && j.Body[n-2] == '\r' && j.Body[n-1] == '\n'
}

// Ready reports whether the job currently belongs in a ready index.
func (j *Job) Ready() bool { return j.DueTime == 0 }

func (j *Job) String() string {
	return fmt.Sprintf("job{queue=%s priority=%d due=%d length=%d}", j.Queue, j.Priority, j.DueTime, j.Length)
}
