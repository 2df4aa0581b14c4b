package protocol

import (
	"context"
	"errors"

	"github.com/corvusq/queued/internal/job"
	"github.com/corvusq/queued/internal/store"
)

// verbHandler executes one command, writing its reply (success or -ERR)
// itself, and reports whether the command succeeded (for metrics) and
// whether the connection must be dropped (a non-nil transport error).
type verbHandler func(c *Conn, ctx context.Context, args []string) (ok bool, err error)

var handlers = map[string]verbHandler{
	"ping":    handlePing,
	"auth":    handleAuth,
	"enqueue": handleEnqueue,
	"dequeue": handleDequeue,
	"touch":   handleTouch,
	"recycle": handleRecycle,
	"remove":  handleRemove,
	"size":    handleSize,
}

// isStoreErr reports whether err is one of the store's business-level
// sentinels, as opposed to an engine shutdown/cancellation error.
func isStoreErr(err error) bool {
	return errors.Is(err, store.ErrQueueMissing) ||
		errors.Is(err, store.ErrQueueEmpty) ||
		errors.Is(err, store.ErrRecycleMissing)
}

func handlePing(c *Conn, _ context.Context, _ []string) (bool, error) {
	return true, c.writeOK()
}

func handleAuth(c *Conn, _ context.Context, args []string) (bool, error) {
	user, pass := args[0], args[1]
	if c.authTable.Verify(user, pass) {
		c.trusted = true
		return true, c.writeOK()
	}
	return false, c.writeErr(ErrAccessDenied)
}

func handleEnqueue(c *Conn, ctx context.Context, args []string) (bool, error) {
	name := args[0]
	if len(name) >= MaxQueueNameLen {
		return false, c.writeErr(ErrQueueNameTooLong)
	}
	priority, ok := parseInt32(args[1])
	if !ok {
		return false, c.writeErr(ErrPriorityInvalid)
	}
	delay, ok := parseInt32(args[2])
	if !ok {
		return false, c.writeErr(ErrDelayInvalid)
	}
	length, ok := parseInt32(args[3])
	if !ok || length < 0 {
		return false, c.writeErr(ErrLengthInvalid)
	}

	res, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		return s.JobCreate(name, priority, delay, length), nil
	})
	if err != nil {
		return false, err
	}
	j := res.(*job.Job)

	if err := c.lr.ReadFull(j.Body); err != nil {
		return false, err
	}
	if !j.ValidSentinel() {
		return false, c.writeErr(ErrJobInvalid)
	}

	if _, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		s.Commit(j)
		return nil, nil
	}); err != nil {
		return false, err
	}
	return true, c.writeOK()
}

func handleDequeue(c *Conn, ctx context.Context, args []string) (bool, error) {
	name := args[0]
	res, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		return s.Dequeue(name)
	})
	if err != nil {
		if isStoreErr(err) {
			return false, c.writeErr(err)
		}
		return false, err
	}
	j := res.(*job.Job)

	if err := c.writeJobHeader(j.Length); err != nil {
		return false, err
	}
	if err := c.writeRaw(j.Body); err != nil {
		return false, err
	}

	if _, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		s.Dispose(j)
		return nil, nil
	}); err != nil {
		return false, err
	}
	return true, nil
}

func handleTouch(c *Conn, ctx context.Context, args []string) (bool, error) {
	name := args[0]
	type touchResult struct {
		job   *job.Job
		token store.RecycleToken
	}
	res, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		j, token, err := s.Touch(name)
		if err != nil {
			return nil, err
		}
		return touchResult{job: j, token: token}, nil
	})
	if err != nil {
		if isStoreErr(err) {
			return false, c.writeErr(err)
		}
		return false, err
	}
	tr := res.(touchResult)

	if err := c.writeTouchHeader(tr.token, tr.job.Length); err != nil {
		return false, err
	}
	if err := c.writeRaw(tr.job.Body); err != nil {
		return false, err
	}

	if _, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		s.HoldForRecycle(tr.token, tr.job)
		return nil, nil
	}); err != nil {
		return false, err
	}
	return true, nil
}

func handleRecycle(c *Conn, ctx context.Context, args []string) (bool, error) {
	tokenVal, ok := parseInt64(args[0])
	if !ok {
		return false, c.writeErr(ErrRecycleTokenBad)
	}
	priority, ok := parseInt32(args[1])
	if !ok {
		return false, c.writeErr(ErrPriorityInvalid)
	}
	delay, ok := parseInt32(args[2])
	if !ok {
		return false, c.writeErr(ErrDelayInvalid)
	}

	_, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		return nil, s.Recycle(store.RecycleToken(tokenVal), priority, delay)
	})
	if err != nil {
		if isStoreErr(err) {
			return false, c.writeErr(err)
		}
		return false, err
	}
	return true, c.writeOK()
}

func handleRemove(c *Conn, ctx context.Context, args []string) (bool, error) {
	name := args[0]
	res, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		return s.QueueRemove(name), nil
	})
	if err != nil {
		return false, err
	}
	if !res.(bool) {
		return false, c.writeErr(store.ErrQueueMissing)
	}
	return true, c.writeOK()
}

func handleSize(c *Conn, ctx context.Context, args []string) (bool, error) {
	name := args[0]
	if len(name) >= MaxQueueNameLen {
		return false, c.writeErr(ErrQueueNameTooLong)
	}
	res, err := c.engine.Submit(ctx, func(s *store.Store) (interface{}, error) {
		n, ok := s.QueueSize(name)
		if !ok {
			return nil, store.ErrQueueMissing
		}
		return n, nil
	})
	if err != nil {
		if isStoreErr(err) {
			return false, c.writeErr(err)
		}
		return false, err
	}
	return true, c.writeSize(res.(int))
}
