package protocol

import (
	"context"
	"net"
	"runtime/debug"

	"github.com/corvusq/queued/internal/auth"
	queuederrors "github.com/corvusq/queued/internal/errors"
	"github.com/corvusq/queued/internal/logger"
	"github.com/corvusq/queued/internal/metrics"
	"github.com/corvusq/queued/internal/store"
	"github.com/google/uuid"
)

// Server accepts TCP connections and hands each one to its own goroutine.
type Server struct {
	ln        net.Listener
	engine    *store.Engine
	authTable *auth.Table
	metrics   *metrics.Collector
	log       logger.Logger
}

// NewServer wraps an already-bound listener. authTable may be nil, which
// disables the authentication gate entirely.
func NewServer(ln net.Listener, engine *store.Engine, authTable *auth.Table, m *metrics.Collector, log logger.Logger) *Server {
	return &Server{ln: ln, engine: engine, authTable: authTable, metrics: m, log: log}
}

// Serve accepts connections until ctx is canceled or the listener errors.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		nc, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handle(ctx, nc)
	}
}

func (s *Server) handle(ctx context.Context, nc net.Conn) {
	id := uuid.NewString()
	connCtx := logger.WithConnID(ctx, id)
	connLog := s.log.WithComponent(logger.ComponentConn)

	c := newConn(nc, s.engine, s.authTable, s.metrics, connLog, id)
	defer func() {
		if r := recover(); r != nil {
			perr := &queuederrors.PanicError{Value: r, Stacktrace: string(debug.Stack())}
			connLog.ErrorContext(connCtx, "connection handler panicked", "error", queuederrors.FormatPanicForLog(perr))
		}
		nc.Close()
		releaseConn(c)
	}()

	connLog.DebugContext(connCtx, "connection accepted", "remote", nc.RemoteAddr().String())
	c.serve(connCtx)
	connLog.DebugContext(connCtx, "connection closed")
}

func (c *Conn) serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.lr.ReadLine()
		if err != nil {
			return
		}

		tokens := tokenize(line)
		if len(tokens) == 0 {
			continue
		}

		if err := c.dispatch(ctx, tokens[0], tokens[1:]); err != nil {
			return
		}
	}
}

func (c *Conn) dispatch(ctx context.Context, verb string, args []string) error {
	want, known := arity[verb]
	if !known {
		c.metrics.RecordCommand(verb, false)
		return c.writeErr(ErrUnknownCommand)
	}
	if len(args) != want {
		c.metrics.RecordCommand(verb, false)
		return c.writeErr(ErrArityMismatch)
	}
	if c.authTable != nil && !c.trusted && verb != "auth" {
		c.metrics.RecordCommand(verb, false)
		return c.writeErr(ErrUnreliableConn)
	}

	h := handlers[verb]
	ok, err := h(c, ctx, args)
	c.metrics.RecordCommand(verb, ok)
	return err
}
