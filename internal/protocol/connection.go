package protocol

import (
	"fmt"
	"net"
	"sync"

	"github.com/corvusq/queued/internal/auth"
	"github.com/corvusq/queued/internal/logger"
	"github.com/corvusq/queued/internal/metrics"
	"github.com/corvusq/queued/internal/store"
)

// Conn holds the per-connection state: the socket, its line reader, the
// authentication flag, and references to the shared engine/auth/metrics the
// connection's goroutine talks to. There is no reactor-style state
// enumeration here — each connection's goroutine blocks on its own socket
// reads, and the sequencing that the line/body/header/body states describe
// falls naturally out of the order handlers call their write/read helpers.
type Conn struct {
	conn net.Conn
	lr   *lineReader

	authTable *auth.Table
	trusted   bool

	engine  *store.Engine
	metrics *metrics.Collector
	log     logger.Logger
	id      string
}

var connPool = sync.Pool{New: func() interface{} { return new(Conn) }}

// connPoolTokens caps the number of Conn records the pool recycles,
// mirroring the bounded free-list of connection records.
var connPoolTokens = make(chan struct{}, ConnPoolCap)

func acquireConn() *Conn {
	select {
	case <-connPoolTokens:
		return connPool.Get().(*Conn)
	default:
		return new(Conn)
	}
}

func releaseConn(c *Conn) {
	*c = Conn{}
	select {
	case connPoolTokens <- struct{}{}:
		connPool.Put(c)
	default:
	}
}

func newConn(nc net.Conn, engine *store.Engine, authTable *auth.Table, m *metrics.Collector, log logger.Logger, id string) *Conn {
	c := acquireConn()
	c.conn = nc
	c.lr = newLineReader(nc)
	c.authTable = authTable
	c.trusted = false
	c.engine = engine
	c.metrics = m
	c.log = log
	c.id = id
	return c
}

func (c *Conn) writeRaw(p []byte) error {
	_, err := c.conn.Write(p)
	return err
}

func (c *Conn) writeOK() error {
	return c.writeRaw([]byte("+OK\r\n"))
}

func (c *Conn) writeErr(err error) error {
	msg := err.Error()
	if len(msg)+7 > SendBufSize {
		msg = ErrOutputTooLong.Error()
	}
	return c.writeRaw([]byte(fmt.Sprintf("-ERR %s\r\n", msg)))
}

func (c *Conn) writeJobHeader(length int32) error {
	return c.writeRaw([]byte(fmt.Sprintf("+OK %d\r\n", length)))
}

func (c *Conn) writeTouchHeader(token store.RecycleToken, length int32) error {
	return c.writeRaw([]byte(fmt.Sprintf("+OK %d %d\r\n", int64(token), length)))
}

func (c *Conn) writeSize(n int) error {
	return c.writeRaw([]byte(fmt.Sprintf("+OK %d\r\n", n)))
}
