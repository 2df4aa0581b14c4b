package protocol

import (
	"bufio"
	"context"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/corvusq/queued/internal/auth"
	"github.com/corvusq/queued/internal/logger"
	"github.com/corvusq/queued/internal/metrics"
	"github.com/corvusq/queued/internal/store"
)

func startServer(t *testing.T, authTable *auth.Table) (addr string, stop func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := store.New(60)
	engine := store.NewEngine(s, nil)
	ctx, cancel := context.WithCancel(context.Background())

	go engine.Run(ctx, func() int64 { return time.Now().Unix() })

	srv := NewServer(ln, engine, authTable, metrics.NewCollector(), &logger.NoOpLogger{})
	go srv.Serve(ctx)

	return ln.Addr().String(), func() {
		cancel()
		ln.Close()
	}
}

func dialAndExchange(t *testing.T, addr, send string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(send)); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return strings.TrimRight(reply, "\r\n")
}

func TestDispatchUnknownCommand(t *testing.T) {
	addr, stop := startServer(t, nil)
	defer stop()

	got := dialAndExchange(t, addr, "bogus\r\n")
	want := "-ERR " + ErrUnknownCommand.Error()
	if got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestDispatchArityMismatch(t *testing.T) {
	addr, stop := startServer(t, nil)
	defer stop()

	got := dialAndExchange(t, addr, "size\r\n")
	want := "-ERR " + ErrArityMismatch.Error()
	if got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestDispatchQueueNameTooLong(t *testing.T) {
	addr, stop := startServer(t, nil)
	defer stop()

	name := strings.Repeat("q", MaxQueueNameLen+1)
	got := dialAndExchange(t, addr, "size "+name+"\r\n")
	want := "-ERR " + ErrQueueNameTooLong.Error()
	if got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestDispatchAuthGateRejectsUntrusted(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "auth")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := f.WriteString("alice secret\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	table, err := auth.Load(f.Name())
	if err != nil {
		t.Fatalf("auth.Load: %v", err)
	}

	addr, stop := startServer(t, table)
	defer stop()

	got := dialAndExchange(t, addr, "size q\r\n")
	want := "-ERR " + ErrUnreliableConn.Error()
	if got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestDispatchAuthThenCommandSucceeds(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "auth")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := f.WriteString("alice secret\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	table, err := auth.Load(f.Name())
	if err != nil {
		t.Fatalf("auth.Load: %v", err)
	}

	addr, stop := startServer(t, table)
	defer stop()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(time.Second))

	if _, err := conn.Write([]byte("auth alice secret\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimRight(reply, "\r\n") != "+OK" {
		t.Fatalf("auth reply = %q", reply)
	}

	if _, err := conn.Write([]byte("size q\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err = r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "-ERR " + store.ErrQueueMissing.Error()
	if strings.TrimRight(reply, "\r\n") != want {
		t.Fatalf("size reply = %q, want %q", reply, want)
	}
}

func TestDispatchLineTooLongClosesConnection(t *testing.T) {
	addr, stop := startServer(t, nil)
	defer stop()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	long := strings.Repeat("a", RecvBufSize+100)
	if _, err := conn.Write([]byte(long + "\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	if err == nil && n > 0 {
		t.Fatalf("expected connection close without reply, got %q", buf[:n])
	}
}
