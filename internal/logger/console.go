package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleLogger implements tier 1: console/terminal logging. Structured
// logging rides on log/slog; writes are buffered asynchronously so a slow
// terminal does not block the goroutine emitting the log call while the
// buffer has room. When the buffer is full, a write goes straight to the
// terminal.
type ConsoleLogger struct {
	config  *Config
	handler slog.Handler
	writer  *bufferedWriter
}

// bufferedWriter provides async buffered writing with periodic flushing.
type bufferedWriter struct {
	writer        io.Writer
	buffer        chan []byte
	flushInterval time.Duration
	mu            sync.Mutex
	closed        bool
}

func newBufferedWriter(w io.Writer, bufferSize int, flushInterval time.Duration) *bufferedWriter {
	bw := &bufferedWriter{
		writer:        w,
		buffer:        make(chan []byte, bufferSize/256),
		flushInterval: flushInterval,
	}
	go bw.flusher()
	return bw
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return 0, fmt.Errorf("writer is closed")
	}
	bw.mu.Unlock()

	buf := make([]byte, len(p))
	copy(buf, p)

	select {
	case bw.buffer <- buf:
		return len(p), nil
	default:
		return bw.writer.Write(p)
	}
}

func (bw *bufferedWriter) flusher() {
	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case buf := <-bw.buffer:
			_, _ = bw.writer.Write(buf)
		case <-ticker.C:
			bw.drain()
		}
	}
}

func (bw *bufferedWriter) drain() {
	for {
		select {
		case buf := <-bw.buffer:
			_, _ = bw.writer.Write(buf)
		default:
			return
		}
	}
}

func (bw *bufferedWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return nil
	}
	bw.closed = true
	bw.mu.Unlock()

	bw.drain()
	return nil
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(config *Config) (*ConsoleLogger, error) {
	cl := &ConsoleLogger{config: config}

	cl.writer = newBufferedWriter(
		os.Stdout,
		config.Console.BufferSize,
		config.Console.FlushInterval,
	)

	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(cl.writer, opts)
	} else if config.Console.Color {
		handler = newColorTextHandler(cl.writer, opts)
	} else {
		handler = slog.NewTextHandler(cl.writer, opts)
	}

	cl.handler = handler
	return cl, nil
}

func (cl *ConsoleLogger) log(level LogLevel, msg string, component Component, fields map[string]interface{}) {
	record := slog.NewRecord(time.Now(), slogLevel(level), msg, 0)

	if component != "" {
		record.AddAttrs(slog.String("component", string(component)))
	}
	for k, v := range fields {
		record.AddAttrs(slog.Any(k, v))
	}

	_ = cl.handler.Handle(context.Background(), record)
}

func (cl *ConsoleLogger) Close() error {
	return cl.writer.Close()
}

// slogLevel converts a LogLevel to slog.Level. notice maps to slog's Info
// level — there is no slog.LevelNotice.
func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelNotice:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// colorTextHandler is a slog.Handler that writes each record as a JSON
// object whose level field is colored text. It is used when Format is text
// and Console.Color is set; the destination is not checked for color
// support.
type colorTextHandler struct {
	w    io.Writer
	opts *slog.HandlerOptions
	mu   sync.Mutex

	noticeColor *color.Color
	debugColor  *color.Color
	errorColor  *color.Color
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	return &colorTextHandler{
		w:           w,
		opts:        opts,
		debugColor:  color.New(color.FgCyan),
		noticeColor: color.New(color.FgGreen),
		errorColor:  color.New(color.FgRed, color.Bold),
	}
}

func (h *colorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts != nil && h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *colorTextHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf := make(map[string]interface{})
	buf["time"] = r.Time.Format(time.RFC3339)

	var levelStr string
	switch {
	case r.Level < slog.LevelInfo:
		levelStr = h.debugColor.Sprint("DEBUG")
	case r.Level < slog.LevelError:
		levelStr = h.noticeColor.Sprint("NOTICE")
	default:
		levelStr = h.errorColor.Sprint("ERROR")
	}
	buf["level"] = levelStr
	buf["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		buf[a.Key] = a.Value.Any()
		return true
	})

	data, err := json.Marshal(buf)
	if err != nil {
		return err
	}

	_, err = h.w.Write(append(data, '\n'))
	return err
}

func (h *colorTextHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *colorTextHandler) WithGroup(_ string) slog.Handler      { return h }
