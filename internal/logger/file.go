package logger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger implements tier 2: rotated file logging via lumberjack, with
// async channel buffering and batched writes.
type FileLogger struct {
	config    *Config
	logger    *lumberjack.Logger
	buffer    chan *LogEntry
	batchBuf  []*LogEntry
	closeChan chan struct{}
	wg        sync.WaitGroup
}

// NewFileLogger creates a new file logger.
func NewFileLogger(config *Config) (*FileLogger, error) {
	if !config.File.Enabled {
		return nil, fmt.Errorf("file logging is not enabled")
	}

	lumber := &lumberjack.Logger{
		Filename:   config.File.Path,
		MaxSize:    config.File.MaxSizeMB,
		MaxBackups: config.File.MaxBackups,
		MaxAge:     config.File.MaxAgeDays,
		Compress:   config.File.Compress,
	}

	fl := &FileLogger{
		config:    config,
		logger:    lumber,
		buffer:    make(chan *LogEntry, config.File.BufferSize),
		batchBuf:  make([]*LogEntry, 0, config.File.BatchSize),
		closeChan: make(chan struct{}),
	}

	fl.wg.Add(1)
	go fl.batchWriter()

	return fl, nil
}

func (fl *FileLogger) log(level LogLevel, msg string, component Component, fields map[string]interface{}) {
	entry := &LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Component: component,
		Fields:    fields,
	}
	if connID, ok := fields["conn_id"].(string); ok {
		entry.ConnID = connID
	}
	if err, ok := fields["error"]; ok {
		entry.Error = fmt.Sprintf("%v", err)
	}

	select {
	case fl.buffer <- entry:
	default:
		// buffer full: drop rather than block the caller
	}
}

func (fl *FileLogger) batchWriter() {
	defer fl.wg.Done()

	ticker := time.NewTicker(fl.config.File.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-fl.buffer:
			fl.batchBuf = append(fl.batchBuf, entry)
			if len(fl.batchBuf) >= fl.config.File.BatchSize {
				fl.flush()
			}
		case <-ticker.C:
			if len(fl.batchBuf) > 0 {
				fl.flush()
			}
		case <-fl.closeChan:
			if len(fl.batchBuf) > 0 {
				fl.flush()
			}
			return
		}
	}
}

func (fl *FileLogger) flush() {
	if len(fl.batchBuf) == 0 {
		return
	}

	for _, entry := range fl.batchBuf {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		_, _ = fl.logger.Write(append(data, '\n'))
	}

	fl.batchBuf = fl.batchBuf[:0]
}

// Close flushes and closes the file logger.
func (fl *FileLogger) Close() error {
	close(fl.closeChan)
	fl.wg.Wait()

	if err := fl.logger.Close(); err != nil {
		return fmt.Errorf("failed to close file logger: %w", err)
	}
	return nil
}

// Rotate triggers manual log rotation.
func (fl *FileLogger) Rotate() error {
	return fl.logger.Rotate()
}
