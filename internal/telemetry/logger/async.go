package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of records an AsyncWriter buffers.
const DefaultQueueSize = 1024

// AsyncWriter hands records to a background goroutine that writes them to
// the underlying writer, so callers never block on disk I/O.
//
// When the queue is full the record is dropped and counted. Write errors of
// the underlying writer are ignored.
type AsyncWriter struct {
	out     io.Writer
	queue   chan []byte
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewAsyncWriter starts a writer with room for size pending records.
func NewAsyncWriter(out io.Writer, size int) *AsyncWriter {
	if size <= 0 {
		size = DefaultQueueSize
	}

	w := &AsyncWriter{
		out:   out,
		queue: make(chan []byte, size),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// OpenFile opens path for appending, creating it and its parent directory
// if needed, behind an AsyncWriter.
func OpenFile(path string, size int) (*AsyncWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return NewAsyncWriter(f, size), nil
}

// Write enqueues a copy of p. It never blocks and never fails.
func (w *AsyncWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		return len(p), nil
	}

	b := make([]byte, len(p))
	copy(b, p)

	select {
	case w.queue <- b:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Sync is a no-op; pending records are flushed by Close.
func (w *AsyncWriter) Sync() error {
	return nil
}

// Dropped returns the number of records discarded so far.
func (w *AsyncWriter) Dropped() uint64 {
	return w.dropped.Load()
}

// Close stops accepting records, writes everything still queued and closes
// the underlying writer if it is an io.Closer.
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done

	if c, ok := w.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for b := range w.queue {
		_, _ = w.out.Write(b)
	}
}
