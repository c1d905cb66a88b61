package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRecorderClosed is returned when recording after Close.
var ErrRecorderClosed = errors.New("telemetry.errors.recorder_closed")

// BatchWriter provides bulk storage for telemetry entries.
// Implementations should optimize for batch inserts (CopyFrom,
// InsertMany) and be atomic per batch.
type BatchWriter interface {
	WriteBatch(ctx context.Context, entries []Entry) error
}

// AsyncOptions tunes batching behavior: the tradeoff between memory,
// latency, and storage round trips.
type AsyncOptions struct {
	BufferSize   int           // Entries queued in memory before the sync fallback kicks in.
	BatchSize    int           // Target entries per storage write.
	BatchTimeout time.Duration // Max wait before a partial batch is flushed.
	WriteTimeout time.Duration // Per-batch storage timeout.
}

// AsyncRecorder batches entries in a background worker before handing
// them to a BatchWriter. Recording is non-blocking while buffer space
// remains; a full buffer degrades to a synchronous write so entries are
// never dropped.
type AsyncRecorder struct {
	writer  BatchWriter
	entries chan Entry
	done    chan struct{}
	wg      sync.WaitGroup
	opts    AsyncOptions
}

// NewAsyncRecorder starts the batching worker and returns the recorder
// together with its close function. Close flushes remaining entries.
func NewAsyncRecorder(writer BatchWriter, opts AsyncOptions) (*AsyncRecorder, func(context.Context) error) {
	if writer == nil {
		panic("telemetry: batch writer cannot be nil")
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	ar := &AsyncRecorder{
		writer:  writer,
		entries: make(chan Entry, opts.BufferSize),
		done:    make(chan struct{}),
		opts:    opts,
	}

	ar.wg.Add(1)
	go ar.worker()

	return ar, ar.Close
}

// Record queues the entry for the next batch. When the buffer is full
// the write happens synchronously instead, trading latency for
// completeness.
func (ar *AsyncRecorder) Record(ctx context.Context, e Entry) error {
	select {
	case <-ar.done:
		return ErrRecorderClosed
	default:
	}

	select {
	case ar.entries <- e:
		return nil
	default:
		return ar.writer.WriteBatch(ctx, []Entry{e})
	}
}

func (ar *AsyncRecorder) worker() {
	defer ar.wg.Done()

	batch := make([]Entry, 0, ar.opts.BatchSize)
	ticker := time.NewTicker(ar.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Storage writes use their own deadline, detached from any request
		// context, so caller timeouts cannot cascade into the sink.
		ctx, cancel := context.WithTimeout(context.Background(), ar.opts.WriteTimeout)
		_ = ar.writer.WriteBatch(ctx, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case e := <-ar.entries:
			batch = append(batch, e)
			if len(batch) >= ar.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ar.done:
			// Drain whatever is still queued, then final flush.
			for {
				select {
				case e := <-ar.entries:
					batch = append(batch, e)
					if len(batch) >= ar.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops the worker and flushes buffered entries.
func (ar *AsyncRecorder) Close(ctx context.Context) error {
	select {
	case <-ar.done:
		return nil
	default:
		close(ar.done)
	}

	finished := make(chan struct{})
	go func() {
		ar.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
