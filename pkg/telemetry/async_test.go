package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/telemetry"
)

type captureWriter struct {
	mu      sync.Mutex
	batches [][]telemetry.Entry
}

func (w *captureWriter) WriteBatch(_ context.Context, entries []telemetry.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := make([]telemetry.Entry, len(entries))
	copy(batch, entries)
	w.batches = append(w.batches, batch)
	return nil
}

func (w *captureWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func (w *captureWriter) batchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batches)
}

func entryFor(provider string) telemetry.Entry {
	return telemetry.NewEntry(uuid.New(), provider, "send", telemetry.StatusSuccess, 5*time.Millisecond)
}

func TestAsyncRecorder(t *testing.T) {
	t.Parallel()

	t.Run("batches up to batch size", func(t *testing.T) {
		t.Parallel()

		writer := &captureWriter{}
		rec, closeFn := telemetry.NewAsyncRecorder(writer, telemetry.AsyncOptions{
			BufferSize:   100,
			BatchSize:    5,
			BatchTimeout: time.Hour,
		})
		t.Cleanup(func() { _ = closeFn(context.Background()) })

		ctx := context.Background()
		for range 5 {
			require.NoError(t, rec.Record(ctx, entryFor("email")))
		}

		require.Eventually(t, func() bool {
			return writer.total() == 5
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, 1, writer.batchCount(), "a full batch flushes as one write")
	})

	t.Run("timeout flushes partial batches", func(t *testing.T) {
		t.Parallel()

		writer := &captureWriter{}
		rec, closeFn := telemetry.NewAsyncRecorder(writer, telemetry.AsyncOptions{
			BufferSize:   100,
			BatchSize:    100,
			BatchTimeout: 20 * time.Millisecond,
		})
		t.Cleanup(func() { _ = closeFn(context.Background()) })

		require.NoError(t, rec.Record(context.Background(), entryFor("sms")))

		require.Eventually(t, func() bool {
			return writer.total() == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("close drains buffered entries", func(t *testing.T) {
		t.Parallel()

		writer := &captureWriter{}
		rec, closeFn := telemetry.NewAsyncRecorder(writer, telemetry.AsyncOptions{
			BufferSize:   100,
			BatchSize:    100,
			BatchTimeout: time.Hour,
		})

		ctx := context.Background()
		for range 7 {
			require.NoError(t, rec.Record(ctx, entryFor("search")))
		}
		require.NoError(t, closeFn(ctx))

		assert.Equal(t, 7, writer.total())
	})

	t.Run("full buffer falls back to a synchronous write", func(t *testing.T) {
		t.Parallel()

		writer := &captureWriter{}
		rec, closeFn := telemetry.NewAsyncRecorder(writer, telemetry.AsyncOptions{
			BufferSize:   1,
			BatchSize:    100,
			BatchTimeout: time.Hour,
		})

		ctx := context.Background()
		// Stuff the channel, then overflow it. The overflow entry goes
		// straight to the writer on the caller's goroutine.
		require.NoError(t, rec.Record(ctx, entryFor("storage")))
		overflowed := false
		for range 1000 {
			require.NoError(t, rec.Record(ctx, entryFor("storage")))
			if writer.total() > 0 {
				overflowed = true
				break
			}
		}
		assert.True(t, overflowed, "overflow must bypass the buffer")

		require.NoError(t, closeFn(ctx))
	})

	t.Run("record after close fails", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := telemetry.NewAsyncRecorder(&captureWriter{}, telemetry.AsyncOptions{})
		require.NoError(t, closeFn(context.Background()))

		err := rec.Record(context.Background(), entryFor("email"))
		assert.ErrorIs(t, err, telemetry.ErrRecorderClosed)
	})
}
