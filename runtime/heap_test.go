package runtime

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocAndFree(t *testing.T) {
	heap := NewHeap()
	a := heap.Alloc(IntegerValue(1))
	b := heap.Alloc(IntegerValue(2))
	c := heap.Alloc(IntegerValue(3))

	assert.Equal(t, []Addr{1, 2, 3}, heap.LiveAddrs())
	require.NoError(t, b.Free())
	assert.Equal(t, []Addr{1, 3}, heap.LiveAddrs())
	assert.Equal(t, HeapStats{Allocs: 3, Frees: 1, Live: 2}, heap.Stats())

	require.NoError(t, a.Free())
	require.NoError(t, c.Free())
	assert.Empty(t, heap.LiveAddrs())
}

func TestHeapReleaseUnknownBlock(t *testing.T) {
	heap := NewHeap()
	err := heap.release(42)
	require.ErrorIs(t, err, ErrDoubleFree)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 0, heap.Stats().Frees)
}

func TestHeapLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	heap := NewHeap(WithHeapLogger(logger))

	require.NoError(t, heap.Alloc(StringValue("x")).Free())
	assert.Contains(t, buf.String(), "msg=alloc addr=1")
	assert.Contains(t, buf.String(), "msg=free addr=1")
}
