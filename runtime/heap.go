package runtime

import (
	"io"
	"log/slog"
	"sort"
)

// Addr identifies a heap block. The zero Addr is never allocated.
type Addr uint64

type HeapStats struct {
	Allocs int
	Frees  int
	Live   int
}

// Heap hands out blocks that stay allocated until their owner frees them.
// It is not safe for concurrent use.
type Heap struct {
	blocks map[Addr]Payload
	next   Addr
	allocs int
	frees  int
	logger *slog.Logger
}

type HeapOption func(*Heap)

func WithHeapLogger(logger *slog.Logger) HeapOption {
	return func(h *Heap) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHeap(opts ...HeapOption) *Heap {
	h := &Heap{
		blocks: make(map[Addr]Payload),
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Alloc stores p in a fresh block and returns its unique owning handle.
func (h *Heap) Alloc(p Payload) *OwnedValue {
	h.next++
	h.blocks[h.next] = p
	h.allocs++
	h.logger.Debug("alloc", slog.Uint64("addr", uint64(h.next)))
	return &OwnedValue{heap: h, addr: h.next}
}

func (h *Heap) Stats() HeapStats {
	return HeapStats{Allocs: h.allocs, Frees: h.frees, Live: len(h.blocks)}
}

// LiveAddrs returns the addresses of every block not yet freed, in ascending order.
func (h *Heap) LiveAddrs() []Addr {
	addrs := make([]Addr, 0, len(h.blocks))
	for addr := range h.blocks {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

func (h *Heap) load(addr Addr) (Payload, bool) {
	p, ok := h.blocks[addr]
	return p, ok
}

func (h *Heap) release(addr Addr) error {
	if _, ok := h.blocks[addr]; !ok {
		return violation(ErrDoubleFree, "block %d is not allocated", addr)
	}
	delete(h.blocks, addr)
	h.frees++
	h.logger.Debug("free", slog.Uint64("addr", uint64(addr)))
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
