package runtime

import (
	"fmt"

	"github.com/google/uuid"
)

type Ownership uint8

const (
	Owned Ownership = iota
	Reference
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Reference:
		return "reference"
	default:
		return "?"
	}
}

// Value is a handle to runtime data. It is either an *OwnedValue, which
// carries the right to free its block, or a RefValue, which does not.
type Value interface {
	fmt.Stringer
	Ownership() Ownership
	IsOwned() bool
	// Addr is the heap block behind the value, or 0 for constants.
	Addr() Addr
	Load() (Payload, error)
	sealed()
}

type handleState uint8

const (
	handleLive handleState = iota
	handleMoved
	handleFreed
)

// OwnedValue is the unique owning handle of one heap block. Moving or
// freeing it invalidates the handle.
type OwnedValue struct {
	heap  *Heap
	addr  Addr
	state handleState
}

func (o *OwnedValue) Ownership() Ownership { return Owned }
func (o *OwnedValue) IsOwned() bool        { return true }
func (o *OwnedValue) Addr() Addr           { return o.addr }
func (o *OwnedValue) sealed()              {}

// Live reports whether the handle still owns its block.
func (o *OwnedValue) Live() bool {
	return o != nil && o.state == handleLive
}

func (o *OwnedValue) Load() (Payload, error) {
	if err := o.check("load"); err != nil {
		return nil, err
	}
	p, ok := o.heap.load(o.addr)
	if !ok {
		return nil, violation(ErrUseAfterFree, "owned block %d is no longer allocated", o.addr)
	}
	return p, nil
}

// Free releases the block. It succeeds at most once per block.
func (o *OwnedValue) Free() error {
	if o == nil {
		return violation(ErrInvalidFree, "free of nil owned value")
	}
	if o.state == handleFreed {
		return violation(ErrDoubleFree, "block %d already freed through this handle", o.addr)
	}
	if err := o.check("free"); err != nil {
		return err
	}
	o.state = handleFreed
	return o.heap.release(o.addr)
}

// Move transfers ownership to a new handle. The receiver can no longer be
// loaded, freed or moved.
func (o *OwnedValue) Move() (*OwnedValue, error) {
	if err := o.check("move"); err != nil {
		return nil, err
	}
	o.state = handleMoved
	return &OwnedValue{heap: o.heap, addr: o.addr}, nil
}

// Borrow returns a non-owning view of the block. owner names the scope
// responsible for freeing it and may be uuid.Nil.
func (o *OwnedValue) Borrow(owner uuid.UUID) RefValue {
	return RefValue{heap: o.heap, addr: o.addr, owner: owner}
}

func (o *OwnedValue) String() string {
	return fmt.Sprintf("owned(%d)", o.addr)
}

func (o *OwnedValue) check(op string) error {
	switch {
	case o == nil:
		return violation(ErrInvalidFree, "%s of nil owned value", op)
	case o.state == handleMoved:
		return violation(ErrInvalidFree, "%s of moved handle for block %d", op, o.addr)
	case o.state == handleFreed:
		return violation(ErrUseAfterFree, "%s of freed block %d", op, o.addr)
	}
	return nil
}

// RefValue aliases memory owned elsewhere, or holds a literal constant.
// It has no way to free anything.
type RefValue struct {
	heap  *Heap
	addr  Addr
	owner uuid.UUID
	konst Payload
}

// Const wraps a literal or shared constant as a reference.
func Const(p Payload) RefValue {
	return RefValue{konst: p}
}

func (r RefValue) Ownership() Ownership { return Reference }
func (r RefValue) IsOwned() bool        { return false }
func (r RefValue) Addr() Addr           { return r.addr }
func (r RefValue) sealed()              {}

// Owner is the scope that owns the referenced block, or uuid.Nil if unknown.
func (r RefValue) Owner() uuid.UUID { return r.owner }

func (r RefValue) IsConst() bool { return r.heap == nil }

func (r RefValue) sameBlock(heap *Heap, addr Addr) bool {
	return r.heap != nil && r.heap == heap && r.addr == addr
}

func (r RefValue) Load() (Payload, error) {
	if r.heap == nil {
		return r.konst, nil
	}
	p, ok := r.heap.load(r.addr)
	if !ok {
		return nil, violation(ErrDanglingReference, "reference to freed block %d", r.addr)
	}
	return p, nil
}

func (r RefValue) String() string {
	if r.heap == nil {
		return fmt.Sprintf("const(%s)", r.konst)
	}
	return fmt.Sprintf("ref(%d)", r.addr)
}

// Release frees v if it is owned and does nothing for references.
func Release(v Value) (bool, error) {
	o, ok := v.(*OwnedValue)
	if !ok {
		return false, nil
	}
	if err := o.Free(); err != nil {
		return false, err
	}
	return true, nil
}
