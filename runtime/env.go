package runtime

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/google/uuid"
)

type State uint8

const (
	StateEmpty State = iota
	StatePopulated
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateTornDown:
		return "torn down"
	default:
		return "?"
	}
}

// RebindPolicy decides what happens to an owned value displaced by Define or Assign.
type RebindPolicy uint8

const (
	// FreeDisplaced frees the old owned value before binding the new one.
	FreeDisplaced RebindPolicy = iota
	// RejectOwnedRebind refuses to displace an owned value.
	RejectOwnedRebind
)

// Environment is one lexical scope. It owns the owned values bound in it
// and frees them in Free. The enclosing environment is referenced, never owned.
type Environment struct {
	id        uuid.UUID
	name      string
	enclosing *Environment
	bindings  *linkedhashmap.Map
	state     State
	rebind    RebindPolicy
	logger    *slog.Logger
}

type Option func(*Environment)

func WithName(name string) Option {
	return func(e *Environment) { e.name = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithRebindPolicy(policy RebindPolicy) Option {
	return func(e *Environment) { e.rebind = policy }
}

func NewEnvironment(enclosing *Environment, opts ...Option) *Environment {
	e := &Environment{
		id:        uuid.New(),
		enclosing: enclosing,
		bindings:  linkedhashmap.New(),
		logger:    discardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.name == "" {
		e.name = e.id.String()
	}
	return e
}

func (e *Environment) ID() uuid.UUID           { return e.id }
func (e *Environment) Name() string            { return e.name }
func (e *Environment) Enclosing() *Environment { return e.enclosing }
func (e *Environment) State() State            { return e.state }
func (e *Environment) Len() int                { return e.bindings.Size() }

// Names returns the bound names in the order they were first defined.
func (e *Environment) Names() []string {
	keys := e.bindings.Keys()
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.(string)
	}
	return names
}

// Has reports whether name is bound in this scope.
func (e *Environment) Has(name string) bool {
	_, ok := e.bindings.Get(name)
	return ok
}

// Define binds name to value in this scope, replacing any previous binding.
// An owned value is moved into the environment; the caller's handle is
// invalidated.
func (e *Environment) Define(name string, value Value) error {
	if err := e.live("define", name); err != nil {
		return err
	}
	if err := e.bind(name, value); err != nil {
		return err
	}
	e.state = StatePopulated
	return nil
}

// Get returns the value bound to name in this scope. Owned bindings are
// returned as borrowed references, so the result can never be freed.
func (e *Environment) Get(name string) (Value, error) {
	if err := e.live("get", name); err != nil {
		return nil, err
	}
	v, ok := e.bindings.Get(name)
	if !ok {
		return nil, &BindingNotFoundError{Name: name, Scope: e.name}
	}
	return e.view(v.(Value)), nil
}

// Lookup resolves name in this scope and then in each enclosing scope.
func (e *Environment) Lookup(name string) (Value, error) {
	scope, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	return scope.Get(name)
}

// Assign rebinds name in the nearest scope that defines it.
func (e *Environment) Assign(name string, value Value) error {
	scope, err := e.resolve(name)
	if err != nil {
		return err
	}
	return scope.Define(name, value)
}

// Take removes an owned binding and hands its ownership to the caller, who
// becomes responsible for freeing it.
func (e *Environment) Take(name string) (*OwnedValue, error) {
	if err := e.live("take", name); err != nil {
		return nil, err
	}
	v, ok := e.bindings.Get(name)
	if !ok {
		return nil, &BindingNotFoundError{Name: name, Scope: e.name}
	}
	owned, ok := v.(*OwnedValue)
	if !ok {
		return nil, errors.Wrapf(ErrMoveReference, "move '%s'", name)
	}
	moved, err := owned.Move()
	if err != nil {
		return nil, err
	}
	e.bindings.Remove(name)
	return moved, nil
}

// TakeNearest moves name out of the nearest scope that binds it. Like Lookup,
// it fails on the first torn down scope in the chain.
func (e *Environment) TakeNearest(name string) (*OwnedValue, error) {
	scope, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	return scope.Take(name)
}

// TeardownReport lists what a teardown did, in binding order.
type TeardownReport struct {
	Scope   string
	Freed   []string
	Skipped []string
}

// Free tears the scope down: every owned value is freed exactly once and
// every reference is left alone. It may be called once; later calls fail
// with ErrUseAfterTeardown and free nothing.
func (e *Environment) Free() (TeardownReport, error) {
	report := TeardownReport{Scope: e.name}
	if err := e.live("free", ""); err != nil {
		return report, err
	}
	e.state = StateTornDown

	var errs error
	it := e.bindings.Iterator()
	for it.Next() {
		name := it.Key().(string)
		value := it.Value().(Value)
		if !value.IsOwned() {
			e.logger.Debug("not freeing reference",
				slog.String("scope", e.name),
				slog.String("name", name),
				slog.Uint64("addr", uint64(value.Addr())),
				slog.String("owner", ownerOf(value)))
			report.Skipped = append(report.Skipped, name)
			continue
		}
		if _, err := Release(value); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "freeing '%s'", name))
			continue
		}
		report.Freed = append(report.Freed, name)
	}
	e.bindings.Clear()
	e.logger.Debug("scope torn down",
		slog.String("scope", e.name),
		slog.Int("freed", len(report.Freed)),
		slog.Int("skipped", len(report.Skipped)))
	return report, errs
}

func (e *Environment) bind(name string, value Value) error {
	if value == nil {
		return violation(ErrInvalidFree, "define of '%s' with nil value", name)
	}
	if prev, ok := e.bindings.Get(name); ok {
		if displaced, ok := prev.(*OwnedValue); ok {
			if e.rebind == RejectOwnedRebind {
				return errors.Wrapf(ErrRebindOwned, "'%s' owns block %d", name, displaced.Addr())
			}
			if ref, ok := value.(RefValue); ok && ref.sameBlock(displaced.heap, displaced.addr) {
				return errors.Wrapf(ErrDanglingReference, "rebinding '%s' to a reference to its own block", name)
			}
		}
	}
	owned, isOwned := value.(*OwnedValue)
	if isOwned {
		if err := owned.check("define"); err != nil {
			return errors.Wrapf(err, "define '%s'", name)
		}
	}
	if prev, ok := e.bindings.Get(name); ok {
		if _, err := Release(prev.(Value)); err != nil {
			return errors.Wrapf(err, "freeing displaced '%s'", name)
		}
	}
	if isOwned {
		moved, err := owned.Move()
		if err != nil {
			return errors.Wrapf(err, "define '%s'", name)
		}
		value = moved
	}
	e.bindings.Put(name, value)
	return nil
}

func (e *Environment) view(v Value) Value {
	if owned, ok := v.(*OwnedValue); ok {
		return owned.Borrow(e.id)
	}
	return v
}

func (e *Environment) resolve(name string) (*Environment, error) {
	for scope := e; scope != nil; scope = scope.enclosing {
		if err := scope.live("lookup", name); err != nil {
			return nil, err
		}
		if scope.Has(name) {
			return scope, nil
		}
	}
	return nil, &BindingNotFoundError{Name: name, Scope: e.name}
}

func (e *Environment) live(op, name string) error {
	if e.state != StateTornDown {
		return nil
	}
	if name == "" {
		return errors.Wrapf(ErrUseAfterTeardown, "%s on scope %s", op, e.name)
	}
	return errors.Wrapf(ErrUseAfterTeardown, "%s '%s' on scope %s", op, name, e.name)
}

func ownerOf(v Value) string {
	if ref, ok := v.(RefValue); ok && ref.Owner() != uuid.Nil {
		return ref.Owner().String()
	}
	return ""
}
