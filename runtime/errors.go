package runtime

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrBindingNotFound is matched by every *BindingNotFoundError.
	ErrBindingNotFound = errors.New("binding not found")

	// ErrUseAfterTeardown is returned by any operation on a torn down environment.
	ErrUseAfterTeardown = errors.New("use after teardown")

	// ErrRebindOwned is returned when a scope refuses to displace an owned binding.
	ErrRebindOwned = errors.New("rebind of owned binding")

	// ErrMoveReference is returned when a move names a binding that owns nothing.
	ErrMoveReference = errors.New("a reference cannot be moved")

	// The ownership violations below are always assertion failures.
	ErrDoubleFree        = errors.New("double free")
	ErrInvalidFree       = errors.New("invalid free")
	ErrUseAfterFree      = errors.New("use after free")
	ErrDanglingReference = errors.New("dangling reference")
)

// BindingNotFoundError reports a lookup of a name that has no binding.
type BindingNotFoundError struct {
	Name  string
	Scope string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("'%s' is not defined", e.Name)
}

func (e *BindingNotFoundError) Is(target error) bool {
	return target == ErrBindingNotFound
}

// violation builds a fatal ownership error that matches sentinel via errors.Is.
func violation(sentinel error, format string, args ...any) error {
	return errors.WithAssertionFailure(errors.Wrapf(sentinel, format, args...))
}

// IsFatal reports whether err signals a broken ownership invariant rather
// than a recoverable runtime condition.
func IsFatal(err error) bool {
	return errors.HasAssertionFailure(err)
}
