package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/jcrq/internal/queryir"
)

// UnresolvedPropertyError reports a property with no column mapping for the
// query's content type.
type UnresolvedPropertyError struct {
	Property   string
	SourceType string
}

func (e *UnresolvedPropertyError) Error() string {
	return fmt.Sprintf("unresolved property %q for content type %q", e.Property, e.SourceType)
}

// UnresolvedTypeError reports a content type name unknown to the
// configuration, either as query source or as a jcr:primaryType value.
type UnresolvedTypeError struct {
	TypeName string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("unresolved content type %q", e.TypeName)
}

// UnsupportedError reports a well-formed construct the compiler cannot
// translate, such as ordering comparisons on jcr:primaryType.
type UnsupportedError struct {
	Property string
	Op       queryir.CompareOp
	Reason   string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported comparison %s %s: %s", e.Property, e.Op, e.Reason)
}

// ErrNoExpander is returned for path predicates when the compiler has no
// folder expander.
var ErrNoExpander = errors.New("no folder expander configured")

// ExpandError reports a failed folder lookup for a path predicate.
type ExpandError struct {
	Path string
	Err  error
}

func (e *ExpandError) Error() string {
	return fmt.Sprintf("expand path '%s': %v", e.Path, e.Err)
}

func (e *ExpandError) Unwrap() error {
	return e.Err
}

// IsExpandError returns true if err is or wraps an *ExpandError.
func IsExpandError(err error) bool {
	var ee *ExpandError
	return errors.As(err, &ee)
}

// IsUnresolvedProperty returns true if err is or wraps an
// *UnresolvedPropertyError.
func IsUnresolvedProperty(err error) bool {
	var upe *UnresolvedPropertyError
	return errors.As(err, &upe)
}

// IsUnresolvedType returns true if err is or wraps an *UnresolvedTypeError.
func IsUnresolvedType(err error) bool {
	var ute *UnresolvedTypeError
	return errors.As(err, &ute)
}

// IsUnsupported returns true if err is or wraps an *UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}
