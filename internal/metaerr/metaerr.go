// Package metaerr collects every typed error kind the resolver core
// raises, mirroring the teacher's habit of returning wrapped,
// errors.Is/errors.As-compatible sentinel types (c.f. cli.ExitError)
// rather than bare fmt.Errorf. Each kind is a distinct exported type
// carrying the offending identifier; the owning package (typesys,
// registry, planner, dispatch) aliases it so call sites keep referring
// to, say, typesys.AmbiguousTypeError without an import of this package.
package metaerr

import (
	"fmt"
	"strings"
)

// RegistryError reports a Finalize-time validation failure: what rule was
// violated (Reason) and which identifier violated it (Offending).
type RegistryError struct {
	Reason    string
	Offending string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry: %s: %s", e.Reason, e.Offending)
}

// AmbiguousTypeError reports that two or more ConcreteTypes claim the
// same value.
type AmbiguousTypeError struct {
	Value      any
	Candidates []string
}

func (e *AmbiguousTypeError) Error() string {
	return fmt.Sprintf("typesys: value %#v is claimed by multiple concrete types: %v", e.Value, e.Candidates)
}

// NoMatchingTypeError reports that no registered ConcreteType claims a
// value.
type NoMatchingTypeError struct {
	Value any
}

func (e *NoMatchingTypeError) Error() string {
	return fmt.Sprintf("typesys: no concrete type claims value of type %T", e.Value)
}

// PropertyMismatchError reports that a value cannot satisfy a required
// property even after available translations.
type PropertyMismatchError struct {
	TypeName string
	Property string
	Wanted   any
	Got      any
}

func (e *PropertyMismatchError) Error() string {
	return fmt.Sprintf("typesys: %s: property %q wanted %#v, got %#v", e.TypeName, e.Property, e.Wanted, e.Got)
}

// SignatureError reports an argument-binding failure: wrong arity, an
// unknown keyword argument, or a missing required parameter.
type SignatureError struct {
	AlgorithmName string
	Reason        string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("dispatch: %s: %s", e.AlgorithmName, e.Reason)
}

// NoTranslationPathError reports that no sequence of Translators connects
// a source ConcreteType to one satisfying a requested TypeSpec.
type NoTranslationPathError struct {
	Source string
	Target string
}

func (e *NoTranslationPathError) Error() string {
	return fmt.Sprintf("planner: no translation path from %s to %s", e.Source, e.Target)
}

// NoConcreteAlgorithmError reports that no registered ConcreteAlgorithm
// survived candidate enumeration, with a diagnostic explaining why each
// candidate was rejected.
type NoConcreteAlgorithmError struct {
	AlgorithmName string
	Diagnostics   []string
}

func (e *NoConcreteAlgorithmError) Error() string {
	return fmt.Sprintf("dispatch: no concrete algorithm for %s: %s", e.AlgorithmName, strings.Join(e.Diagnostics, "; "))
}

// ReturnTypeMismatchError reports that a concrete algorithm's return
// value did not match its declared return ConcreteType.
type ReturnTypeMismatchError struct {
	AlgorithmName string
	Expected      string
}

func (e *ReturnTypeMismatchError) Error() string {
	return fmt.Sprintf("dispatch: %s: return value does not match declared type %s", e.AlgorithmName, e.Expected)
}

