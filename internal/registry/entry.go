package registry

import (
	"context"

	"github.com/vk/metagraph/internal/typesys"
)

// Entry is the sealed interface every registration payload an
// EntryProvider yields must implement. It is never implemented outside
// this package's own entry types.
type Entry interface{ entryMarker() }

// EntryProvider is the external plugin-discovery collaborator: anything
// that can enumerate Entries for a Registry to ingest. Plugins under
// plugins/* each implement it; cmd/metagraphd aggregates them.
type EntryProvider interface {
	Entries(ctx context.Context) ([]Entry, error)
}

// AbstractTypeEntry declares a new AbstractType.
type AbstractTypeEntry struct {
	Name       string
	Properties *typesys.PropertySpec
}

func (AbstractTypeEntry) entryMarker() {}

// ConcreteTypeEntry declares a new ConcreteType bound to an AbstractType
// named AbstractName.
type ConcreteTypeEntry struct {
	Name          string
	AbstractName  string
	Predicate     typesys.TypeclassPredicate
	Extractor     typesys.TypeInfoExtractor
	ConcreteProps *typesys.PropertySpec
	Equal         typesys.EqualFunc
	ConflictProbe any
}

func (ConcreteTypeEntry) entryMarker() {}

// PropagateFunc describes how a Translator's hop transforms a value's
// property vector. A nil PropagateFunc in a TranslatorEntry defaults to
// typesys.PassThroughProps at Finalize time.
type PropagateFunc func(typesys.PropertyValues) typesys.PropertyValues

// TranslatorFunc converts a value of the translator's Src concrete type
// into one satisfying targetSpec.
type TranslatorFunc func(ctx context.Context, src any, targetSpec typesys.TypeSpec) (any, error)

// TranslatorEntry declares a Translator edge in the translation multigraph.
type TranslatorEntry struct {
	Name           string // stable identifier, e.g. "native_to_sqlite"
	SrcName        string
	DstName        string
	Cost           float64
	Fn             TranslatorFunc
	PropagateProps PropagateFunc
	Lossless       bool
}

func (TranslatorEntry) entryMarker() {}

// ParamSpec declares one parameter of an AbstractAlgorithm: its name, the
// AbstractType it must satisfy (empty AbstractName means an unrefined
// scalar/primitive), property constraints, and an optional default.
type ParamSpec struct {
	Name         string
	AbstractName string
	Constraints  typesys.PropertyConstraints
	Default      any
	HasDefault   bool
}

// AbstractAlgorithmEntry declares an algorithm's dotted name, parameter
// list, and return shape.
type AbstractAlgorithmEntry struct {
	Name               string // dotted, e.g. "centrality.pagerank"
	Params             []ParamSpec
	ReturnAbstractName string
	ReturnConstraints  typesys.PropertyConstraints
}

func (AbstractAlgorithmEntry) entryMarker() {}

// AlgoFunc is a concrete algorithm's callable implementation.
type AlgoFunc func(ctx context.Context, args ...any) (any, error)

// ConcreteAlgorithmEntry declares one implementation of an
// AbstractAlgorithm. ParamConcreteNames must have the same length as the
// AbstractAlgorithm's Params; an empty string at position i means
// parameter i is left unrefined (scalar).
type ConcreteAlgorithmEntry struct {
	Name                  string
	AbstractAlgorithmName string
	ParamConcreteNames    []string
	ReturnConcreteName    string
	Fn                    AlgoFunc
	CompilerTag           string
}

func (ConcreteAlgorithmEntry) entryMarker() {}

// WrapperFunc constructs a concrete value of AbstractName from raw
// library data.
type WrapperFunc func(raw any) (any, error)

// WrapperEntry declares a named wrapper constructor for an AbstractType.
type WrapperEntry struct {
	AbstractName string
	Name         string
	Fn           WrapperFunc
}

func (WrapperEntry) entryMarker() {}
