// Package typesys implements Metagraph's type system: abstract types and
// their concrete variants, the property lattice that refines what a value
// may be used for, and typeclass inference from a runtime value.
package typesys

import (
	"fmt"
	"sync"

	"github.com/vk/metagraph/internal/metaerr"
)

// PropertyValues is a concrete assignment of property name to value, e.g.
// {"is_directed": true, "dtype": "float64"}.
type PropertyValues map[string]any

// PropertyConstraints is a (possibly partial) set of required property
// values a TypeSpec demands; unmentioned properties are unconstrained.
type PropertyConstraints map[string]any

// PropertySpec declares the domain of a set of properties: for each
// property name, the values it may legally take and its default. Order is
// preserved for deterministic Describe()/error output.
type PropertySpec struct {
	order    []string
	allowed  map[string][]any
	defaults map[string]any
}

// NewPropertySpec returns an empty PropertySpec ready for Add calls.
func NewPropertySpec() *PropertySpec {
	return &PropertySpec{
		allowed:  make(map[string][]any),
		defaults: make(map[string]any),
	}
}

// Add declares a property with its allowed values and default. It returns
// the receiver so calls can be chained during registration.
func (p *PropertySpec) Add(name string, allowed []any, def any) *PropertySpec {
	if _, exists := p.allowed[name]; !exists {
		p.order = append(p.order, name)
	}
	p.allowed[name] = allowed
	p.defaults[name] = def
	return p
}

// Names returns the declared property names in declaration order.
func (p *PropertySpec) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Defaults returns a fresh PropertyValues populated with every declared
// default.
func (p *PropertySpec) Defaults() PropertyValues {
	out := make(PropertyValues, len(p.order))
	for _, name := range p.order {
		out[name] = p.defaults[name]
	}
	return out
}

// Allows reports whether value is a legal assignment for the named
// property. An undeclared property name is always rejected.
func (p *PropertySpec) Allows(name string, value any) bool {
	allowed, ok := p.allowed[name]
	if !ok {
		return false
	}
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}

// Refines reports whether every property declared in sub is also declared
// in p with a subset (or equal) set of allowed values, satisfying
// Invariant I2 (a ConcreteType's abstract properties must refine its
// AbstractType's declared property domain).
func (p *PropertySpec) Refines(sub *PropertySpec) bool {
	for _, name := range sub.order {
		subAllowed := sub.allowed[name]
		for _, v := range subAllowed {
			if !p.Allows(name, v) {
				return false
			}
		}
	}
	return true
}

// AbstractType is a named category of value, e.g. Graph, NodeMap, EdgeMap.
type AbstractType struct {
	Name       string
	Properties *PropertySpec
}

// TypeInfo is the result of classifying a runtime value: its abstract
// properties (as declared by the AbstractType) and its concrete properties
// (implementation-specific, declared by the ConcreteType).
type TypeInfo struct {
	AbstractProps PropertyValues
	ConcreteProps PropertyValues
}

// Lookup returns the value for name, checking abstract properties first
// and falling back to concrete properties, with the bool reporting
// whether either map declared it.
func (t TypeInfo) Lookup(name string) (any, bool) {
	if v, ok := t.AbstractProps[name]; ok {
		return v, true
	}
	v, ok := t.ConcreteProps[name]
	return v, ok
}

// TypeclassPredicate reports whether a runtime value is an instance of a
// ConcreteType.
type TypeclassPredicate func(value any) bool

// TypeInfoExtractor extracts a value's abstract and concrete properties.
type TypeInfoExtractor func(value any) (TypeInfo, error)

// EqualOption configures an AssertEqual comparison (e.g. numeric
// tolerance). Plugins define their own concrete option types; the zero
// value of opts must mean "exact".
type EqualOption func(*EqualOptions)

// EqualOptions is the option bag AssertEqual implementations read from.
type EqualOptions struct {
	Tolerance float64
}

// WithTolerance allows AssertEqual implementations that compare
// floating-point data to accept a maximum absolute difference.
func WithTolerance(tol float64) EqualOption {
	return func(o *EqualOptions) { o.Tolerance = tol }
}

// ResolveEqualOptions applies opts over the zero value and returns the
// result, a convenience for ConcreteType.EqualFunc implementations.
func ResolveEqualOptions(opts ...EqualOption) EqualOptions {
	var o EqualOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EqualFunc implements ConcreteType.AssertEqual's semantic-equality rule.
type EqualFunc func(a, b any, opts ...EqualOption) error

// ConcreteTypeRef names a ConcreteType either directly or by a string name
// resolved later against a Registry — used so TypeSpec can be constructed
// before a Registry is fully finalized.
type ConcreteTypeRef interface {
	Resolve(r *Registry) (*ConcreteType, error)
}

type byName string

func (n byName) Resolve(r *Registry) (*ConcreteType, error) {
	return r.ConcreteTypeByName(string(n))
}

// ByName builds a ConcreteTypeRef resolved by name against a Registry.
func ByName(name string) ConcreteTypeRef { return byName(name) }

// ConcreteType is a named implementation bound to exactly one AbstractType.
type ConcreteType struct {
	Name          string
	Abstract      *AbstractType
	Predicate     TypeclassPredicate
	Extractor     TypeInfoExtractor
	ConcreteProps *PropertySpec
	EqualFunc     EqualFunc

	// ConflictProbe is a representative fixture value used at Registry
	// finalization to confirm no sibling ConcreteType of the same
	// AbstractType also claims it (see InferConcreteType's doc comment).
	ConflictProbe any
}

// Resolve implements ConcreteTypeRef: a *ConcreteType resolves to itself.
func (c *ConcreteType) Resolve(*Registry) (*ConcreteType, error) { return c, nil }

// IsTypeclassOf reports whether value is an instance of this concrete type.
func (c *ConcreteType) IsTypeclassOf(value any) bool {
	return c.Predicate(value)
}

// GetTypeInfo extracts value's abstract and concrete properties.
func (c *ConcreteType) GetTypeInfo(value any) (TypeInfo, error) {
	return c.Extractor(value)
}

// AssertEqual reports semantic equality of a and b under this concrete
// type's equality rule, used by tests and by the round-trip law.
func (c *ConcreteType) AssertEqual(a, b any, opts ...EqualOption) error {
	if c.EqualFunc == nil {
		return fmt.Errorf("typesys: concrete type %q declares no EqualFunc", c.Name)
	}
	return c.EqualFunc(a, b, opts...)
}

// TypeSpec constrains an argument or return position: the ConcreteType it
// must resolve to, plus any required property values.
type TypeSpec struct {
	Concrete    ConcreteTypeRef
	Constraints PropertyConstraints
}

// NewTypeSpec constructs a TypeSpec from a concrete type reference and an
// optional set of property constraints.
func NewTypeSpec(ct ConcreteTypeRef, constraints PropertyConstraints) TypeSpec {
	return TypeSpec{Concrete: ct, Constraints: constraints}
}

// Satisfies reports whether info (as produced by ResolveTarget's concrete
// type) meets every constraint in the spec. Unconstrained properties are
// free, per §4.1's property matching rule.
func (s TypeSpec) Satisfies(info TypeInfo) bool {
	for name, want := range s.Constraints {
		got, ok := info.Lookup(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ResolveTarget resolves the spec's ConcreteTypeRef against r.
func (s TypeSpec) ResolveTarget(r *Registry) (*ConcreteType, error) {
	return s.Concrete.Resolve(r)
}

// PassThroughProps is the default PropagateProps implementation used when a
// Translator declares none: properties are carried across the hop
// unchanged.
func PassThroughProps(in PropertyValues) PropertyValues {
	out := make(PropertyValues, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Registry holds every registered AbstractType and ConcreteType and
// performs typeclass inference. It is embedded inside the outer
// registry.Registry, which also owns translators and algorithms.
type Registry struct {
	mu            sync.RWMutex
	abstractTypes map[string]*AbstractType
	abstractNames []string // registration order, authoritative traversal order
	concreteTypes map[string]*ConcreteType
	byAbstract    map[string][]*ConcreteType // insertion order, per AbstractType name
	finalized     bool
}

// NewRegistry returns an empty type Registry.
func NewRegistry() *Registry {
	return &Registry{
		abstractTypes: make(map[string]*AbstractType),
		concreteTypes: make(map[string]*ConcreteType),
		byAbstract:    make(map[string][]*ConcreteType),
	}
}

// Finalize locks the registry against further registration. Called once by
// registry.Registry.Finalize.
func (r *Registry) Finalize() { r.mu.Lock(); r.finalized = true; r.mu.Unlock() }

func (r *Registry) checkMutable(kind, name string) {
	if r.finalized {
		panic(fmt.Sprintf("typesys: %s %q registered after Finalize", kind, name))
	}
}

// RegisterAbstractType declares a new AbstractType. Re-registering an
// existing name is a programmer error and panics, matching the teacher's
// "already registered" convention.
func (r *Registry) RegisterAbstractType(name string, properties *PropertySpec) (*AbstractType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkMutable("abstract type", name)
	if _, exists := r.abstractTypes[name]; exists {
		panic(fmt.Sprintf("typesys: abstract type %q already registered", name))
	}
	if properties == nil {
		properties = NewPropertySpec()
	}
	at := &AbstractType{Name: name, Properties: properties}
	r.abstractTypes[name] = at
	r.abstractNames = append(r.abstractNames, name)
	return at, nil
}

// RegisterConcreteType declares a new ConcreteType bound to abstract.
// Returns an error (rather than panicking) when abstract is nil. The
// concrete properties are stored as given; they are not checked against
// the AbstractType's property domain.
func (r *Registry) RegisterConcreteType(
	name string,
	abstract *AbstractType,
	predicate TypeclassPredicate,
	extractor TypeInfoExtractor,
	concreteProps *PropertySpec,
	equal EqualFunc,
	conflictProbe any,
) (*ConcreteType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkMutable("concrete type", name)
	if _, exists := r.concreteTypes[name]; exists {
		panic(fmt.Sprintf("typesys: concrete type %q already registered", name))
	}
	if abstract == nil {
		return nil, fmt.Errorf("typesys: concrete type %q: nil AbstractType", name)
	}
	if concreteProps == nil {
		concreteProps = NewPropertySpec()
	}
	ct := &ConcreteType{
		Name:          name,
		Abstract:      abstract,
		Predicate:     predicate,
		Extractor:     extractor,
		ConcreteProps: concreteProps,
		EqualFunc:     equal,
		ConflictProbe: conflictProbe,
	}
	r.concreteTypes[name] = ct
	r.byAbstract[abstract.Name] = append(r.byAbstract[abstract.Name], ct)
	return ct, nil
}

// AbstractTypeByName looks up a registered AbstractType.
func (r *Registry) AbstractTypeByName(name string) (*AbstractType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.abstractTypes[name]
	if !ok {
		return nil, fmt.Errorf("typesys: no such abstract type %q", name)
	}
	return at, nil
}

// ConcreteTypeByName looks up a registered ConcreteType.
func (r *Registry) ConcreteTypeByName(name string) (*ConcreteType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.concreteTypes[name]
	if !ok {
		return nil, fmt.Errorf("typesys: no such concrete type %q", name)
	}
	return ct, nil
}

// ConcreteTypesOf returns the ConcreteTypes bound to abstract, in
// registration order.
func (r *Registry) ConcreteTypesOf(abstract *AbstractType) []*ConcreteType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.byAbstract[abstract.Name]
	out := make([]*ConcreteType, len(src))
	copy(out, src)
	return out
}

// AllConcreteTypes returns every registered ConcreteType across every
// AbstractType, in registration order.
func (r *Registry) AllConcreteTypes() []*ConcreteType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ConcreteType, 0, len(r.concreteTypes))
	for _, name := range r.abstractOrder() {
		out = append(out, r.byAbstract[name]...)
	}
	return out
}

// abstractOrder returns every registered AbstractType name in registration
// order. This is the sole traversal order for AllConcreteTypes and
// InferConcreteType's "first match wins" contract, so it must not be
// derived from Go map iteration (which is randomized per-run) — it is
// instead the append-only slice built by RegisterAbstractType.
func (r *Registry) abstractOrder() []string {
	out := make([]string, len(r.abstractNames))
	copy(out, r.abstractNames)
	return out
}

// InferConcreteType tries each registered ConcreteType's predicate in
// registration order; the first match wins. Finalization (see
// registry.Registry.Finalize, step 4) has already proven via ConflictProbe
// fixtures that no two sibling ConcreteTypes claim the same representative
// value, so inference time trusts that proof instead of checking every
// candidate and erroring on ties itself.
func (r *Registry) InferConcreteType(value any) (*ConcreteType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.abstractOrder() {
		for _, ct := range r.byAbstract[name] {
			if ct.Predicate(value) {
				return ct, nil
			}
		}
	}
	return nil, &NoMatchingTypeError{Value: value}
}

// ProbeConflicts checks, for every pair of sibling ConcreteTypes sharing an
// AbstractType, that at most one of them claims the other's ConflictProbe
// fixture (and its own). Called by registry.Registry.Finalize step 4.
func (r *Registry) ProbeConflicts() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, siblings := range r.byAbstract {
		for _, ct := range siblings {
			if ct.ConflictProbe == nil {
				continue
			}
			var claimants []string
			for _, other := range siblings {
				if other.Predicate(ct.ConflictProbe) {
					claimants = append(claimants, other.Name)
				}
			}
			if len(claimants) > 1 {
				return &AmbiguousTypeError{Value: ct.ConflictProbe, Candidates: claimants}
			}
		}
	}
	return nil
}

// AmbiguousTypeError reports that two or more ConcreteTypes claim the same
// value. Defined in internal/metaerr; aliased here so call sites can keep
// writing typesys.AmbiguousTypeError.
type AmbiguousTypeError = metaerr.AmbiguousTypeError

// NoMatchingTypeError reports that no registered ConcreteType claims a
// value.
type NoMatchingTypeError = metaerr.NoMatchingTypeError

// PropertyMismatchError reports that a value cannot satisfy a required
// property even after available translations.
type PropertyMismatchError = metaerr.PropertyMismatchError
