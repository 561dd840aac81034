// Package registry collects plugin Entries (abstract types, concrete
// types, translators, abstract/concrete algorithms, wrappers), validates
// them against each other, and builds the indexes the planner and
// dispatcher consult: a per-AbstractType translation multigraph and an
// algorithm-name index. Modeled on the teacher's internal/registry
// package: map-of-string-to-descriptor storage, panic-on-duplicate
// registration, and a finalize-time cross-check pass.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/metagraph/internal/metaerr"
	"github.com/vk/metagraph/internal/typesys"
)

// Translator is the resolved, Finalize-time form of a TranslatorEntry: its
// Src/Dst concrete type names have been resolved to live *typesys.ConcreteType
// values.
type Translator struct {
	Name           string
	Src            *typesys.ConcreteType
	Dst            *typesys.ConcreteType
	Cost           float64
	Fn             TranslatorFunc
	PropagateProps PropagateFunc
	Lossless       bool
}

// ResolvedParam is one parameter of an AbstractAlgorithm after its
// AbstractType name has been resolved. Abstract is nil for an unrefined
// scalar parameter.
type ResolvedParam struct {
	Name        string
	Abstract    *typesys.AbstractType
	Constraints typesys.PropertyConstraints
	Default     any
	HasDefault  bool
}

// AbstractAlgorithm is the resolved form of an AbstractAlgorithmEntry.
type AbstractAlgorithm struct {
	Name              string
	Params            []ResolvedParam
	Return            *typesys.AbstractType
	ReturnConstraints typesys.PropertyConstraints
}

// ConcreteAlgorithm is the resolved form of a ConcreteAlgorithmEntry: its
// parameter and return concrete type names have been resolved to live
// *typesys.ConcreteType values (nil entries in ParamConcrete mean the
// parameter is left unrefined).
type ConcreteAlgorithm struct {
	Name          string
	Abstract      *AbstractAlgorithm
	ParamConcrete []*typesys.ConcreteType
	Return        *typesys.ConcreteType
	Fn            AlgoFunc
	CompilerTag   string
}

// Wrapper is the resolved form of a WrapperEntry.
type Wrapper struct {
	Abstract *typesys.AbstractType
	Name     string
	Fn       WrapperFunc
}

// RegistryError reports a Finalize-time validation failure: what rule was
// violated (Reason) and which identifier violated it (Offending). Defined
// in internal/metaerr; aliased here so call sites can keep writing
// registry.RegistryError.
type RegistryError = metaerr.RegistryError

// Registry collects Entries contributed by EntryProviders and, once
// Finalize succeeds, exposes immutable, read-without-locking indexes over
// them.
type Registry struct {
	Types *typesys.Registry

	mu                 sync.RWMutex
	pendingAbstract    []AbstractTypeEntry
	pendingConcrete    []ConcreteTypeEntry
	pendingTranslators []TranslatorEntry
	pendingAbsAlgos    []AbstractAlgorithmEntry
	pendingConAlgos    []ConcreteAlgorithmEntry
	pendingWrappers    []WrapperEntry

	translators     map[string]*Translator
	edgesFrom       map[string][]*Translator // keyed by source ConcreteType name
	abstractAlgos   map[string]*AbstractAlgorithm
	concreteAlgos   map[string][]*ConcreteAlgorithm // keyed by AbstractAlgorithm name
	wrappers        map[string]map[string]*Wrapper  // AbstractType name -> wrapper name -> Wrapper
	finalized       bool
}

// NewRegistry returns an empty Registry ready to Ingest Entries.
func NewRegistry() *Registry {
	return &Registry{
		Types:         typesys.NewRegistry(),
		translators:   make(map[string]*Translator),
		edgesFrom:     make(map[string][]*Translator),
		abstractAlgos: make(map[string]*AbstractAlgorithm),
		concreteAlgos: make(map[string][]*ConcreteAlgorithm),
		wrappers:      make(map[string]map[string]*Wrapper),
	}
}

// Ingest pulls every Entry out of each provider and buffers it for
// Finalize. Calling Ingest after Finalize panics, matching the teacher's
// "already registered"-class programmer-error convention.
func (r *Registry) Ingest(ctx context.Context, providers ...EntryProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		panic("registry: Ingest called after Finalize")
	}
	for _, p := range providers {
		entries, err := p.Entries(ctx)
		if err != nil {
			return fmt.Errorf("registry: ingesting provider: %w", err)
		}
		for _, e := range entries {
			switch v := e.(type) {
			case AbstractTypeEntry:
				r.pendingAbstract = append(r.pendingAbstract, v)
			case ConcreteTypeEntry:
				r.pendingConcrete = append(r.pendingConcrete, v)
			case TranslatorEntry:
				r.pendingTranslators = append(r.pendingTranslators, v)
			case AbstractAlgorithmEntry:
				r.pendingAbsAlgos = append(r.pendingAbsAlgos, v)
			case ConcreteAlgorithmEntry:
				r.pendingConAlgos = append(r.pendingConAlgos, v)
			case WrapperEntry:
				r.pendingWrappers = append(r.pendingWrappers, v)
			default:
				return fmt.Errorf("registry: unknown entry type %T", e)
			}
		}
	}
	return nil
}

// Finalize runs the six validation/build steps described in SPEC_FULL.md
// §4.2 and locks the Registry against further registration. It is the
// only place plugin-declared names are resolved into live pointers.
func (r *Registry) Finalize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		panic("registry: Finalize called twice")
	}

	for _, e := range r.pendingAbstract {
		if _, err := r.Types.RegisterAbstractType(e.Name, e.Properties); err != nil {
			return &RegistryError{Reason: "abstract type registration failed", Offending: e.Name}
		}
	}

	// Step 1: every ConcreteType references a known AbstractType.
	for _, e := range r.pendingConcrete {
		abstract, err := r.Types.AbstractTypeByName(e.AbstractName)
		if err != nil {
			return &RegistryError{Reason: "concrete type references unknown abstract type " + e.AbstractName, Offending: e.Name}
		}
		if _, err := r.Types.RegisterConcreteType(e.Name, abstract, e.Predicate, e.Extractor, e.ConcreteProps, e.Equal, e.ConflictProbe); err != nil {
			return &RegistryError{Reason: "concrete type registration failed", Offending: e.Name}
		}
	}

	// Step 2: every Translator's Src and Dst belong to the same AbstractType.
	for _, e := range r.pendingTranslators {
		src, err := r.Types.ConcreteTypeByName(e.SrcName)
		if err != nil {
			return &RegistryError{Reason: "translator references unknown source concrete type " + e.SrcName, Offending: e.Name}
		}
		dst, err := r.Types.ConcreteTypeByName(e.DstName)
		if err != nil {
			return &RegistryError{Reason: "translator references unknown destination concrete type " + e.DstName, Offending: e.Name}
		}
		if src.Abstract != dst.Abstract {
			return &RegistryError{Reason: "translator crosses abstract types", Offending: e.Name}
		}
		if _, exists := r.translators[e.Name]; exists {
			panic(fmt.Sprintf("registry: translator %q already registered", e.Name))
		}
		propagate := e.PropagateProps
		cost := e.Cost
		if cost == 0 {
			cost = 1
		}
		t := &Translator{
			Name:           e.Name,
			Src:            src,
			Dst:            dst,
			Cost:           cost,
			Fn:             e.Fn,
			PropagateProps: wrapPropagate(propagate),
			Lossless:       e.Lossless,
		}
		r.translators[e.Name] = t
		r.edgesFrom[src.Name] = append(r.edgesFrom[src.Name], t)
	}

	for _, e := range r.pendingAbsAlgos {
		params := make([]ResolvedParam, len(e.Params))
		for i, p := range e.Params {
			var abstract *typesys.AbstractType
			if p.AbstractName != "" {
				var err error
				abstract, err = r.Types.AbstractTypeByName(p.AbstractName)
				if err != nil {
					return &RegistryError{Reason: "parameter references unknown abstract type " + p.AbstractName, Offending: e.Name}
				}
			}
			params[i] = ResolvedParam{
				Name:        p.Name,
				Abstract:    abstract,
				Constraints: p.Constraints,
				Default:     p.Default,
				HasDefault:  p.HasDefault,
			}
		}
		var ret *typesys.AbstractType
		if e.ReturnAbstractName != "" {
			var err error
			ret, err = r.Types.AbstractTypeByName(e.ReturnAbstractName)
			if err != nil {
				return &RegistryError{Reason: "return references unknown abstract type " + e.ReturnAbstractName, Offending: e.Name}
			}
		}
		if _, exists := r.abstractAlgos[e.Name]; exists {
			panic(fmt.Sprintf("registry: abstract algorithm %q already registered", e.Name))
		}
		r.abstractAlgos[e.Name] = &AbstractAlgorithm{
			Name:              e.Name,
			Params:            params,
			Return:            ret,
			ReturnConstraints: e.ReturnConstraints,
		}
	}

	// Step 3: every ConcreteAlgorithm implements a known AbstractAlgorithm
	// with a compatible parameter shape.
	for _, e := range r.pendingConAlgos {
		aa, ok := r.abstractAlgos[e.AbstractAlgorithmName]
		if !ok {
			return &RegistryError{Reason: "concrete algorithm implements unknown abstract algorithm " + e.AbstractAlgorithmName, Offending: e.Name}
		}
		if len(e.ParamConcreteNames) != len(aa.Params) {
			return &RegistryError{Reason: "concrete algorithm arity mismatch", Offending: e.Name}
		}
		paramConcrete := make([]*typesys.ConcreteType, len(e.ParamConcreteNames))
		for i, name := range e.ParamConcreteNames {
			if name == "" {
				if aa.Params[i].Abstract != nil {
					return &RegistryError{Reason: "concrete algorithm leaves a typed parameter unrefined", Offending: e.Name}
				}
				continue
			}
			ct, err := r.Types.ConcreteTypeByName(name)
			if err != nil {
				return &RegistryError{Reason: "concrete algorithm references unknown concrete type " + name, Offending: e.Name}
			}
			if aa.Params[i].Abstract == nil || ct.Abstract != aa.Params[i].Abstract {
				return &RegistryError{Reason: "concrete algorithm parameter abstract type mismatch", Offending: e.Name}
			}
			paramConcrete[i] = ct
		}
		var ret *typesys.ConcreteType
		if e.ReturnConcreteName != "" {
			var err error
			ret, err = r.Types.ConcreteTypeByName(e.ReturnConcreteName)
			if err != nil {
				return &RegistryError{Reason: "concrete algorithm references unknown return concrete type " + e.ReturnConcreteName, Offending: e.Name}
			}
			if aa.Return != nil && ret.Abstract != aa.Return {
				return &RegistryError{Reason: "concrete algorithm return abstract type mismatch", Offending: e.Name}
			}
		}
		ca := &ConcreteAlgorithm{
			Name:          e.Name,
			Abstract:      aa,
			ParamConcrete: paramConcrete,
			Return:        ret,
			Fn:            e.Fn,
			CompilerTag:   e.CompilerTag,
		}
		r.concreteAlgos[aa.Name] = append(r.concreteAlgos[aa.Name], ca)
	}

	for _, e := range r.pendingWrappers {
		abstract, err := r.Types.AbstractTypeByName(e.AbstractName)
		if err != nil {
			return &RegistryError{Reason: "wrapper references unknown abstract type " + e.AbstractName, Offending: e.Name}
		}
		if _, ok := r.wrappers[e.AbstractName]; !ok {
			r.wrappers[e.AbstractName] = make(map[string]*Wrapper)
		}
		r.wrappers[e.AbstractName][e.Name] = &Wrapper{Abstract: abstract, Name: e.Name, Fn: e.Fn}
	}

	// Step 4: ConflictProbe fixtures prove InferConcreteType's uniqueness
	// assumption before anything reads from the registry.
	if err := r.Types.ProbeConflicts(); err != nil {
		return &RegistryError{Reason: err.Error(), Offending: "conflict probe"}
	}

	// Step 5 (the translation multigraph) is already built incrementally
	// above as r.edgesFrom; step 6 (algorithm name index) as
	// r.concreteAlgos. Sort candidate lists for deterministic tie-break
	// iteration order in the dispatcher.
	for name, cands := range r.concreteAlgos {
		sort.Slice(cands, func(i, j int) bool { return cands[i].Name < cands[j].Name })
		r.concreteAlgos[name] = cands
	}

	r.Types.Finalize()
	r.finalized = true
	return nil
}

func wrapPropagate(fn PropagateFunc) PropagateFunc {
	if fn != nil {
		return fn
	}
	return func(in typesys.PropertyValues) typesys.PropertyValues {
		return typesys.PassThroughProps(in)
	}
}

// EdgesFrom returns the translation multigraph's outgoing edges from ct,
// in registration order. Used by the planner's Dijkstra search.
func (r *Registry) EdgesFrom(ct *typesys.ConcreteType) []*Translator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.edgesFrom[ct.Name]
	out := make([]*Translator, len(src))
	copy(out, src)
	return out
}

// AbstractAlgorithmByName looks up a registered AbstractAlgorithm.
func (r *Registry) AbstractAlgorithmByName(name string) (*AbstractAlgorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aa, ok := r.abstractAlgos[name]
	if !ok {
		return nil, fmt.Errorf("registry: no such abstract algorithm %q", name)
	}
	return aa, nil
}

// CandidatesFor returns every registered ConcreteAlgorithm implementing
// the named AbstractAlgorithm, in deterministic (lexicographic) order.
func (r *Registry) CandidatesFor(abstractAlgorithmName string) []*ConcreteAlgorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.concreteAlgos[abstractAlgorithmName]
	out := make([]*ConcreteAlgorithm, len(src))
	copy(out, src)
	return out
}

// WrapperFor looks up a named wrapper constructor for an AbstractType.
func (r *Registry) WrapperFor(abstractName, wrapperName string) (*Wrapper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName, ok := r.wrappers[abstractName]
	if !ok {
		return nil, fmt.Errorf("registry: no wrappers registered for abstract type %q", abstractName)
	}
	w, ok := byName[wrapperName]
	if !ok {
		return nil, fmt.Errorf("registry: no wrapper %q for abstract type %q", wrapperName, abstractName)
	}
	return w, nil
}
