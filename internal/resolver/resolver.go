// Package resolver is the user-facing façade binding a finalized Registry
// and a resolverconfig.Config to the call syntax described in
// SPEC_FULL.md §6. Modeled on the teacher's internal/app.App: a thin
// struct wiring registry + config + logger behind a handful of public
// methods.
package resolver

import (
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/dispatch"
	"github.com/vk/metagraph/internal/lazy"
	"github.com/vk/metagraph/internal/plan"
	"github.com/vk/metagraph/internal/planner"
	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/resolverconfig"
	"github.com/vk/metagraph/internal/typesys"
)

// Resolver binds a finalized Registry to user call syntax. Go has no
// attribute-based resolver.algos.group.name navigation (SPEC_FULL.md §9
// explicitly rules out reproducing reflective attribute access); dotted
// algorithm names are looked up through AlgoHandle/PlanHandle instead.
type Resolver struct {
	reg   *registry.Registry
	cfg   resolverconfig.Config
	graph *lazy.Graph
}

// New binds reg (already Finalize-d) to cfg.
func New(reg *registry.Registry, cfg resolverconfig.Config) *Resolver {
	return &Resolver{
		reg:   reg,
		cfg:   cfg,
		graph: lazy.NewGraph(reg, cfg.StrictReturnTypeCheck),
	}
}

// AlgoHandle is a callable handle on one dotted abstract algorithm name.
type AlgoHandle struct {
	r    *Resolver
	name string
}

// Algos returns a callable handle on the algorithm named "group.name".
func (r *Resolver) Algos(group, name string) AlgoHandle {
	return AlgoHandle{r: r, name: group + "." + name}
}

// Call dispatches and, in eager mode, executes immediately; in lazy mode
// it returns a *lazy.Placeholder instead of a materialized value.
func (h AlgoHandle) Call(ctx context.Context, args ...any) (any, error) {
	p, err := dispatch.Dispatch(ctx, h.r.reg, h.name, args, nil)
	if err != nil {
		return nil, err
	}
	if h.r.cfg.Lazy {
		return h.r.graph.GetOrCreate(p, args)
	}
	return dispatch.Execute(ctx, h.r.reg, p, args, nil, h.r.cfg.StrictReturnTypeCheck)
}

// PlanHandle is a callable handle that dispatches without executing.
type PlanHandle struct {
	r    *Resolver
	name string
}

// Plan returns a callable handle that only dispatches.
func (r *Resolver) Plan(group, name string) PlanHandle {
	return PlanHandle{r: r, name: group + "." + name}
}

// Call dispatches abstractAlgorithmName against args and returns the
// resulting Plan without executing it.
func (h PlanHandle) Call(ctx context.Context, args ...any) (*plan.Plan, error) {
	return dispatch.Dispatch(ctx, h.r.reg, h.name, args, nil)
}

func mergeProps(info typesys.TypeInfo) typesys.PropertyValues {
	merged := make(typesys.PropertyValues, len(info.AbstractProps)+len(info.ConcreteProps))
	for k, v := range info.AbstractProps {
		merged[k] = v
	}
	for k, v := range info.ConcreteProps {
		merged[k] = v
	}
	return merged
}

// Translate plans and executes a translation of value to a ConcreteType
// satisfying target.
func (r *Resolver) Translate(ctx context.Context, value any, target typesys.TypeSpec) (any, error) {
	chain, err := r.PlanTranslate(ctx, value, target)
	if err != nil {
		return nil, err
	}
	cur := value
	for _, hop := range chain.Hops {
		spec := typesys.NewTypeSpec(hop.Dst, nil)
		cur, err = hop.Fn(ctx, cur, spec)
		if err != nil {
			return nil, fmt.Errorf("resolver: translating: %w", err)
		}
	}
	return cur, nil
}

// PlanTranslate returns the least-cost TranslationChain moving value to a
// ConcreteType satisfying target, without executing it.
func (r *Resolver) PlanTranslate(ctx context.Context, value any, target typesys.TypeSpec) (*planner.TranslationChain, error) {
	ct, err := r.reg.Types.InferConcreteType(value)
	if err != nil {
		return nil, err
	}
	info, err := ct.GetTypeInfo(value)
	if err != nil {
		return nil, err
	}
	return planner.PlanTranslation(ctx, r.reg, ct, target, mergeProps(info))
}

// Types exposes navigable lookup of AbstractType/ConcreteType by name.
func (r *Resolver) Types() *typesys.Registry { return r.reg.Types }

// Wrappers returns the named wrapper constructor for an AbstractType.
func (r *Resolver) Wrappers(abstractTypeName, wrapperName string) (registry.WrapperFunc, error) {
	w, err := r.reg.WrapperFor(abstractTypeName, wrapperName)
	if err != nil {
		return nil, err
	}
	return w.Fn, nil
}

// ComputeAll materializes every placeholder, sharing work across their
// dependency graphs and fanning independent roots out concurrently.
func (r *Resolver) ComputeAll(ctx context.Context, placeholders ...*lazy.Placeholder) ([]any, error) {
	return lazy.ComputeAll(ctx, r.graph, r.cfg.WorkerCount, placeholders...)
}
