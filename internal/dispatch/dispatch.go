// Package dispatch resolves an abstract algorithm call against concrete
// argument values: it binds arguments to the declared parameter list,
// classifies each argument's concrete type, enumerates and costs every
// viable concrete implementation, and either returns the winning Plan
// (Dispatch, a pure decision with no side effects) or runs it (Execute).
// Modeled on the teacher's internal/dag/node_runner.go
// executeStepNode/executeResourceNode pair: look up a registered handler
// by name, validate/translate its inputs, reflect-invoke it, validate its
// output.
package dispatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/metagraph/internal/ctxlog"
	"github.com/vk/metagraph/internal/metaerr"
	"github.com/vk/metagraph/internal/plan"
	"github.com/vk/metagraph/internal/planner"
	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// SignatureError reports an argument-binding failure: wrong arity, an
// unknown keyword argument, or a missing required parameter. Defined in
// internal/metaerr; aliased here so call sites can keep writing
// dispatch.SignatureError.
type SignatureError = metaerr.SignatureError

// NoConcreteAlgorithmError reports that no registered ConcreteAlgorithm
// survived candidate enumeration, with a diagnostic explaining why each
// candidate was rejected.
type NoConcreteAlgorithmError = metaerr.NoConcreteAlgorithmError

// ReturnTypeMismatchError reports that a concrete algorithm's return
// value did not match its declared return ConcreteType.
type ReturnTypeMismatchError = metaerr.ReturnTypeMismatchError

// bind combines positional args and keyword kwargs into a slice aligned
// with aa.Params, applying declared defaults and validating arity.
func bind(aa *registry.AbstractAlgorithm, args []any, kwargs map[string]any) ([]any, error) {
	if len(args) > len(aa.Params) {
		return nil, &SignatureError{AlgorithmName: aa.Name, Reason: "too many positional arguments"}
	}
	bound := make([]any, len(aa.Params))
	set := make([]bool, len(aa.Params))
	for i, v := range args {
		bound[i] = v
		set[i] = true
	}
	nameIndex := make(map[string]int, len(aa.Params))
	for i, p := range aa.Params {
		nameIndex[p.Name] = i
	}
	for k, v := range kwargs {
		i, ok := nameIndex[k]
		if !ok {
			return nil, &SignatureError{AlgorithmName: aa.Name, Reason: "unknown keyword argument " + k}
		}
		if set[i] {
			return nil, &SignatureError{AlgorithmName: aa.Name, Reason: "argument " + k + " given both positionally and by keyword"}
		}
		bound[i] = v
		set[i] = true
	}
	for i, p := range aa.Params {
		if set[i] {
			continue
		}
		if !p.HasDefault {
			return nil, &SignatureError{AlgorithmName: aa.Name, Reason: "missing required argument " + p.Name}
		}
		bound[i] = p.Default
	}
	return bound, nil
}

type classified struct {
	concrete *typesys.ConcreteType
	props    typesys.PropertyValues
}

// concreteTyped is implemented by lazy.Placeholder: a pending value whose
// ConcreteType is already fixed at GetOrCreate time, even though the
// underlying value does not exist yet. classify consults it instead of
// InferConcreteType so a Placeholder can be dispatched as an argument to a
// further algorithm call without forcing its computation (SPEC_FULL.md's
// lazy composition scenario).
type concreteTyped interface {
	ConcreteType() *typesys.ConcreteType
}

func classify(reg *registry.Registry, v any, want *typesys.AbstractType) (classified, error) {
	if want == nil {
		return classified{}, nil
	}
	if t, ok := v.(concreteTyped); ok {
		ct := t.ConcreteType()
		if ct == nil {
			return classified{}, fmt.Errorf("dispatch: pending value has no resolved concrete type")
		}
		return classified{concrete: ct}, nil
	}
	ct, err := reg.Types.InferConcreteType(v)
	if err != nil {
		return classified{}, err
	}
	info, err := ct.GetTypeInfo(v)
	if err != nil {
		return classified{}, err
	}
	merged := make(typesys.PropertyValues, len(info.AbstractProps)+len(info.ConcreteProps))
	for k, val := range info.AbstractProps {
		merged[k] = val
	}
	for k, val := range info.ConcreteProps {
		merged[k] = val
	}
	return classified{concrete: ct, props: merged}, nil
}

// Dispatch resolves abstractAlgorithmName against args/kwargs and returns
// the winning Plan. It never invokes a Translator or ConcreteAlgorithm.
func Dispatch(ctx context.Context, reg *registry.Registry, abstractAlgorithmName string, args []any, kwargs map[string]any) (*plan.Plan, error) {
	aa, err := reg.AbstractAlgorithmByName(abstractAlgorithmName)
	if err != nil {
		return nil, &SignatureError{AlgorithmName: abstractAlgorithmName, Reason: err.Error()}
	}
	bound, err := bind(aa, args, kwargs)
	if err != nil {
		return nil, err
	}

	classes := make([]classified, len(bound))
	for i, v := range bound {
		c, err := classify(reg, v, aa.Params[i].Abstract)
		if err != nil {
			return nil, &NoConcreteAlgorithmError{AlgorithmName: abstractAlgorithmName, Diagnostics: []string{
				fmt.Sprintf("argument %s: %v", aa.Params[i].Name, err),
			}}
		}
		classes[i] = c
	}

	candidates := reg.CandidatesFor(abstractAlgorithmName)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	var (
		best       *registry.ConcreteAlgorithm
		bestChains []*planner.TranslationChain
		bestCost   float64
		bestHops   int
		diagnostics []string
	)

	for _, cand := range candidates {
		chains := make([]*planner.TranslationChain, len(bound))
		cost := 0.0
		hops := 0
		rejected := false
		for i, paramType := range cand.ParamConcrete {
			if paramType == nil {
				continue // unrefined/scalar parameter, any value is viable
			}
			if classes[i].concrete == nil {
				diagnostics = append(diagnostics, fmt.Sprintf("%s: argument %s has no concrete type but parameter requires %s", cand.Name, aa.Params[i].Name, paramType.Name))
				rejected = true
				break
			}
			spec := typesys.NewTypeSpec(paramType, aa.Params[i].Constraints)
			chain, err := planner.PlanTranslation(ctx, reg, classes[i].concrete, spec, classes[i].props)
			if err != nil {
				diagnostics = append(diagnostics, fmt.Sprintf("%s: argument %s: %v", cand.Name, aa.Params[i].Name, err))
				rejected = true
				break
			}
			chains[i] = chain
			cost += chain.TotalCost
			hops += len(chain.Hops)
		}
		if rejected {
			continue
		}
		if best == nil || cost < bestCost || (cost == bestCost && hops < bestHops) {
			best = cand
			bestChains = chains
			bestCost = cost
			bestHops = hops
		}
	}

	if best == nil {
		return nil, &NoConcreteAlgorithmError{AlgorithmName: abstractAlgorithmName, Diagnostics: diagnostics}
	}

	return &plan.Plan{
		AlgorithmName:      abstractAlgorithmName,
		ConcreteAlgorithm:  best,
		ArgChains:          bestChains,
		TotalCost:          bestCost,
		ReturnConcreteType: best.Return,
	}, nil
}

// Execute runs a previously dispatched Plan against args/kwargs: it
// rebinds them the same way Dispatch did, runs each argument's
// translation chain, invokes the chosen ConcreteAlgorithm, and validates
// the result's type.
func Execute(ctx context.Context, reg *registry.Registry, p *plan.Plan, args []any, kwargs map[string]any, strictReturnTypeCheck bool) (any, error) {
	aa := p.ConcreteAlgorithm.Abstract
	bound, err := bind(aa, args, kwargs)
	if err != nil {
		return nil, err
	}

	translated := make([]any, len(bound))
	for i, v := range bound {
		chain := p.ArgChains[i]
		if chain == nil || chain.Empty() {
			translated[i] = v
			continue
		}
		cur := v
		for _, hop := range chain.Hops {
			spec := typesys.NewTypeSpec(hop.Dst, nil)
			cur, err = hop.Fn(ctx, cur, spec)
			if err != nil {
				return nil, fmt.Errorf("executing plan %s: translating argument %d via %s: %w", p.AlgorithmName, i, hop.Name, err)
			}
		}
		translated[i] = cur
	}

	result, err := p.ConcreteAlgorithm.Fn(ctx, translated...)
	if err != nil {
		return nil, fmt.Errorf("executing plan %s: %w", p.Describe(), err)
	}

	if p.ReturnConcreteType != nil {
		if !p.ReturnConcreteType.IsTypeclassOf(result) {
			if strictReturnTypeCheck {
				return nil, &ReturnTypeMismatchError{AlgorithmName: p.AlgorithmName, Expected: p.ReturnConcreteType.Name}
			}
			ctxlog.FromContext(ctx).Warn("return value does not match declared concrete type",
				"algorithm", p.AlgorithmName, "expected", p.ReturnConcreteType.Name)
		}
	}

	return result, nil
}
