// Package plan defines the immutable, inspectable record of a dispatch
// decision. Its Describe() tree-writer generalizes the teacher's
// internal/dag/node_runner.go formatValueForLogs helper from formatting a
// single loggable value to building a multi-line decision tree.
package plan

import (
	"strconv"
	"strings"

	"github.com/vk/metagraph/internal/planner"
	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// Plan is the frozen outcome of a dispatch: the chosen ConcreteAlgorithm,
// the translation chain required for each argument, and the expected
// return type. Plans are created per-call; the fields are exported, so
// the type itself does not prevent them from being reassigned.
type Plan struct {
	AlgorithmName     string
	ConcreteAlgorithm *registry.ConcreteAlgorithm
	ArgChains         []*planner.TranslationChain
	TotalCost         float64
	ReturnConcreteType *typesys.ConcreteType
}

// Describe renders a human-readable tree of the plan: algorithm name,
// chosen implementation, per-argument translation chains, total cost, and
// expected return type.
func (p *Plan) Describe() string {
	var b strings.Builder
	b.WriteString("Plan for ")
	b.WriteString(p.AlgorithmName)
	b.WriteString("\n  implementation: ")
	b.WriteString(p.ConcreteAlgorithm.Name)
	b.WriteString("\n")
	for i, chain := range p.ArgChains {
		b.WriteString("  arg")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(": ")
		writeChain(&b, chain)
		b.WriteString("\n")
	}
	b.WriteString("  total cost: ")
	b.WriteString(strconv.FormatFloat(p.TotalCost, 'g', -1, 64))
	b.WriteString("\n  return type: ")
	if p.ReturnConcreteType != nil {
		b.WriteString(p.ReturnConcreteType.Name)
	} else {
		b.WriteString("<scalar>")
	}
	return b.String()
}

func writeChain(b *strings.Builder, chain *planner.TranslationChain) {
	if chain == nil || chain.Empty() {
		if chain != nil && chain.FinalConcreteType != nil {
			b.WriteString(chain.FinalConcreteType.Name)
		} else {
			b.WriteString("<scalar>")
		}
		return
	}
	b.WriteString(chain.Hops[0].Src.Name)
	for _, hop := range chain.Hops {
		b.WriteString(" -> (via ")
		b.WriteString(hop.Name)
		b.WriteString(") -> ")
		b.WriteString(hop.Dst.Name)
	}
}

// Equal reports structural equality of two Plans: same algorithm, same
// chosen implementation, same per-argument chains (by Translator identity
// and order), same total cost and return type. Used by tests and by
// Invariant 5/6.
func (p *Plan) Equal(other *Plan) bool {
	if other == nil {
		return false
	}
	if p.AlgorithmName != other.AlgorithmName {
		return false
	}
	if p.ConcreteAlgorithm.Name != other.ConcreteAlgorithm.Name {
		return false
	}
	if p.TotalCost != other.TotalCost {
		return false
	}
	if (p.ReturnConcreteType == nil) != (other.ReturnConcreteType == nil) {
		return false
	}
	if p.ReturnConcreteType != nil && p.ReturnConcreteType.Name != other.ReturnConcreteType.Name {
		return false
	}
	if len(p.ArgChains) != len(other.ArgChains) {
		return false
	}
	for i, chain := range p.ArgChains {
		if !chainEqual(chain, other.ArgChains[i]) {
			return false
		}
	}
	return true
}

func chainEqual(a, b *planner.TranslationChain) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Hops) != len(b.Hops) {
		return false
	}
	for i, hop := range a.Hops {
		if hop.Name != b.Hops[i].Name {
			return false
		}
	}
	return a.TotalCost == b.TotalCost
}

