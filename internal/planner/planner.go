// Package planner computes least-cost translation chains over a
// Registry's per-AbstractType translation multigraph. The search itself is
// a textbook Dijkstra shortest path, generalized from
// katalvlaran-lvlath's graph/dijkstra.go priority-queue shape (an
// AdjacencyList-keyed graph of nodes) to a graph whose nodes are
// ConcreteTypes and whose edges are registry.Translators — the teacher's
// own internal/dag package has no weighted search to adapt, only
// unweighted BFS/DFS traversal.
package planner

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/metaerr"
	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// TranslationChain is the least-cost sequence of Translators from a
// source ConcreteType to one satisfying a requested TypeSpec.
type TranslationChain struct {
	Hops              []*registry.Translator
	TotalCost         float64
	FinalConcreteType *typesys.ConcreteType
	FinalProps        typesys.PropertyValues
}

// Empty reports whether the chain requires no translation at all.
func (c *TranslationChain) Empty() bool { return len(c.Hops) == 0 }

// NoTranslationPathError reports that no sequence of Translators connects
// source to a ConcreteType satisfying target. Defined in internal/metaerr;
// aliased here so call sites can keep writing planner.NoTranslationPathError.
type NoTranslationPathError = metaerr.NoTranslationPathError

// item is one entry of the Dijkstra priority queue: a partially-explored
// path ending at ct, with its accumulated cost, hop count, and a
// tie-break key built from the traversed Translators' identifiers.
type item struct {
	ct     *typesys.ConcreteType
	cost   float64
	hops   int
	lexKey string
	props  typesys.PropertyValues
	chain  []*registry.Translator
	index  int
}

type priorityQueue []*item

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	return a.lexKey < b.lexKey
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	it := x.(*item)
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[:n-1]
	return it
}

// PlanTranslation returns the least-cost TranslationChain taking a value
// of source (with sourceProps) to a ConcreteType satisfying target. A
// zero-hop chain is returned when source already satisfies target.
func PlanTranslation(
	ctx context.Context,
	reg *registry.Registry,
	source *typesys.ConcreteType,
	target typesys.TypeSpec,
	sourceProps typesys.PropertyValues,
) (*TranslationChain, error) {
	targetCT, err := target.ResolveTarget(reg.Types)
	if err != nil {
		return nil, fmt.Errorf("planner: resolving target: %w", err)
	}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &item{ct: source, cost: 0, hops: 0, lexKey: "", props: sourceProps})

	// visited is keyed by (ConcreteType name, whether that popped state
	// already satisfied target) rather than by ConcreteType name alone: a
	// Translator's PropagateProps can make the same ConcreteType satisfy
	// target on one path through the multigraph but not another, so a
	// non-satisfying pop of a node must not block a later, costlier pop of
	// the same node whose propagated properties do satisfy target.
	visited := make(map[string]bool)

	for pq.Len() > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cur := heap.Pop(pq).(*item)

		satisfied := cur.ct == targetCT && target.Satisfies(typesys.TypeInfo{AbstractProps: cur.props})
		key := cur.ct.Name + "|pending"
		if satisfied {
			key = cur.ct.Name + "|satisfied"
		}
		if visited[key] {
			continue
		}
		visited[key] = true

		if satisfied {
			return &TranslationChain{
				Hops:              cur.chain,
				TotalCost:         cur.cost,
				FinalConcreteType: cur.ct,
				FinalProps:        cur.props,
			}, nil
		}

		for _, edge := range reg.EdgesFrom(cur.ct) {
			nextProps := edge.PropagateProps(cur.props)
			nextChain := make([]*registry.Translator, len(cur.chain)+1)
			copy(nextChain, cur.chain)
			nextChain[len(cur.chain)] = edge
			heap.Push(pq, &item{
				ct:     edge.Dst,
				cost:   cur.cost + edge.Cost,
				hops:   cur.hops + 1,
				lexKey: cur.lexKey + "\x00" + edge.Name,
				props:  nextProps,
				chain:  nextChain,
			})
		}
	}

	return nil, &NoTranslationPathError{Source: source.Name, Target: targetCT.Name}
}
