package lazy

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/metagraph/internal/registry"
)

// FuseFunc replaces a maximal linear chain of same-tagged compute tasks
// with a single equivalent task node.
type FuseFunc func(ctx context.Context, reg *registry.Registry, chain []*taskNode) (*taskNode, error)

// topoOrder returns every node key in a deterministic topological order
// (dependencies before dependents). Grounded on subgraphFor's own DFS
// postorder walk in graph.go, generalized from "reachable from a target
// set" to "every node", and visiting tied candidates in sorted-key order
// so the same graph always yields the same order — ranging over g.nodes
// directly would not, since Go map iteration is randomized per run.
func topoOrder(nodes map[string]*taskNode) []string {
	keys := make([]string, 0, len(nodes))
	for key := range nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seen := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))
	var visit func(key string)
	visit = func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		n := nodes[key]
		if n == nil {
			return
		}
		upstream := append([]string(nil), n.upstream...)
		sort.Strings(upstream)
		for _, up := range upstream {
			visit(up)
		}
		order = append(order, key)
	}
	for _, key := range keys {
		visit(key)
	}
	return order
}

// Optimize is an opt-in subgraph-fusion pass, grounded on
// original_source/metagraph/core/compiler.py's
// extract_compilable_subgraphs/compile_subgraphs: it walks compute tasks
// whose ConcreteAlgorithm declares CompilerTag == compilerTag in
// topological order, extends a running chain across consecutive
// (key, next) pairs exactly as long as key has next as its sole
// dependent and next has key as its sole dependency, and fuses each
// maximal chain of length >= 2 into one task via fuse. The Python
// original walks dask's own toposort of just the compilable keys for the
// same reason: picking chain starts by scanning an unordered collection
// (there, dict iteration; here, a Go map) risks starting a chain
// partway through — e.g. at its second node — and truncating it when an
// earlier node is visited afterward and finds its sole dependent already
// deleted.
func Optimize(ctx context.Context, g *Graph, compilerTag string, fuse FuseFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	dependents := make(map[string][]string)
	for _, n := range g.nodes {
		for _, up := range n.upstream {
			dependents[up] = append(dependents[up], n.key)
		}
	}

	eligible := func(n *taskNode) bool {
		return n != nil && n.kind == computeTaskKind && n.plan != nil &&
			n.plan.ConcreteAlgorithm.CompilerTag == compilerTag
	}

	var orderedKeys []string
	for _, key := range topoOrder(g.nodes) {
		if eligible(g.nodes[key]) {
			orderedKeys = append(orderedKeys, key)
		}
	}
	if len(orderedKeys) == 0 {
		return nil
	}

	fuseChain := func(chainKeys []string) error {
		if len(chainKeys) < 2 {
			return nil
		}
		chain := make([]*taskNode, len(chainKeys))
		for i, key := range chainKeys {
			chain[i] = g.nodes[key]
		}
		fused, err := fuse(ctx, g.reg, chain)
		if err != nil {
			return fmt.Errorf("lazy: fusing chain at %s: %w", chainKeys[len(chainKeys)-1], err)
		}
		last := chain[len(chain)-1]
		fused.key = last.key
		fused.upstream = chain[0].upstream
		fused.done = make(chan struct{})
		g.nodes[last.key] = fused
		for _, mid := range chain[:len(chain)-1] {
			delete(g.nodes, mid.key)
		}
		return nil
	}

	currentChain := []string{orderedKeys[0]}
	for i := 0; i < len(orderedKeys)-1; i++ {
		key, next := orderedKeys[i], orderedKeys[i+1]
		keyDependents := dependents[key]
		nextUpstream := g.nodes[next].upstream
		linked := len(keyDependents) == 1 && keyDependents[0] == next &&
			len(nextUpstream) == 1 && nextUpstream[0] == key
		if linked {
			currentChain = append(currentChain, next)
			continue
		}
		if err := fuseChain(currentChain); err != nil {
			return err
		}
		currentChain = []string{next}
	}
	return fuseChain(currentChain)
}
