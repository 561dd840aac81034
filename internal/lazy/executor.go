package lazy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vk/metagraph/internal/dispatch"
)

// Executor is a fixed-size worker pool that executes a task subgraph to
// completion, directly adapted from the teacher's
// internal/dag/executor.go Executor.Run/worker pair: an atomic per-node
// dependency counter, a buffered channel of ready nodes, and a
// sync.WaitGroup of fixed-size workers draining it.
type Executor struct {
	g           *Graph
	workerCount int
}

// NewExecutor returns an Executor over g with workerCount workers (at
// least 1).
func NewExecutor(g *Graph, workerCount int) *Executor {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Executor{g: g, workerCount: workerCount}
}

// Run executes every node in the union of targets' dependency graphs and
// returns each target key's result. A worker observes ctx.Err() before
// picking up a queued node and skips it rather than preempting work
// already in flight, mirroring the teacher's worker loop.
func (e *Executor) Run(ctx context.Context, targets ...string) (map[string]any, error) {
	nodes := e.g.subgraphFor(targets)
	total := len(nodes)
	if total == 0 {
		return map[string]any{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	depCount := make(map[string]*atomic.Int32, total)
	dependents := make(map[string][]*taskNode, total)
	for _, n := range nodes {
		c := &atomic.Int32{}
		c.Store(int32(len(n.upstream)))
		depCount[n.key] = c
	}
	for _, n := range nodes {
		for _, up := range n.upstream {
			dependents[up] = append(dependents[up], n)
		}
	}

	ready := make(chan *taskNode, total)
	for _, n := range nodes {
		if depCount[n.key].Load() == 0 {
			ready <- n
		}
	}

	var (
		mu        sync.Mutex
		results   = make(map[string]any, total)
		firstErr  error
		processed int
	)

	finish := func(node *taskNode, value any, err error) {
		mu.Lock()
		if err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
		results[node.key] = value
		processed++
		all := processed == total
		mu.Unlock()

		for _, dep := range dependents[node.key] {
			if depCount[dep.key].Add(-1) == 0 {
				ready <- dep
			}
		}
		if all {
			close(ready)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < e.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for node := range ready {
				if ctx.Err() != nil {
					finish(node, nil, ctx.Err())
					continue
				}
				if node.kind == constantTaskKind {
					finish(node, node.constantValue, nil)
					continue
				}
				mu.Lock()
				args := make([]any, len(node.args))
				for i, ph := range node.args {
					args[i] = results[ph.key]
				}
				mu.Unlock()
				value, err := dispatch.Execute(ctx, e.g.reg, node.plan, args, nil, e.g.strictReturnTypeCheck)
				if err != nil {
					err = fmt.Errorf("executing task %s: %w", node.key, err)
				}
				finish(node, value, err)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	out := make(map[string]any, len(targets))
	for _, t := range targets {
		out[t] = results[t]
	}
	return out, nil
}

// partitionIndependent groups targets into connected components of the
// union dependency graph (via union-find over node keys), so independent
// top-level requests can be executed in their own goroutine.
func partitionIndependent(g *Graph, targets []string) [][]string {
	nodes := g.subgraphFor(targets)
	parent := make(map[string]string, len(nodes))
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, n := range nodes {
		parent[n.key] = n.key
	}
	for _, n := range nodes {
		for _, up := range n.upstream {
			ru, rn := find(up), find(n.key)
			if ru != rn {
				parent[ru] = rn
			}
		}
	}

	groups := make(map[string][]string)
	for _, t := range targets {
		root := find(t)
		groups[root] = append(groups[root], t)
	}
	out := make([][]string, 0, len(groups))
	for _, keys := range groups {
		out = append(out, keys)
	}
	return out
}

// ComputeAll topologically executes the union of placeholders' dependency
// graphs with a worker-pool Executor, fanning out independent top-level
// requests via golang.org/x/sync/errgroup so a failure in one root's
// subgraph cancels the others' pending (not yet started) work.
func ComputeAll(ctx context.Context, g *Graph, workerCount int, placeholders ...*Placeholder) ([]any, error) {
	if len(placeholders) == 0 {
		return nil, nil
	}
	targets := make([]string, len(placeholders))
	for i, p := range placeholders {
		targets[i] = p.key
	}
	groups := partitionIndependent(g, targets)

	eg, egCtx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	merged := make(map[string]any, len(targets))
	for _, grp := range groups {
		grp := grp
		eg.Go(func() error {
			exec := NewExecutor(g, workerCount)
			out, err := exec.Run(egCtx, grp...)
			if err != nil {
				return err
			}
			mu.Lock()
			for k, v := range out {
				merged[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	results := make([]any, len(targets))
	for i, key := range targets {
		results[i] = merged[key]
	}
	return results, nil
}
