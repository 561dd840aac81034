// Package lazy wraps dispatched Plans into nodes of a deferred task graph.
// A Placeholder is an opaque handle to a pending computation; the graph
// that owns it is a direct generalization of the teacher's
// internal/dag.Graph/internal/dag.Executor pair: nodes keyed by string
// (here a deterministic Placeholder key instead of a "step.<type>.<name>"
// address), atomic depCount/state fields per node (adapted from
// internal/node.Node), and a fixed-size worker pool draining a buffered
// ready channel (adapted from internal/dag/executor.go's Executor.Run).
package lazy

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/vk/metagraph/internal/dispatch"
	"github.com/vk/metagraph/internal/plan"
	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

type taskState int32

const (
	statePending taskState = iota
	stateRunning
	stateDone
	stateFailed
)

type taskKind int

const (
	computeTaskKind taskKind = iota
	constantTaskKind
)

// taskNode is one node of the task graph: either a constant (an eager
// value lifted into the graph) or a computation (a Plan plus its
// argument nodes, referenced by upstream key).
type taskNode struct {
	key   string
	kind  taskKind
	plan  *plan.Plan
	args  []*Placeholder // for computeTaskKind, aligned with plan's bound arguments
	upstream []string     // deduplicated upstream keys, used by the scheduler

	constantValue any
	resultType    *typesys.ConcreteType

	depCount atomic.Int32
	state    atomic.Int32
	once     sync.Once
	done     chan struct{}

	result any
	err    error
}

// Placeholder is an opaque handle to a pending lazy computation.
type Placeholder struct {
	key          string
	graph        *Graph
	concreteType *typesys.ConcreteType
}

// Key returns the Placeholder's deterministic identity: equal (plan,
// argKeys) pairs always produce the same key (Invariant 6).
func (p *Placeholder) Key() string { return p.key }

// ConcreteType is the type the Placeholder will resolve to once computed.
func (p *Placeholder) ConcreteType() *typesys.ConcreteType { return p.concreteType }

// Upstream returns the keys of Placeholders this one depends on.
func (p *Placeholder) Upstream() []string {
	p.graph.mu.Lock()
	defer p.graph.mu.Unlock()
	n := p.graph.nodes[p.key]
	out := make([]string, len(n.upstream))
	copy(out, n.upstream)
	return out
}

// Compute materializes the Placeholder via single-goroutine depth-first
// evaluation of its task DAG.
func (p *Placeholder) Compute(ctx context.Context) (any, error) {
	return p.graph.computeNode(ctx, p.key)
}

// Graph is the task-DAG container a Resolver constructs once per lazy
// session. Cycle prevention is structural (Invariant I3): GetOrCreate only
// ever appends new nodes downstream of their declared dependencies, so
// there is no way to add an edge onto an existing node after the fact —
// unlike internal/dag.Graph's AddEdge-onto-existing-node API, which is why
// that package needs a runtime DetectCycles pass and this one does not.
type Graph struct {
	mu    sync.Mutex
	nodes map[string]*taskNode
	reg   *registry.Registry

	strictReturnTypeCheck bool
}

// NewGraph returns an empty task Graph bound to reg.
func NewGraph(reg *registry.Registry, strictReturnTypeCheck bool) *Graph {
	return &Graph{
		nodes: make(map[string]*taskNode),
		reg:   reg,
		strictReturnTypeCheck: strictReturnTypeCheck,
	}
}

// Constant wraps an already-materialized eager value as a constant task,
// so it can flow into a computeTask's argument list alongside
// Placeholders (mixing eager values and Placeholders in a call is legal).
func (g *Graph) Constant(value any, ct *typesys.ConcreteType) *Placeholder {
	key := constantKey(value)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[key]; !exists {
		n := &taskNode{
			key:           key,
			kind:          constantTaskKind,
			constantValue: value,
			resultType:    ct,
			done:          make(chan struct{}),
		}
		g.nodes[key] = n
	}
	return &Placeholder{key: key, graph: g, concreteType: ct}
}

// GetOrCreate returns the Placeholder for (p, args), creating its task
// node if this exact (plan, argument-keys) pair hasn't been seen before.
// Eager values in args are lifted into constant tasks automatically.
func (g *Graph) GetOrCreate(p *plan.Plan, args []any) (*Placeholder, error) {
	boundArgs := make([]*Placeholder, len(args))
	argKeys := make([]string, len(args))
	seen := make(map[string]bool, len(args))
	var upstream []string
	for i, a := range args {
		var ph *Placeholder
		if existing, ok := a.(*Placeholder); ok {
			ph = existing
		} else {
			ph = g.Constant(a, nil)
		}
		boundArgs[i] = ph
		argKeys[i] = ph.key
		if !seen[ph.key] {
			seen[ph.key] = true
			upstream = append(upstream, ph.key)
		}
	}

	key := computeKey(p, argKeys)

	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.nodes[key]; ok {
		return &Placeholder{key: key, graph: g, concreteType: existing.resultType}, nil
	}

	n := &taskNode{
		key:        key,
		kind:       computeTaskKind,
		plan:       p,
		args:       boundArgs,
		upstream:   upstream,
		resultType: p.ReturnConcreteType,
		done:       make(chan struct{}),
	}
	n.depCount.Store(int32(len(upstream)))
	g.nodes[key] = n
	return &Placeholder{key: key, graph: g, concreteType: p.ReturnConcreteType}, nil
}

func (g *Graph) nodeFor(key string) *taskNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodes[key]
}

// computeNode evaluates a single node depth-first, memoizing via
// sync.Once so concurrent or repeated requests for the same key never
// re-run its Plan.
func (g *Graph) computeNode(ctx context.Context, key string) (any, error) {
	node := g.nodeFor(key)
	if node == nil {
		return nil, fmt.Errorf("lazy: unknown task key %s", key)
	}
	node.once.Do(func() {
		defer close(node.done)
		node.state.Store(int32(stateRunning))
		if node.kind == constantTaskKind {
			node.result = node.constantValue
			node.state.Store(int32(stateDone))
			return
		}
		args := make([]any, len(node.args))
		for i, ph := range node.args {
			v, err := g.computeNode(ctx, ph.key)
			if err != nil {
				node.err = err
				node.state.Store(int32(stateFailed))
				return
			}
			args[i] = v
		}
		result, err := dispatch.Execute(ctx, g.reg, node.plan, args, nil, g.strictReturnTypeCheck)
		node.result = result
		node.err = err
		if err != nil {
			node.state.Store(int32(stateFailed))
		} else {
			node.state.Store(int32(stateDone))
		}
	})
	<-node.done
	return node.result, node.err
}

// subgraphFor returns every node reachable (via upstream edges) from
// targets, topologically ordered with dependencies before dependents.
func (g *Graph) subgraphFor(targets []string) []*taskNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := make(map[string]bool)
	var order []*taskNode
	var visit func(key string)
	visit = func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		n := g.nodes[key]
		if n == nil {
			return
		}
		for _, up := range n.upstream {
			visit(up)
		}
		order = append(order, n)
	}
	for _, t := range targets {
		visit(t)
	}
	return order
}

func computeKey(p *plan.Plan, argKeys []string) string {
	h := xxhash.New()
	fmt.Fprintf(h, "plan:%s:%s", p.AlgorithmName, p.ConcreteAlgorithm.Name)
	for _, k := range argKeys {
		fmt.Fprintf(h, ":%s", k)
	}
	return fmt.Sprintf("task-%016x", h.Sum64())
}

func constantKey(value any) string {
	var repr string
	switch v := value.(type) {
	case string:
		repr = "s:" + v
	case int:
		repr = fmt.Sprintf("i:%d", v)
	case int64:
		repr = fmt.Sprintf("i64:%d", v)
	case float64:
		repr = fmt.Sprintf("f:%v", v)
	case bool:
		repr = fmt.Sprintf("b:%v", v)
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			repr = fmt.Sprintf("addr:%d", rv.Pointer())
		default:
			// Non-reference values (plain structs passed by value) are keyed
			// by their type and Go-syntax representation, so structurally
			// equal values share one constant task.
			repr = fmt.Sprintf("v:%T:%#v", value, value)
		}
	}
	return fmt.Sprintf("const-%016x", xxhash.Sum64String(repr))
}
