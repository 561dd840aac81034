// Command metagraphd wires every plugin under plugins/* into one
// Registry and exercises the dispatcher and lazy executor against a
// small demo graph. Modeled on the teacher's cmd/cli/main.go: a thin
// main() that configures logging and delegates to a testable run(),
// recovering from a critical startup panic with a clean exit message.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vk/metagraph/internal/ctxlog"
	"github.com/vk/metagraph/internal/lazy"
	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/resolver"
	"github.com/vk/metagraph/internal/resolverconfig"
	"github.com/vk/metagraph/plugins/badgergraph"
	"github.com/vk/metagraph/plugins/grpcgraph"
	"github.com/vk/metagraph/plugins/nativegraph"
	"github.com/vk/metagraph/plugins/sqlitegraph"
	"github.com/vk/metagraph/plugins/uuidnodemap"
	"github.com/vk/metagraph/plugins/yamlframe"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	fs := flag.NewFlagSet("metagraphd", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "debug, info, warn, or error")
	logFormat := fs.String("log-format", "text", "text or json")
	lazyMode := fs.Bool("lazy", false, "build a deferred task graph instead of executing eagerly")
	workers := fs.Int("workers", 0, "worker pool size for ComputeAll (0 = runtime.NumCPU())")
	grpcAddr := fs.String("grpc-addr", "", "address of a metagraph.graph.v1.GraphService; grpcgraph is skipped if empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(*logLevel, *logFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	// A critical provider wiring error (e.g. a plugin panicking on
	// duplicate registration) should produce a clean exit message rather
	// than a raw stack trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "a critical startup error occurred: %v\n", r)
			os.Exit(1)
		}
	}()

	reg := registry.NewRegistry()
	providers := []registry.EntryProvider{
		nativegraph.Provider{},
		uuidnodemap.Provider{},
		sqlitegraph.Provider{},
		badgergraph.Provider{},
		yamlframe.Provider{},
	}

	var grpcConn *grpc.ClientConn
	if *grpcAddr != "" {
		conn, err := grpc.NewClient(*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("metagraphd: dialing grpc service %s: %w", *grpcAddr, err)
		}
		defer conn.Close()
		grpcConn = conn
		providers = append(providers, grpcgraph.Provider{Conn: grpcConn})
	} else {
		logger.Info("no -grpc-addr given, skipping grpcgraph provider")
	}

	if err := reg.Ingest(ctx, providers...); err != nil {
		return fmt.Errorf("metagraphd: ingesting providers: %w", err)
	}
	if err := reg.Finalize(ctx); err != nil {
		return fmt.Errorf("metagraphd: finalizing registry: %w", err)
	}

	cfg := resolverconfig.New(
		resolverconfig.WithLazy(*lazyMode),
		resolverconfig.WithWorkerCount(*workers),
	)
	res := resolver.New(reg, cfg)

	return demo(ctx, outW, res, *lazyMode)
}

// demo builds a small weighted graph, dispatches traversal.bfs and
// centrality.pagerank against it through increasingly indirect concrete
// types, and prints the results. Dispatching pagerank against a
// *sqlitegraph.Graph forces the planner through the sqlite_to_native hop,
// since no pagerank_sqlite concrete algorithm is registered.
func demo(ctx context.Context, outW io.Writer, res *resolver.Resolver, lazyMode bool) error {
	g := nativegraph.NewGraph(false)
	g.AddEdge(1, 2, 1)
	g.AddEdge(2, 3, 1)
	g.AddEdge(3, 4, 2)
	g.AddEdge(4, 1, 3)

	bfsResult, err := res.Algos("traversal", "bfs").Call(ctx, g, 1)
	if err != nil {
		return fmt.Errorf("metagraphd: traversal.bfs: %w", err)
	}

	sg, err := sqlitegraph.Open(false, "")
	if err != nil {
		return fmt.Errorf("metagraphd: opening sqlite graph: %w", err)
	}
	defer sg.Close()
	for _, id := range g.Nodes() {
		for dst, w := range g.Neighbors(id) {
			if id < dst {
				if err := sg.AddEdge(id, dst, w); err != nil {
					return err
				}
			}
		}
	}

	pagerankResult, err := res.Algos("centrality", "pagerank").Call(ctx, sg)
	if err != nil {
		return fmt.Errorf("metagraphd: centrality.pagerank: %w", err)
	}

	if !lazyMode {
		fmt.Fprintf(outW, "bfs from node 1: %v\n", bfsResult)
		fmt.Fprintf(outW, "pagerank over sqlite graph: %v\n", pagerankResult)
		return nil
	}

	bfsPlaceholder, ok := bfsResult.(*lazy.Placeholder)
	if !ok {
		return fmt.Errorf("metagraphd: expected a lazy placeholder for traversal.bfs, got %T", bfsResult)
	}
	pagerankPlaceholder, ok := pagerankResult.(*lazy.Placeholder)
	if !ok {
		return fmt.Errorf("metagraphd: expected a lazy placeholder for centrality.pagerank, got %T", pagerankResult)
	}

	results, err := res.ComputeAll(ctx, bfsPlaceholder, pagerankPlaceholder)
	if err != nil {
		return fmt.Errorf("metagraphd: computing lazy results: %w", err)
	}
	fmt.Fprintf(outW, "bfs from node 1: %v\n", results[0])
	fmt.Fprintf(outW, "pagerank over sqlite graph: %v\n", results[1])
	return nil
}

func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler)
}
