// Package grpcgraph backs the Graph AbstractType with a handle to a
// graph served by a remote gRPC service. Request/reply payloads are
// plain google.golang.org/protobuf/types/known/structpb.Struct values
// invoked via grpc.ClientConn.Invoke directly — the same call shape
// protoc-gen-go-grpc generates, without requiring a .proto-generated
// client for this reference plugin. Grounded on funvibe-funxy's and
// hanpama-protograph's go.mod dependency on google.golang.org/grpc and
// google.golang.org/protobuf.
package grpcgraph

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	methodCreateGraph = "/metagraph.graph.v1.GraphService/CreateGraph"
	methodAddEdge     = "/metagraph.graph.v1.GraphService/AddEdge"
	methodPageRank    = "/metagraph.graph.v1.GraphService/PageRank"
	methodFetchEdges  = "/metagraph.graph.v1.GraphService/FetchEdges"
)

// Graph is a handle to a graph living on a remote GraphService.
type Graph struct {
	cc       *grpc.ClientConn
	Handle   string
	Directed bool
}

// NewGraph asks the remote service to allocate a new graph and returns a
// handle to it.
func NewGraph(ctx context.Context, cc *grpc.ClientConn, directed bool) (*Graph, error) {
	req, err := structpb.NewStruct(map[string]any{"directed": directed})
	if err != nil {
		return nil, err
	}
	reply := &structpb.Struct{}
	if err := cc.Invoke(ctx, methodCreateGraph, req, reply); err != nil {
		return nil, fmt.Errorf("grpcgraph: CreateGraph: %w", err)
	}
	handle := reply.Fields["handle"].GetStringValue()
	return &Graph{cc: cc, Handle: handle, Directed: directed}, nil
}

// AddEdge asks the remote service to add a weighted edge.
func (g *Graph) AddEdge(ctx context.Context, src, dst int, weight float64) error {
	req, err := structpb.NewStruct(map[string]any{
		"handle": g.Handle,
		"src":    float64(src),
		"dst":    float64(dst),
		"weight": weight,
	})
	if err != nil {
		return err
	}
	reply := &structpb.Struct{}
	if err := g.cc.Invoke(ctx, methodAddEdge, req, reply); err != nil {
		return fmt.Errorf("grpcgraph: AddEdge: %w", err)
	}
	return nil
}

// PageRank asks the remote service to compute PageRank over this graph.
func (g *Graph) PageRank(ctx context.Context) (map[int]float64, error) {
	req, err := structpb.NewStruct(map[string]any{"handle": g.Handle})
	if err != nil {
		return nil, err
	}
	reply := &structpb.Struct{}
	if err := g.cc.Invoke(ctx, methodPageRank, req, reply); err != nil {
		return nil, fmt.Errorf("grpcgraph: PageRank: %w", err)
	}
	out := make(map[int]float64)
	ranks := reply.Fields["ranks"].GetStructValue()
	if ranks == nil {
		return out, nil
	}
	for k, v := range ranks.Fields {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = v.GetNumberValue()
	}
	return out, nil
}

// FetchEdges retrieves every (src, dst, weight) triple from the remote
// graph.
func (g *Graph) FetchEdges(ctx context.Context) ([][3]float64, error) {
	req, err := structpb.NewStruct(map[string]any{"handle": g.Handle})
	if err != nil {
		return nil, err
	}
	reply := &structpb.Struct{}
	if err := g.cc.Invoke(ctx, methodFetchEdges, req, reply); err != nil {
		return nil, fmt.Errorf("grpcgraph: FetchEdges: %w", err)
	}
	edgesVal := reply.Fields["edges"].GetListValue()
	if edgesVal == nil {
		return nil, nil
	}
	out := make([][3]float64, 0, len(edgesVal.Values))
	for _, v := range edgesVal.Values {
		s := v.GetStructValue()
		if s == nil {
			continue
		}
		out = append(out, [3]float64{
			s.Fields["src"].GetNumberValue(),
			s.Fields["dst"].GetNumberValue(),
			s.Fields["weight"].GetNumberValue(),
		})
	}
	return out, nil
}
