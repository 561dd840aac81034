// Package uuidnodemap backs the NodeMap AbstractType with a
// UUID-keyed representation, for algorithms that want stable external
// node identity instead of the internal integer ids nativegraph uses.
// Grounded on the funvibe-funxy/hanpama-protograph go.mod dependency on
// github.com/google/uuid.
package uuidnodemap

import (
	"context"

	"github.com/google/uuid"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// NodeMap maps an external UUID identity to a float64 value.
type NodeMap map[uuid.UUID]float64

// IDIndex tracks the UUID assigned to each internal integer node id, so a
// translator can build a NodeMap from an int-keyed source consistently.
type IDIndex struct {
	byNode map[int]uuid.UUID
}

// NewIDIndex returns an empty IDIndex.
func NewIDIndex() *IDIndex { return &IDIndex{byNode: make(map[int]uuid.UUID)} }

// IDFor returns the stable UUID assigned to node, minting one on first
// use via uuid.NewSHA1 so the same node id always maps to the same UUID
// within an IDIndex's lifetime.
func (idx *IDIndex) IDFor(node int) uuid.UUID {
	if id, ok := idx.byNode[node]; ok {
		return id
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(node >> 24), byte(node >> 16), byte(node >> 8), byte(node)})
	idx.byNode[node] = id
	return id
}

// Provider registers the UUIDNodeMap ConcreteType against the NodeMap
// AbstractType declared elsewhere (by plugins/nativegraph).
type Provider struct{}

// Entries implements registry.EntryProvider.
func (Provider) Entries(ctx context.Context) ([]registry.Entry, error) {
	concreteProps := typesys.NewPropertySpec().Add("identity", []any{"uuid"}, "uuid")

	return []registry.Entry{
		registry.ConcreteTypeEntry{
			Name:         "UUIDNodeMap",
			AbstractName: "NodeMap",
			Predicate: func(v any) bool {
				_, ok := v.(NodeMap)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				return typesys.TypeInfo{
					AbstractProps: typesys.PropertyValues{"value_dtype": "float"},
					ConcreteProps: typesys.PropertyValues{"identity": "uuid"},
				}, nil
			},
			ConcreteProps: concreteProps,
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				am, bm := a.(NodeMap), b.(NodeMap)
				if len(am) != len(bm) {
					return errNotEqual("uuidnodemap: length differs")
				}
				for k, v := range am {
					if bm[k] != v {
						return errNotEqual("uuidnodemap: value differs for key")
					}
				}
				return nil
			},
			ConflictProbe: NodeMap{},
		},
	}, nil
}

type errNotEqual string

func (e errNotEqual) Error() string { return string(e) }
