package yamlframe

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// Provider registers the DataFrame AbstractType (declared here, since no
// other plugin in this module needs a tabular type) and the YAMLFrame
// ConcreteType backed by gopkg.in/yaml.v3, plus a from_columns wrapper and
// a column_mean algorithm exercising it.
type Provider struct{}

// Entries implements registry.EntryProvider.
func (Provider) Entries(ctx context.Context) ([]registry.Entry, error) {
	return []registry.Entry{
		registry.AbstractTypeEntry{
			Name: "DataFrame",
			Properties: typesys.NewPropertySpec().
				Add("encoding", []any{"yaml"}, "yaml"),
		},

		registry.ConcreteTypeEntry{
			Name:         "YAMLFrame",
			AbstractName: "DataFrame",
			Predicate: func(v any) bool {
				_, ok := v.(*DataFrame)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				df, ok := v.(*DataFrame)
				if !ok {
					return typesys.TypeInfo{}, fmt.Errorf("yamlframe: not a *DataFrame")
				}
				return typesys.TypeInfo{
					AbstractProps: typesys.PropertyValues{"encoding": "yaml"},
					ConcreteProps: typesys.PropertyValues{"columns": len(df.Columns)},
				}, nil
			},
			ConcreteProps: typesys.NewPropertySpec().Add("columns", nil, 0),
			// Equal uses a float tolerance (EqualOptions.Tolerance, default
			// 0 meaning exact) per column, demonstrating the tolerance-based
			// form of AssertEqual contrasted with nativegraph's strict one.
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				da, oka := a.(*DataFrame)
				db, okb := b.(*DataFrame)
				if !oka || !okb {
					return fmt.Errorf("yamlframe: not comparable")
				}
				if len(da.Columns) != len(db.Columns) {
					return fmt.Errorf("yamlframe: column count differs: %d vs %d", len(da.Columns), len(db.Columns))
				}
				tol := typesys.ResolveEqualOptions(opts...).Tolerance
				for _, col := range da.Columns {
					va, ok := da.Data[col]
					if !ok {
						return fmt.Errorf("yamlframe: missing column %q in a", col)
					}
					vb, ok := db.Data[col]
					if !ok {
						return fmt.Errorf("yamlframe: missing column %q in b", col)
					}
					if len(va) != len(vb) {
						return fmt.Errorf("yamlframe: column %q row count differs", col)
					}
					for i := range va {
						if math.Abs(va[i]-vb[i]) > tol {
							return fmt.Errorf("yamlframe: column %q row %d differs: %v vs %v (tolerance %v)", col, i, va[i], vb[i], tol)
						}
					}
				}
				return nil
			},
			ConflictProbe: &DataFrame{Columns: []string{"_probe"}, Data: map[string][]float64{"_probe": {0}}},
		},

		registry.WrapperEntry{
			AbstractName: "DataFrame",
			Name:         "from_columns",
			Fn: func(raw any) (any, error) {
				data, ok := raw.(map[string][]float64)
				if !ok {
					return nil, fmt.Errorf("yamlframe: from_columns: want map[string][]float64, got %T", raw)
				}
				columns := make([]string, 0, len(data))
				for name := range data {
					columns = append(columns, name)
				}
				return NewDataFrame(columns, data)
			},
		},

		registry.AbstractAlgorithmEntry{
			Name: "tabular.column_mean",
			Params: []registry.ParamSpec{
				{Name: "frame", AbstractName: "DataFrame"},
				{Name: "column", AbstractName: ""},
			},
			ReturnAbstractName: "",
		},

		registry.ConcreteAlgorithmEntry{
			Name:                  "column_mean_yaml",
			AbstractAlgorithmName: "tabular.column_mean",
			ParamConcreteNames:    []string{"YAMLFrame", ""},
			ReturnConcreteName:    "",
			Fn:                    columnMeanFn,
		},
	}, nil
}

func columnMeanFn(ctx context.Context, args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("yamlframe: column_mean_yaml: unexpected argument shape")
	}
	df, ok := args[0].(*DataFrame)
	if !ok {
		return nil, fmt.Errorf("yamlframe: column_mean_yaml: arg 0 not a *DataFrame")
	}
	col, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("yamlframe: column_mean_yaml: arg 1 not a string")
	}
	vals, ok := df.Data[col]
	if !ok {
		return nil, fmt.Errorf("yamlframe: column_mean_yaml: no such column %q", col)
	}
	if len(vals) == 0 {
		return 0.0, nil
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), nil
}
