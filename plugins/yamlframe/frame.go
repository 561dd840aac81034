// Package yamlframe backs the DataFrame AbstractType with a YAML document
// of named numeric columns, grounded on funvibe-funxy's and
// jinterlante1206-AleutianLocal's go.mod dependency on gopkg.in/yaml.v3.
// It demonstrates AssertEqual's tolerance-based form (SPEC_FULL.md §9),
// contrasting with plugins/nativegraph's strict structural comparison.
package yamlframe

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DataFrame is a table of named equal-length float64 columns.
type DataFrame struct {
	Columns []string
	Data    map[string][]float64
}

// NewDataFrame builds a DataFrame from a column-name-to-values map,
// fixing the column order for deterministic rendering.
func NewDataFrame(columns []string, data map[string][]float64) (*DataFrame, error) {
	n := -1
	for _, c := range columns {
		vals, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("yamlframe: missing column %q", c)
		}
		if n == -1 {
			n = len(vals)
		} else if len(vals) != n {
			return nil, fmt.Errorf("yamlframe: column %q has %d rows, want %d", c, len(vals), n)
		}
	}
	return &DataFrame{Columns: columns, Data: data}, nil
}

// Marshal renders the DataFrame as a YAML document: a mapping of column
// name to its value list.
func (df *DataFrame) Marshal() ([]byte, error) {
	return yaml.Marshal(df.Data)
}

// Parse reads a YAML document of column-name-to-values mappings into a
// DataFrame. Column order follows the document's own key order.
func Parse(data []byte) (*DataFrame, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("yamlframe: parsing: %w", err)
	}
	var raw map[string][]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yamlframe: decoding columns: %w", err)
	}
	var columns []string
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
		mapping := node.Content[0]
		for i := 0; i < len(mapping.Content); i += 2 {
			columns = append(columns, mapping.Content[i].Value)
		}
	} else {
		for name := range raw {
			columns = append(columns, name)
		}
	}
	return NewDataFrame(columns, raw)
}

// RowCount returns the number of rows (0 if there are no columns).
func (df *DataFrame) RowCount() int {
	if len(df.Columns) == 0 {
		return 0
	}
	return len(df.Data[df.Columns[0]])
}
