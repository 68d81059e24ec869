package jsontree

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Query evaluates a JSONPath expression such as
// $.step_values[?(@.name == 'R_value')].value against node.
func Query(node any, expr string) ([]any, error) {
	path, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression %q: %w", expr, err)
	}

	return path.Get(node), nil
}

// Normalize converts doubles inside node to Double, so that a node encoded
// with encoding/json keeps integral doubles distinct from integers.
func Normalize(node any) any {
	return normalize(node)
}
