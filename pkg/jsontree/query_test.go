package jsontree_test

import (
	"testing"

	"github.com/dukex/stepledger/pkg/jsontree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	t.Parallel()

	node, err := jsontree.Parse(`{
		"step_result": "Success",
		"step_values": [
			{"name": "R_value", "value": 3.5},
			{"name": "num_zones", "value": 4}
		]
	}`)
	require.NoError(t, err)

	results, err := jsontree.Query(node, "$.step_result")
	require.NoError(t, err)
	assert.Equal(t, []any{"Success"}, results)

	results, err = jsontree.Query(node, "$.step_values[*].name")
	require.NoError(t, err)
	assert.Equal(t, []any{"R_value", "num_zones"}, results)

	results, err = jsontree.Query(node, "$.missing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_InvalidExpression(t *testing.T) {
	t.Parallel()

	_, err := jsontree.Query(map[string]any{}, "$.a[1")
	assert.Error(t, err)
}

func TestNormalize_KeepsDoubleKind(t *testing.T) {
	t.Parallel()

	node, err := jsontree.Parse(`{"values": [2.0, 3]}`)
	require.NoError(t, err)

	results, err := jsontree.Query(node, "$.values[*]")
	require.NoError(t, err)

	normalized := jsontree.Normalize(results)
	assert.Equal(t, []any{jsontree.Double(2), int64(3)}, normalized)
}
