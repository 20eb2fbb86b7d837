package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydbgo/ydbgo/internal/xwire"
	"github.com/ydbgo/ydbgo/value"
)

func TestDecodeResultSetsRoundTrips(t *testing.T) {
	idCell, err := value.Encode(value.Int64(42))
	require.NoError(t, err)
	var idGeneric any
	require.NoError(t, json.Unmarshal(idCell, &idGeneric))

	textCell, err := value.Encode(value.Text("hello"))
	require.NoError(t, err)
	var textGeneric any
	require.NoError(t, json.Unmarshal(textCell, &textGeneric))

	sets, err := decodeResultSets([]xwire.ResultSet{{
		Columns: []string{"id", "greeting"},
		Rows:    [][]any{{idGeneric, textGeneric}},
	}})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, []string{"id", "greeting"}, sets[0].Columns)
	require.Len(t, sets[0].Rows, 1)

	id, err := sets[0].Rows[0][0].AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	greeting, err := sets[0].Rows[0][1].AsText()
	require.NoError(t, err)
	assert.Equal(t, "hello", greeting)
}

func TestDecodeResultSetsEmpty(t *testing.T) {
	sets, err := decodeResultSets(nil)
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestDecodeResultSetsPreservesMultipleRows(t *testing.T) {
	cell := func(v value.Value) any {
		data, err := value.Encode(v)
		require.NoError(t, err)
		var generic any
		require.NoError(t, json.Unmarshal(data, &generic))
		return generic
	}

	sets, err := decodeResultSets([]xwire.ResultSet{{
		Columns: []string{"n"},
		Rows: [][]any{
			{cell(value.Int32(1))},
			{cell(value.Int32(2))},
		},
	}})
	require.NoError(t, err)
	require.Len(t, sets[0].Rows, 2)

	n0, _ := sets[0].Rows[0][0].AsInt32()
	n1, _ := sets[0].Rows[1][0].AsInt32()
	assert.Equal(t, int32(1), n0)
	assert.Equal(t, int32(2), n1)
}
