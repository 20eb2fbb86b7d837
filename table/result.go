package table

import (
	"encoding/json"

	"github.com/ydbgo/ydbgo/internal/xwire"
	"github.com/ydbgo/ydbgo/value"
)

// ResultSet is one query result set: a column list plus rows of
// decoded values.
type ResultSet struct {
	Columns []string
	Rows    [][]value.Value
}

func decodeResultSets(wire []xwire.ResultSet) ([]ResultSet, error) {
	out := make([]ResultSet, 0, len(wire))
	for _, rs := range wire {
		decoded := ResultSet{Columns: rs.Columns, Rows: make([][]value.Value, 0, len(rs.Rows))}
		for _, row := range rs.Rows {
			values := make([]value.Value, 0, len(row))
			for _, cell := range row {
				v, err := decodeCell(cell)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			decoded.Rows = append(decoded.Rows, values)
		}
		out = append(out, decoded)
	}
	return out, nil
}

// decodeCell converts one row cell. Rows arrive as `any` because
// ExecuteDataQueryResponse is itself decoded by encoding/json before
// table ever sees it; each cell already holds value's wire shape, so
// it is re-marshaled and handed to value.Decode rather than asserting
// on Go's dynamic JSON types directly.
func decodeCell(cell any) (value.Value, error) {
	raw, err := json.Marshal(cell)
	if err != nil {
		return value.Value{}, err
	}
	return value.Decode(raw)
}
