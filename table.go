package awhere

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Row is one record of a Table, keyed by column name.
type Row map[string]any

// Table is the tabular form of a series-shaped API response: rows in API
// order, nested objects flattened into dotted column names, response
// metadata stripped.
type Table struct {
	Columns []string
	Rows    []Row
}

// metadataKey reports whether a key belongs to response plumbing rather than
// data. Link subtrees and unit annotations never become columns.
func metadataKey(key string) bool {
	return key == "_links" || key == "units"
}

// TableOption adjusts how ParseTable shapes its result.
type TableOption func(*tableConfig)

type tableConfig struct {
	dropLeapDay bool
	dateColumn  string
}

// DropLeapDay removes rows whose date column falls on February 29. Norms
// keyed by month-day use it to produce series that align across leap and
// non-leap years.
func DropLeapDay(dateColumn string) TableOption {
	return func(c *tableConfig) {
		c.dropLeapDay = true
		c.dateColumn = dateColumn
	}
}

// ParseTable normalizes a JSON response into a Table. dataPath locates the
// data array inside the payload using gjson path syntax, e.g.
// "observations"; an empty path treats the payload itself as the array.
func ParseTable(body []byte, dataPath string, opts ...TableOption) (*Table, error) {
	var cfg tableConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if !gjson.ValidBytes(body) {
		return nil, &ResponseError{Reason: "invalid JSON"}
	}

	data := gjson.ParseBytes(body)
	if dataPath != "" {
		data = data.Get(dataPath)
		if !data.Exists() {
			return nil, &ResponseError{Reason: fmt.Sprintf("no %q array in response", dataPath)}
		}
	}
	if !data.IsArray() {
		return nil, &ResponseError{Reason: "data is not an array"}
	}

	t := &Table{}
	seen := make(map[string]bool)
	var rowErr error
	data.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			rowErr = &ResponseError{Reason: "data array contains a non-object row"}
			return false
		}
		row := make(Row)
		flattenInto(row, "", item, &t.Columns, seen)
		t.Rows = append(t.Rows, row)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	if cfg.dropLeapDay {
		kept := make([]Row, 0, len(t.Rows))
		for _, row := range t.Rows {
			if isLeapDay(row[cfg.dateColumn]) {
				continue
			}
			kept = append(kept, row)
		}
		t.Rows = kept
	}
	return t, nil
}

// flattenInto walks one JSON object, writing scalar leaves into row under
// dotted column names and recording first-seen column order. Metadata keys
// are skipped with their whole subtree; nested arrays are not table
// material.
func flattenInto(row Row, prefix string, obj gjson.Result, order *[]string, seen map[string]bool) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if metadataKey(name) {
			return true
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		switch {
		case value.IsObject():
			flattenInto(row, name, value, order, seen)
		case value.IsArray():
		default:
			row[name] = value.Value()
			if !seen[name] {
				seen[name] = true
				*order = append(*order, name)
			}
		}
		return true
	})
}

// isLeapDay reports whether a cell holds a date whose month-day part is
// February 29. Both "02-29" and "2020-02-29" forms match.
func isLeapDay(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasSuffix(s, "02-29")
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// Floats returns a numeric column in row order. Cells that are absent or
// non-numeric come back as NaN so the result stays aligned with Rows.
func (t *Table) Floats(col string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if f, ok := row[col].(float64); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Strings returns a column rendered as strings in row order. Absent cells
// come back empty.
func (t *Table) Strings(col string) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		switch v := row[col].(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// Filter returns a new table holding the rows keep reports true for, in
// their original order. Columns are shared with the receiver.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: t.Columns}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Equal reports whether two tables hold the same columns and rows.
func (t *Table) Equal(other *Table) bool {
	if other == nil || len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i, col := range t.Columns {
		if other.Columns[i] != col {
			return false
		}
	}
	for i, row := range t.Rows {
		if len(row) != len(other.Rows[i]) {
			return false
		}
		for k, v := range row {
			ov, ok := other.Rows[i][k]
			if !ok || ov != v {
				return false
			}
		}
	}
	return true
}

// MarshalJSON renders the table as an array of row objects with keys in
// column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		n := 0
		for _, col := range t.Columns {
			v, ok := row[col]
			if !ok {
				continue
			}
			if n > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
			n++
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
