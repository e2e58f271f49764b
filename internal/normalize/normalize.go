// Package normalize converts driver-native result rows into records made
// only of JSON-safe primitives (null, bool, number, string).
package normalize

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a row whose width does not match the column
// list, or a column list with a repeated name.
type SchemaMismatchError struct {
	Row       int
	Width     int
	Columns   int
	Duplicate string
}

func (e *SchemaMismatchError) Error() string {
	if e.Duplicate != "" {
		return fmt.Sprintf("schema mismatch: duplicate column %q", e.Duplicate)
	}
	return fmt.Sprintf("schema mismatch: row %d has %d values, expected %d columns", e.Row, e.Width, e.Columns)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// Normalize turns rows into records keyed by columns, in column order.
// An empty rows slice yields an empty, non-nil result.
func Normalize(rows [][]any, columns []string) ([]Record, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if _, ok := seen[name]; ok {
			return nil, &SchemaMismatchError{Duplicate: name}
		}
		seen[name] = struct{}{}
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &SchemaMismatchError{Row: i, Width: len(row), Columns: len(columns)}
		}

		rec := Record{
			keys:   make([]string, len(columns)),
			values: make([]any, len(columns)),
		}
		copy(rec.keys, columns)
		for j, v := range row {
			rec.values[j] = Value(v)
		}
		records = append(records, rec)
	}

	return records, nil
}

// Value coerces a single driver value into a JSON-safe primitive.
// Types outside the primitive set are rendered as text.
func Value(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case bool, string, int64:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return unsignedValue(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return unsignedValue(v)
	case float32:
		// Round-trip through the 32-bit text form so 0.1 stays 0.1.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
		return floatValue(f)
	case float64:
		return floatValue(v)
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return "0x" + strings.ToUpper(hex.EncodeToString(v))
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case json.Number:
		return numberValue(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func unsignedValue(v uint64) any {
	if v > math.MaxInt64 {
		return strconv.FormatUint(v, 10)
	}
	return int64(v)
}

// NaN and infinities have no JSON encoding.
func floatValue(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return floatValue(f)
	}
	return n.String()
}
