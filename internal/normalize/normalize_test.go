package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScenario(t *testing.T) {
	rows := [][]any{{1, "A"}, {2, "B"}}
	cols := []string{"id", "label"}

	got, err := Normalize(rows, cols)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, FromPairs("id", 1, "label", "A"), got[0])
	assert.Equal(t, FromPairs("id", 2, "label", "B"), got[1])

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"label":"A"},{"id":2,"label":"B"}]`, string(data))
}

func TestNormalizeEmptyRows(t *testing.T) {
	got, err := Normalize(nil, []string{"id"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestNormalizeKeepsColumnOrder(t *testing.T) {
	cols := []string{"zeta", "alpha", "mid"}
	rows := [][]any{{1, 2, 3}, {nil, nil, nil}, {"x", true, 1.5}}

	got, err := Normalize(rows, cols)
	require.NoError(t, err)
	require.Len(t, got, len(rows))

	for _, rec := range got {
		assert.Equal(t, cols, rec.Keys())
	}

	data, err := json.Marshal(got[2])
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"x","alpha":true,"mid":1.5}`, string(data))
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	ts := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	rows := [][]any{{[]byte("abc"), ts, int32(7)}}
	cols := []string{"a", "b", "c"}

	_, err := Normalize(rows, cols)
	require.NoError(t, err)

	assert.Equal(t, []byte("abc"), rows[0][0])
	assert.Equal(t, ts, rows[0][1])
	assert.Equal(t, int32(7), rows[0][2])
	assert.Equal(t, []string{"a", "b", "c"}, cols)
}

func TestNormalizeSchemaMismatch(t *testing.T) {
	_, err := Normalize([][]any{{1, "A"}, {2}}, []string{"id", "label"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 1, mismatch.Row)
	assert.Equal(t, 1, mismatch.Width)
	assert.Equal(t, 2, mismatch.Columns)
}

func TestNormalizeDuplicateColumn(t *testing.T) {
	_, err := Normalize([][]any{{1, 2}}, []string{"id", "id"})
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), `"id"`)
}

func TestValue(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 120000000, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"string", "Иванов", "Иванов"},
		{"int", 42, int64(42)},
		{"int16", int16(-3), int64(-3)},
		{"uint32", uint32(9), int64(9)},
		{"uint64 overflow", uint64(math.MaxUint64), "18446744073709551615"},
		{"float32", float32(0.1), 0.1},
		{"float64", 36.6, 36.6},
		{"nan", math.NaN(), "NaN"},
		{"inf", math.Inf(1), "+Inf"},
		{"text bytes", []byte("12.50"), "12.50"},
		{"binary bytes", []byte{0xde, 0xad, 0xff}, "0xDEADFF"},
		{"time", ts, "2024-03-05T14:07:09.12Z"},
		{"json number int", json.Number("17"), int64(17)},
		{"json number float", json.Number("1.25"), 1.25},
		{"stringer", big.NewInt(123456789), "123456789"},
		{"other", struct{ A int }{5}, "{5}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.in))
		})
	}
}

func TestRecordJSONRoundTripPreservesOrder(t *testing.T) {
	rec := FromPairs("patient_id", 12, "full_name", "Петров П.П.", "weight", 71.5, "discharged", nil, "active", false)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"patient_id":12,"full_name":"Петров П.П.","weight":71.5,"discharged":null,"active":false}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestRecordUnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestRecordSetReplacesExisting(t *testing.T) {
	r := FromPairs("a", 1, "b", 2)
	r.Set("a", int64(10))

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(10), v)
	assert.Equal(t, 2, r.Len())
}
