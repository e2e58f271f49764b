package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/db"
)

type recordingQuerier struct {
	queries []string
}

func (r *recordingQuerier) Query(_ context.Context, query string) (*db.ResultSet, error) {
	r.queries = append(r.queries, query)
	return &db.ResultSet{}, nil
}

func TestHospitalCatalog(t *testing.T) {
	c := Hospital()

	assert.Equal(t, 14, c.Len())

	names := c.Names()
	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate %q", name)
		seen[name] = true
	}

	assert.Equal(t, "Patients with at least one appointment", names[0])
	assert.Equal(t, names, Hospital().Names(), "order is deterministic")
}

func TestStaticRunsItsSQL(t *testing.T) {
	e := Static("one", "\n  SELECT 1  \n")
	assert.Equal(t, "SELECT 1", e.SQL)

	q := &recordingQuerier{}
	_, err := e.Fn(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1"}, q.queries)
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	fn := func(context.Context, Querier) (*db.ResultSet, error) { return nil, nil }

	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty name", []Entry{Static(" ", "SELECT 1")}},
		{"duplicate", []Entry{Static("a", "SELECT 1"), Static("a", "SELECT 2")}},
		{"no function", []Entry{{Name: "a"}}},
		{"write query", []Entry{Static("purge", "DELETE FROM Patients")}},
		{"ddl", []Entry{Static("drop", "DROP TABLE Patients")}},
		{"unknown statement", []Entry{{Name: "exec", SQL: "EXEC sp_who", Fn: fn}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries...)
			assert.Error(t, err)
		})
	}
}

func TestNewAcceptsFunctionOnlyEntries(t *testing.T) {
	c, err := New(Entry{Name: "custom", Fn: func(context.Context, Querier) (*db.ResultSet, error) {
		return &db.ResultSet{}, nil
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestSelectKeepsCatalogOrder(t *testing.T) {
	c := MustNew(Static("a", "SELECT 1"), Static("b", "SELECT 2"), Static("c", "SELECT 3"))

	sub, err := c.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, sub.Names())

	all, err := c.Select()
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())

	_, err = c.Select("a", "zzz")
	var unknown *UnknownQueryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "zzz", unknown.Name)
}

func TestEntriesReturnsCopy(t *testing.T) {
	c := MustNew(Static("a", "SELECT 1"))
	entries := c.Entries()
	entries[0].Name = "changed"

	assert.Equal(t, []string{"a"}, c.Names())
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew(Static("x", "UPDATE t SET a = 1")) })
}
