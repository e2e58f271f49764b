package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/normalize"
)

var (
	scenarioRows = [][]any{{1, "A"}, {2, "B"}}
	scenarioCols = []string{"id", "label"}
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "out", "query_results.json")
}

func TestArchiveScenarioGolden(t *testing.T) {
	path := storePath(t)
	a := New(path)

	res, err := a.Archive(context.Background(), "Q1", scenarioRows, scenarioCols, "2024-01-01T00:00:00")
	require.NoError(t, err)
	assert.NoError(t, res.Recovered)
	assert.Equal(t, 1, res.Total)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "archive_scenario", data)
}

func TestArchiveEmptyResultGolden(t *testing.T) {
	path := storePath(t)

	_, err := New(path).Archive(context.Background(), "Doctors without appointments", nil, []string{"doctor_id"}, "2024-01-01T00:00:00")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "empty_result", data)
}

func TestArchiveRoundTrip(t *testing.T) {
	path := storePath(t)
	a := New(path)

	rows := [][]any{
		{int64(1), "Иванов И.И.", 36.6, nil, true},
		{int64(2), "Smith J.", 37.2, "2024-02-01", false},
	}
	cols := []string{"patient_id", "full_name", "temperature", "discharged_at", "insured"}

	_, err := a.Archive(context.Background(), "Patients", rows, cols, "2024-05-01T10:00:00.123")
	require.NoError(t, err)

	want, err := a.Build("Patients", rows, cols, "2024-05-01T10:00:00.123")
	require.NoError(t, err)

	doc, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Queries)

	got := doc.Queries[len(doc.Queries)-1]
	assert.Equal(t, want, got)
	assert.Equal(t, got.RowCount, len(got.Data))
}

func TestArchiveMissingStoreCreatesSingleRun(t *testing.T) {
	path := storePath(t)
	_, err := os.Stat(path)
	require.True(t, errors.Is(err, os.ErrNotExist))

	res, err := New(path).Archive(context.Background(), "Q1", scenarioRows, scenarioCols, "t0")
	require.NoError(t, err)
	assert.NoError(t, res.Recovered)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Queries, 1)
}

func TestArchiveAccumulatesInCallOrder(t *testing.T) {
	path := storePath(t)
	a := New(path)

	names := []string{"Q1", "Q2", "Q1", "Q3", "Q1"}
	for i, name := range names {
		res, err := a.Archive(context.Background(), name, scenarioRows, scenarioCols, "t")
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Total)
	}

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Queries, len(names))
	for i, name := range names {
		assert.Equal(t, name, doc.Queries[i].QueryName)
	}
}

func TestArchiveCorruptStoreIsRecovered(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	res, err := New(path).Archive(context.Background(), "Q1", scenarioRows, scenarioCols, "t")
	require.NoError(t, err)
	assert.ErrorIs(t, res.Recovered, ErrStoreRead)

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Queries, 1)
	assert.Equal(t, "Q1", doc.Queries[0].QueryName)
}

func TestArchiveEmptyStoreIsNotAnAnomaly(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	res, err := New(path).Archive(context.Background(), "Q1", scenarioRows, scenarioCols, "t")
	require.NoError(t, err)
	assert.NoError(t, res.Recovered)
	assert.Equal(t, 1, res.Total)
}

func TestArchiveWrongShapeIsRecovered(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"runs": []}`), 0o644))

	res, err := New(path).Archive(context.Background(), "Q1", scenarioRows, scenarioCols, "t")
	require.NoError(t, err)
	assert.ErrorIs(t, res.Recovered, ErrStoreRead)
}

func TestArchiveWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory at the store path can be neither parsed nor replaced.
	path := filepath.Join(dir, "store.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := New(path).Archive(context.Background(), "Q1", scenarioRows, scenarioCols, "t")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreWrite)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestArchiveSchemaMismatchLeavesStoreUntouched(t *testing.T) {
	path := storePath(t)
	a := New(path)

	_, err := a.Archive(context.Background(), "Q1", scenarioRows, scenarioCols, "t")
	require.NoError(t, err)

	_, err = a.Archive(context.Background(), "bad", [][]any{{1}}, scenarioCols, "t")
	require.ErrorIs(t, err, normalize.ErrSchemaMismatch)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Queries, 1)
}

func TestCommitMany(t *testing.T) {
	path := storePath(t)
	a := New(path)

	var runs []QueryRun
	for _, name := range []string{"A", "B", "C"} {
		run, err := a.Build(name, scenarioRows, scenarioCols, "t")
		require.NoError(t, err)
		runs = append(runs, run)
	}

	res, err := a.Commit(context.Background(), runs...)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Runs, 3)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, runs, doc.Queries)
}

func TestDocumentLatest(t *testing.T) {
	doc := &Document{Queries: []QueryRun{
		{QueryName: "A", Timestamp: "1"},
		{QueryName: "B", Timestamp: "2"},
		{QueryName: "A", Timestamp: "3"},
	}}

	latest := doc.Latest()
	require.Len(t, latest, 2)
	assert.Equal(t, "B", latest[0].QueryName)
	assert.Equal(t, "A", latest[1].QueryName)
	assert.Equal(t, "3", latest[1].Timestamp)
}
