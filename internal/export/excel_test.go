package export

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/archive"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/normalize"
)

func testDocument() *archive.Document {
	return &archive.Document{Queries: []archive.QueryRun{
		{
			QueryName: "Patients with at least one appointment",
			Timestamp: "2024-01-01T00:00:00",
			RowCount:  2,
			Data: []normalize.Record{
				normalize.FromPairs("patient_id", 1, "full_name", "Иванов И.И.", "weight", 80.5),
				normalize.FromPairs("patient_id", 2, "full_name", "Petrova A.", "weight", nil),
			},
		},
		{
			QueryName: "Doctors without appointments",
			Timestamp: "2024-01-01T00:00:01",
			RowCount:  0,
			Data:      []normalize.Record{},
		},
		{
			QueryName: "Patients with at least one appointment",
			Timestamp: "2024-01-02T00:00:00",
			RowCount:  1,
			Data: []normalize.Record{
				normalize.FromPairs("patient_id", 3, "full_name", "Sidorov S.", "weight", 70.0),
			},
		},
	}}
}

func TestExcelAllRuns(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xlsx")

	err := Excel(context.Background(), testDocument(), out, ExcelOptions{NoData: "Нет данных"})
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"Runs",
		"Patients with at least one appo",
		"Doctors without appointments",
		"Patients with at least one (2)",
	}, f.GetSheetList())

	runs, err := f.GetRows("Runs")
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, runsHeader, runs[0])
	assert.Equal(t, []string{"2", "Doctors without appointments", "2024-01-01T00:00:01", "0", "Doctors without appointments"}, runs[2])

	rows, err := f.GetRows("Patients with at least one appo")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"patient_id", "full_name", "weight"}, rows[0])
	assert.Equal(t, "Иванов И.И.", rows[1][1])
	assert.Equal(t, "Petrova A.", rows[2][1])

	empty, err := f.GetRows("Doctors without appointments")
	require.NoError(t, err)
	require.Len(t, empty, 1)
	assert.Equal(t, []string{"Нет данных"}, empty[0])
}

func TestExcelLatestOnly(t *testing.T) {
	out := filepath.Join(t.TempDir(), "latest.xlsx")

	require.NoError(t, Excel(context.Background(), testDocument(), out, ExcelOptions{Latest: true}))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Runs", "Doctors without appointments", "Patients with at least one appo"}, f.GetSheetList())

	rows, err := f.GetRows("Patients with at least one appo")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sidorov S.", rows[1][1])
}

func TestExcelEmptyDocument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, Excel(context.Background(), archive.NewDocument(), out, ExcelOptions{}))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Runs"}, f.GetSheetList())
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{"runs": true}

	assert.Equal(t, "a_b_c_d", uniqueSheetName("a/b:c?d", used))
	assert.Equal(t, "Runs (2)", uniqueSheetName("Runs", used))
	assert.Equal(t, "Query", uniqueSheetName("''", used))
	assert.Equal(t, "___", uniqueSheetName("***", used))
	assert.Equal(t, "Query (2)", uniqueSheetName("", used))

	long := strings.Repeat("я", 40)
	first := uniqueSheetName(long, used)
	second := uniqueSheetName(long, used)
	assert.Equal(t, 31, len([]rune(first)))
	assert.Equal(t, 31, len([]rune(second)))
	assert.True(t, strings.HasSuffix(second, " (2)"))
	assert.NotEqual(t, first, second)
}
