package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/archive"
)

const (
	runsSheet    = "Runs"
	maxSheetName = 31
	maxColWidth  = 60
)

var runsHeader = []string{"#", "query_name", "timestamp", "row_count", "sheet"}

// Styles are int because excelize.File.NewStyle() returns style index
type Styles struct {
	Integer int
	Decimal int
	Header  int
}

// Creates new default styles
func NewStyles(f *excelize.File) (*Styles, error) {
	integerStyle, err := f.NewStyle(&excelize.Style{NumFmt: 1})
	if err != nil {
		return nil, err
	}

	decimalPlaces := 2
	decimalStyle, err := f.NewStyle(&excelize.Style{
		NumFmt:        2,
		DecimalPlaces: &decimalPlaces,
	})
	if err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}

	return &Styles{
		Integer: integerStyle,
		Decimal: decimalStyle,
		Header:  headerStyle,
	}, nil
}

type ExcelOptions struct {
	// Latest keeps only the most recent run of every query name.
	Latest bool
	// NoData is written on the sheet of a run without rows.
	NoData string
}

// Excel writes doc to an .xlsx workbook: a Runs overview sheet followed by
// one sheet per query run in document order.
func Excel(ctx context.Context, doc *archive.Document, output string, options ExcelOptions) error {
	runs := doc.Queries
	if options.Latest {
		runs = doc.Latest()
	}
	if options.NoData == "" {
		options.NoData = "No rows returned"
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.ErrorContext(ctx, "Error closing file", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), runsSheet); err != nil {
		return err
	}

	styles, err := NewStyles(f)
	if err != nil {
		return err
	}

	used := map[string]bool{strings.ToLower(runsSheet): true}
	sheets := make([]string, len(runs))
	for i, run := range runs {
		sheets[i] = uniqueSheetName(run.QueryName, used)
		if _, err := f.NewSheet(sheets[i]); err != nil {
			slog.ErrorContext(ctx, "Error creating sheet", "sheet", sheets[i], "error", err)
			return err
		}
	}

	if err := writeRunsSheet(f, runs, sheets, styles); err != nil {
		slog.ErrorContext(ctx, "Error writing runs sheet", "error", err)
		return err
	}

	for i, run := range runs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := writeRunSheet(f, sheets[i], i+1, run, styles, options.NoData); err != nil {
			slog.ErrorContext(ctx, "Error writing data to sheet", "sheet", sheets[i], "error", err)
			return err
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(output); err != nil {
		slog.ErrorContext(ctx, "Error saving file", "error", err)
		return err
	}

	slog.InfoContext(ctx, "Workbook exported", "path", output, "runs", len(runs))
	return nil
}

func writeRunsSheet(f *excelize.File, runs []archive.QueryRun, sheets []string, styles *Styles) error {
	rows := make([][]any, len(runs))
	for i, run := range runs {
		rows[i] = []any{i + 1, run.QueryName, run.Timestamp, run.RowCount, sheets[i]}
	}

	return writeTable(f, runsSheet, "Runs", runsHeader, rows, styles)
}

func writeRunSheet(
	f *excelize.File, sheetName string, index int,
	run archive.QueryRun, styles *Styles, noData string,
) error {
	if len(run.Data) == 0 {
		sw, err := f.NewStreamWriter(sheetName)
		if err != nil {
			return err
		}
		if err := sw.SetRow("A1", []any{excelize.Cell{Value: noData, StyleID: styles.Header}}); err != nil {
			return err
		}
		return sw.Flush()
	}

	headers := run.Data[0].Keys()
	rows := make([][]any, len(run.Data))
	for i, rec := range run.Data {
		row := make([]any, len(headers))
		for j, key := range headers {
			row[j], _ = rec.Get(key)
		}
		rows[i] = row
	}

	return writeTable(f, sheetName, fmt.Sprintf("Query_%d", index), headers, rows, styles)
}

// writeTable streams a header row plus rows into sheetName and wraps them
// in a styled Excel table with a frozen header.
func writeTable(
	f *excelize.File, sheetName, tableName string,
	headers []string, rows [][]any, styles *Styles,
) error {
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	colsWidth := make([]float64, len(headers))
	for j, h := range headers {
		colsWidth[j] = float64(len([]rune(h)))
	}
	for _, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			colsWidth[j] = max(colsWidth[j], float64(len([]rune(fmt.Sprint(v)))))
		}
	}
	for j, width := range colsWidth {
		if err := sw.SetColWidth(j+1, j+1, min(width+2, maxColWidth)); err != nil {
			return err
		}
	}

	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	headerRow := make([]any, len(headers))
	for k, v := range headers {
		headerRow[k] = excelize.Cell{Value: v, StyleID: styles.Header}
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return err
	}

	for i, row := range rows {
		rowData := make([]any, len(row))
		for j, val := range row {
			switch val.(type) {
			case int, int64:
				rowData[j] = excelize.Cell{Value: val, StyleID: styles.Integer}
			case float64:
				rowData[j] = excelize.Cell{Value: val, StyleID: styles.Decimal}
			default:
				rowData[j] = val
			}
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, rowData); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(headers), len(rows)+1)

		enabled := true
		err = sw.AddTable(&excelize.Table{
			Range:             fmt.Sprintf("A1:%s", lastCell),
			Name:              tableName,
			StyleName:         "TableStyleMedium2",
			ShowFirstColumn:   false,
			ShowLastColumn:    false,
			ShowRowStripes:    &enabled,
			ShowColumnStripes: false,
		})
		if err != nil {
			return err
		}
	}

	return sw.Flush()
}

// uniqueSheetName turns a query name into a valid, unused sheet name.
// Sheet names are case-insensitive, at most 31 characters and cannot hold
// any of []:*?/\ or start or end with an apostrophe.
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	clean = strings.Trim(strings.TrimSpace(clean), "'")
	if clean == "" {
		clean = "Query"
	}

	candidate := truncate(clean, maxSheetName)
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		candidate = truncate(clean, maxSheetName-len(suffix)) + suffix
	}

	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return strings.TrimRight(string(rs[:n]), " '")
}
