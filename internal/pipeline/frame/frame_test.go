package frame

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	dErrors "resmatch/pkg/domain-errors"
)

func TestReadCSVPadsShortRows(t *testing.T) {
	in := "a,b,c\n1,2,3\n4,5\n"
	tbl, err := ReadCSV(strings.NewReader(in), "short")
	require.NoError(t, err)

	require.Equal(t, 2, tbl.NumRows())
	require.Equal(t, "5", tbl.Cell(1, "b"))
	require.Equal(t, "", tbl.Cell(1, "c"))
}

func TestReadCSVDropsPandasIndex(t *testing.T) {
	in := "Unnamed: 0,document_id,source\n0,1503-100,https://x/1503/100\n"
	tbl, err := ReadCSV(strings.NewReader(in), "desc")
	require.NoError(t, err)

	require.False(t, tbl.HasColumn("Unnamed: 0"))
	require.Equal(t, "1503-100", tbl.Cell(0, "document_id"))
}

func TestReadCSVStripsHeaderBOM(t *testing.T) {
	in := "\uFEFFdocument_id,source\n1503-7,u\n"
	tbl, err := ReadCSV(strings.NewReader(in), "bom")
	require.NoError(t, err)
	require.True(t, tbl.HasColumn("document_id"))
}

func TestReadXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discipline.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"discipline_id", "discipline"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{1, "Surgery"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{2, "Family Medicine"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ReadXLSXFile(path)
	require.NoError(t, err)

	require.Equal(t, 2, tbl.NumRows())
	require.Equal(t, "Surgery", tbl.Cell(0, "discipline"))
	require.Equal(t, "2", tbl.Cell(1, "discipline_id"))
}

func TestSchemaMissingRequiredColumn(t *testing.T) {
	tbl, err := New("master", []string{"program_stream_id"})
	require.NoError(t, err)

	s := Schema{Table: "master", Columns: []Column{
		{Name: "program_stream_id", Required: true, Numeric: true},
		{Name: "school_id", Required: true, Numeric: true},
	}}
	err = s.Validate(tbl)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	require.Contains(t, err.Error(), "school_id")
}

func TestSchemaNumericColumn(t *testing.T) {
	tbl, err := New("master", []string{"program_stream_id"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]string{"100"}))
	require.NoError(t, tbl.AppendRow([]string{""})) // empty cells are fine
	require.NoError(t, tbl.AppendRow([]string{"abc"}))

	s := Schema{Table: "master", Columns: []Column{
		{Name: "program_stream_id", Required: true, Numeric: true},
	}}
	err = s.Validate(tbl)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"abc"`)
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "1503-100", CleanText("\uFEFF 1503-100 "))
}

func TestDropColumnReindexes(t *testing.T) {
	tbl, err := New("t", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]string{"1", "2", "3"}))

	tbl.DropColumn("b")
	require.False(t, tbl.HasColumn("b"))
	require.Equal(t, "3", tbl.Cell(0, "c"))
	require.Equal(t, []string{"a", "c"}, tbl.Columns())
}
