package joinval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"resmatch/internal/pipeline/frame"
	"resmatch/internal/pipeline/keyextract"
	dErrors "resmatch/pkg/domain-errors"
)

func masterTable(t *testing.T, ids ...int64) *frame.Table {
	t.Helper()
	tbl, err := frame.New("program_master", []string{"program_stream_id", "program_name"})
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, tbl.AppendRow([]string{fmt.Sprintf("%d", id), fmt.Sprintf("Program %d", id)}))
	}
	return tbl
}

func descTable(t *testing.T, docs ...string) *frame.Table {
	t.Helper()
	tbl, err := frame.New("x_section", []string{"document_id", "source", "summary"})
	require.NoError(t, err)
	for i, doc := range docs {
		require.NoError(t, tbl.AppendRow([]string{doc, fmt.Sprintf("https://host/p/1503/%d", i), "text"}))
	}
	return tbl
}

func extract(t *testing.T, tbl *frame.Table) *keyextract.Result {
	t.Helper()
	res, err := keyextract.Extract(tbl, keyextract.DefaultOptions())
	require.NoError(t, err)
	return res
}

func TestValidateCleanJoin(t *testing.T) {
	master := masterTable(t, 100, 101, 102)
	desc := descTable(t, "1503-101", "1503-100", "1503-102")

	merged, err := Validate(master, desc, extract(t, desc))
	require.NoError(t, err)
	require.Equal(t, 3, merged.Len())

	// Merged rows follow master order regardless of description order.
	require.Equal(t, "Program 100", merged.MasterCell(0, "program_name"))
	require.Equal(t, "1503-100", merged.DescCell(0, "document_id"))
	require.Equal(t, "1503-102", merged.DescCell(2, "document_id"))
}

func TestValidateNullIDFatal(t *testing.T) {
	// 19 good rows of 20 clears the extractor threshold but the remaining
	// null must abort the run, not shrink the corpus.
	master := masterTable(t)
	docs := make([]string, 0, 20)
	for i := 0; i < 19; i++ {
		docs = append(docs, fmt.Sprintf("1503-%d", i))
	}
	docs = append(docs, "no digits at all")
	desc, err := frame.New("x_section", []string{"document_id"})
	require.NoError(t, err)
	for _, d := range docs {
		require.NoError(t, desc.AppendRow([]string{d}))
	}

	_, err = Validate(master, desc, extract(t, desc))
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeExtractionIncomplete))
	require.Contains(t, err.Error(), "1/20")
	require.Contains(t, err.Error(), "no digits at all")
}

func TestValidateDuplicateIDFatal(t *testing.T) {
	master := masterTable(t, 100, 101, 102)
	desc := descTable(t, "1503-100", "1503-101", "1503-101")

	_, err := Validate(master, desc, extract(t, desc))
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeIDNotUnique))
	require.Contains(t, err.Error(), "unique=2, expected=3")
	require.Contains(t, err.Error(), "101")
}

func TestValidateJoinMismatchFatal(t *testing.T) {
	// Distinct count matches but one id points nowhere: id sets differ.
	master := masterTable(t, 100, 101, 102)
	desc := descTable(t, "1503-100", "1503-101", "1503-999")

	_, err := Validate(master, desc, extract(t, desc))
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeJoinMismatch))
	require.Contains(t, err.Error(), "expected 3 merged rows, got 2")
	require.Contains(t, err.Error(), "master ids with no description: 102")
	require.Contains(t, err.Error(), "extracted ids with no master row: 999")
}

func TestValidateNeverReturnsPartialMerge(t *testing.T) {
	master := masterTable(t, 100, 101)
	desc := descTable(t, "1503-100", "1503-999")

	merged, err := Validate(master, desc, extract(t, desc))
	require.Error(t, err)
	require.Nil(t, merged)
}

func TestValidateBadMasterKey(t *testing.T) {
	tbl, err := frame.New("program_master", []string{"program_stream_id"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]string{"not-a-number"}))
	desc := descTable(t, "1503-100")

	_, err = Validate(tbl, desc, extract(t, desc))
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
