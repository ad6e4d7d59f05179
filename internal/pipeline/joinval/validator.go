// Package joinval proves the master/description merge is lossless before any
// data is shaped. Each rule failure is fatal with its own error code and a
// bounded sample of offending rows; the validator never returns a partial or
// approximate merge.
package joinval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"resmatch/internal/pipeline/frame"
	"resmatch/internal/pipeline/keyextract"
	dErrors "resmatch/pkg/domain-errors"
)

// sampleLimit bounds diagnostic samples in error messages.
const sampleLimit = 10

// masterKeyColumn is the canonical id column of the master table.
const masterKeyColumn = "program_stream_id"

// Merged is the validated inner join of master and description rows, one
// merged row per master row. It exposes both sides by column name so the
// shaper can apply its own collision precedence.
type Merged struct {
	master  *frame.Table
	desc    *frame.Table
	descRow []int // description row index per master row
}

// Len returns the merged row count, always equal to the master row count.
func (m *Merged) Len() int { return len(m.descRow) }

// MasterCell returns a master-side cell of merged row i.
func (m *Merged) MasterCell(i int, col string) string { return m.master.Cell(i, col) }

// DescCell returns a description-side cell of merged row i.
func (m *Merged) DescCell(i int, col string) string { return m.desc.Cell(m.descRow[i], col) }

// MasterHasColumn reports whether the master side carries the column.
func (m *Merged) MasterHasColumn(col string) bool { return m.master.HasColumn(col) }

// DescHasColumn reports whether the description side carries the column.
func (m *Merged) DescHasColumn(col string) bool { return m.desc.HasColumn(col) }

// Validate checks the three merge invariants in order and returns the merged
// view only when all pass:
//  1. every extracted id is non-null,
//  2. distinct extracted ids match the master row count exactly,
//  3. the inner join yields exactly one row per master row.
func Validate(master, desc *frame.Table, ids *keyextract.Result) (*Merged, error) {
	if desc.NumRows() != len(ids.IDs) {
		return nil, dErrors.Newf(dErrors.CodeInternal,
			"extracted ids cover %d rows, description table has %d", len(ids.IDs), desc.NumRows())
	}

	if err := checkComplete(desc, ids); err != nil {
		return nil, err
	}
	if err := checkUnique(master, ids); err != nil {
		return nil, err
	}
	return join(master, desc, ids)
}

func checkComplete(desc *frame.Table, ids *keyextract.Result) error {
	var sample []string
	missing := 0
	for row, ok := range ids.Valid {
		if ok {
			continue
		}
		missing++
		if len(sample) < sampleLimit {
			sample = append(sample, describeRow(desc, row))
		}
	}
	if missing == 0 {
		return nil
	}
	return dErrors.Newf(dErrors.CodeExtractionIncomplete,
		"%s: failed to extract canonical id for %d/%d rows; sample: %s",
		ids.Strategy, missing, len(ids.IDs), strings.Join(sample, "; "))
}

func checkUnique(master *frame.Table, ids *keyextract.Result) error {
	expected := master.NumRows()
	seen := make(map[int64]int, len(ids.IDs))
	for row, ok := range ids.Valid {
		if ok {
			seen[ids.IDs[row]]++
		}
	}
	if len(seen) == expected {
		return nil
	}

	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, strconv.FormatInt(id, 10))
		}
	}
	sort.Strings(dups)
	if len(dups) > sampleLimit {
		dups = dups[:sampleLimit]
	}
	msg := fmt.Sprintf("extracted ids not unique/complete: unique=%d, expected=%d", len(seen), expected)
	if len(dups) > 0 {
		msg += "; duplicate ids: " + strings.Join(dups, ", ")
	}
	return dErrors.New(dErrors.CodeIDNotUnique, msg)
}

func join(master, desc *frame.Table, ids *keyextract.Result) (*Merged, error) {
	expected := master.NumRows()

	byID := make(map[int64][]int, len(ids.IDs))
	for row, ok := range ids.Valid {
		if ok {
			byID[ids.IDs[row]] = append(byID[ids.IDs[row]], row)
		}
	}

	descRow := make([]int, 0, expected)
	matched := 0
	var masterOnly []string
	masterIDs := make(map[int64]struct{}, expected)
	for i := 0; i < expected; i++ {
		id, err := strconv.ParseInt(frame.CleanText(master.Cell(i, masterKeyColumn)), 10, 64)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation,
				"master row %d: %s is not an integer: %q", i+1, masterKeyColumn, master.Cell(i, masterKeyColumn))
		}
		masterIDs[id] = struct{}{}

		rows := byID[id]
		matched += len(rows)
		if len(rows) == 1 {
			descRow = append(descRow, rows[0])
			continue
		}
		if len(masterOnly) < sampleLimit && len(rows) == 0 {
			masterOnly = append(masterOnly, strconv.FormatInt(id, 10))
		}
	}

	if matched == expected && len(descRow) == expected {
		return &Merged{master: master, desc: desc, descRow: descRow}, nil
	}

	var descOnly []string
	for id := range byID {
		if _, ok := masterIDs[id]; !ok && len(descOnly) < sampleLimit {
			descOnly = append(descOnly, strconv.FormatInt(id, 10))
		}
	}
	sort.Strings(masterOnly)
	sort.Strings(descOnly)

	msg := fmt.Sprintf("join failed: expected %d merged rows, got %d", expected, matched)
	if len(masterOnly) > 0 {
		msg += "; master ids with no description: " + strings.Join(masterOnly, ", ")
	}
	if len(descOnly) > 0 {
		msg += "; extracted ids with no master row: " + strings.Join(descOnly, ", ")
	}
	return nil, dErrors.New(dErrors.CodeJoinMismatch, msg)
}

// describeRow renders the identifier fields of a description row for a
// diagnostic sample.
func describeRow(desc *frame.Table, row int) string {
	var parts []string
	for _, col := range []string{"document_id", "source"} {
		if desc.HasColumn(col) {
			parts = append(parts, fmt.Sprintf("%s=%q", col, desc.Cell(row, col)))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("row %d", row+1)
	}
	return fmt.Sprintf("row %d (%s)", row+1, strings.Join(parts, ", "))
}
