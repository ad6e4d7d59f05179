// Package shape projects the validated merge and the reference tables into
// the five row sets of the target schema. Shaping is a pure function of its
// inputs: identical input produces identical row sets, so the loader's
// idempotence holds end to end.
package shape

import (
	"sort"
	"strconv"

	"resmatch/internal/pipeline/frame"
	"resmatch/internal/pipeline/joinval"
	dErrors "resmatch/pkg/domain-errors"
)

// reservedDescColumns are the metadata/id columns of the description table.
// Every other column is a named free-text section. The extracted-id helper
// column never appears in the description frame (it lives in the extractor
// result), but stays reserved defensively in case a source export grows one.
var reservedDescColumns = map[string]struct{}{
	"document_id":                    {},
	"source":                         {},
	"n_program_description_sections": {},
	"program_name":                   {},
	"match_iteration_name":           {},
	"match_iteration_id":             {},
	"program_description_id":         {},
	"program_stream_id_extracted":    {},
}

// Options parameterize shaping.
type Options struct {
	// MatchIterationID tags every program stream row; the master export does
	// not carry it per-row.
	MatchIterationID int64
}

// Build produces all five row sets from the validated inputs.
func Build(disciplines, master, desc *frame.Table, merged *joinval.Merged, opts Options) (*RowSets, error) {
	out := &RowSets{}

	var err error
	if out.Disciplines, err = buildDisciplines(disciplines); err != nil {
		return nil, err
	}
	if out.Schools, err = buildSchools(master); err != nil {
		return nil, err
	}
	if out.Streams, err = buildStreams(master, opts.MatchIterationID); err != nil {
		return nil, err
	}
	if out.Descriptions, err = buildDescriptions(merged); err != nil {
		return nil, err
	}
	if out.Sections, err = buildSections(desc); err != nil {
		return nil, err
	}
	return out, nil
}

// buildDisciplines selects the dimension rows: null-key rows dropped, exact
// duplicates collapsed, first-seen order preserved.
func buildDisciplines(t *frame.Table) ([]DisciplineRow, error) {
	seen := make(map[DisciplineRow]struct{})
	var rows []DisciplineRow
	for i := 0; i < t.NumRows(); i++ {
		idCell := frame.CleanText(t.Cell(i, "discipline_id"))
		name := frame.CleanText(t.Cell(i, "discipline"))
		if idCell == "" || name == "" {
			continue
		}
		id, err := strconv.ParseInt(idCell, 10, 64)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation,
				"disciplines row %d: discipline_id %q is not an integer", i+1, idCell)
		}
		row := DisciplineRow{DisciplineID: id, Discipline: name}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildSchools(master *frame.Table) ([]SchoolRow, error) {
	seen := make(map[SchoolRow]struct{})
	var rows []SchoolRow
	for i := 0; i < master.NumRows(); i++ {
		idCell := frame.CleanText(master.Cell(i, "school_id"))
		name := frame.CleanText(master.Cell(i, "school_name"))
		if idCell == "" || name == "" {
			continue
		}
		id, err := strconv.ParseInt(idCell, 10, 64)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation,
				"master row %d: school_id %q is not an integer", i+1, idCell)
		}
		row := SchoolRow{SchoolID: id, SchoolName: name}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildStreams(master *frame.Table, matchIterationID int64) ([]ProgramStreamRow, error) {
	rows := make([]ProgramStreamRow, 0, master.NumRows())
	for i := 0; i < master.NumRows(); i++ {
		streamID, err := cellInt(master, i, "program_stream_id")
		if err != nil {
			return nil, err
		}
		disciplineID, err := cellInt(master, i, "discipline_id")
		if err != nil {
			return nil, err
		}
		schoolID, err := cellInt(master, i, "school_id")
		if err != nil {
			return nil, err
		}
		rows = append(rows, ProgramStreamRow{
			ProgramStreamID:   streamID,
			DisciplineID:      disciplineID,
			SchoolID:          schoolID,
			DisciplineName:    master.Cell(i, "discipline_name"),
			SchoolName:        master.Cell(i, "school_name"),
			ProgramStreamName: master.Cell(i, "program_stream_name"),
			ProgramSite:       master.Cell(i, "program_site"),
			ProgramStream:     master.Cell(i, "program_stream"),
			ProgramName:       master.Cell(i, "program_name"),
			ProgramURL:        master.Cell(i, "program_url"),
			MatchIterationID:  matchIterationID,
		})
	}
	return rows, nil
}

func buildDescriptions(merged *joinval.Merged) ([]ProgramDescriptionRow, error) {
	rows := make([]ProgramDescriptionRow, 0, merged.Len())
	for i := 0; i < merged.Len(); i++ {
		descID, err := mergedInt(merged, i, "program_description_id")
		if err != nil {
			return nil, err
		}
		streamID, err := mergedInt(merged, i, "program_stream_id")
		if err != nil {
			return nil, err
		}
		iterID, err := mergedInt(merged, i, "match_iteration_id")
		if err != nil {
			return nil, err
		}
		sectionCount, err := mergedInt(merged, i, "n_program_description_sections")
		if err != nil {
			return nil, err
		}
		programName, err := resolve(merged, i, "program_name")
		if err != nil {
			return nil, err
		}
		rows = append(rows, ProgramDescriptionRow{
			ProgramDescriptionID: descID,
			ProgramStreamID:      streamID,
			SourceURL:            merged.DescCell(i, "source"),
			DocumentID:           merged.DescCell(i, "document_id"),
			MatchIterationID:     iterID,
			MatchIterationName:   merged.DescCell(i, "match_iteration_name"),
			ProgramName:          programName,
			SectionCount:         sectionCount,
		})
	}
	return rows, nil
}

// buildSections flattens the variable-width description table into tall rows:
// one row per (document, section column) whose trimmed value is non-blank.
// Output is sorted by (description id, section name) so shaping stays
// byte-deterministic regardless of source column order.
func buildSections(desc *frame.Table) ([]SectionRow, error) {
	var sectionCols []string
	for _, col := range desc.Columns() {
		if _, reserved := reservedDescColumns[col]; !reserved {
			sectionCols = append(sectionCols, col)
		}
	}

	var rows []SectionRow
	for i := 0; i < desc.NumRows(); i++ {
		idCell := frame.CleanText(desc.Cell(i, "program_description_id"))
		if idCell == "" {
			continue
		}
		descID, err := strconv.ParseInt(idCell, 10, 64)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation,
				"description row %d: program_description_id %q is not an integer", i+1, idCell)
		}
		for _, col := range sectionCols {
			text := frame.CleanText(desc.Cell(i, col))
			if text == "" {
				continue
			}
			rows = append(rows, SectionRow{
				ProgramDescriptionID: descID,
				SectionName:          col,
				SectionText:          text,
			})
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].ProgramDescriptionID != rows[b].ProgramDescriptionID {
			return rows[a].ProgramDescriptionID < rows[b].ProgramDescriptionID
		}
		return rows[a].SectionName < rows[b].SectionName
	})
	return rows, nil
}

// resolve applies the column-collision rule: the description-side value wins
// when present (it is the most recent authoritative copy tied to the
// canonical id), else the master-side value, else the field is unresolvable.
func resolve(merged *joinval.Merged, i int, col string) (string, error) {
	if merged.DescHasColumn(col) {
		if v := frame.CleanText(merged.DescCell(i, col)); v != "" {
			return v, nil
		}
	}
	if merged.MasterHasColumn(col) {
		if v := frame.CleanText(merged.MasterCell(i, col)); v != "" {
			return v, nil
		}
	}
	if !merged.DescHasColumn(col) && !merged.MasterHasColumn(col) {
		return "", dErrors.Newf(dErrors.CodeAmbiguousColumn,
			"column %q absent from both merged sources", col)
	}
	return "", nil
}

func cellInt(t *frame.Table, row int, col string) (int64, error) {
	cell := frame.CleanText(t.Cell(row, col))
	if cell == "" {
		return 0, dErrors.Newf(dErrors.CodeValidation,
			"%s row %d: column %q is empty", t.Name(), row+1, col)
	}
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation,
			"%s row %d: column %q value %q is not an integer", t.Name(), row+1, col, cell)
	}
	return v, nil
}

func mergedInt(merged *joinval.Merged, i int, col string) (int64, error) {
	cell := frame.CleanText(merged.DescCell(i, col))
	if cell == "" {
		cell = frame.CleanText(merged.MasterCell(i, col))
	}
	if cell == "" {
		return 0, dErrors.Newf(dErrors.CodeValidation,
			"merged row %d: column %q is empty on both sides", i+1, col)
	}
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation,
			"merged row %d: column %q value %q is not an integer", i+1, col, cell)
	}
	return v, nil
}
