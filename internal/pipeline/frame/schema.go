package frame

import (
	"strconv"

	dErrors "resmatch/pkg/domain-errors"
)

// Column declares one expected column of a source table.
type Column struct {
	Name     string
	Required bool
	Numeric  bool // non-empty cells must parse as integers
}

// Schema declares the expected shape of a source table. Validating once at
// ingestion turns "column missing" from a runtime surprise into a typed
// validation failure.
type Schema struct {
	Table   string
	Columns []Column
}

// Validate checks the table against the declared schema.
func (s Schema) Validate(t *Table) error {
	for _, col := range s.Columns {
		if !t.HasColumn(col.Name) {
			if col.Required {
				return dErrors.Newf(dErrors.CodeValidation,
					"%s: required column %q missing", s.Table, col.Name)
			}
			continue
		}
		if !col.Numeric {
			continue
		}
		for row, cell := range t.Column(col.Name) {
			cell = CleanText(cell)
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				return dErrors.Newf(dErrors.CodeValidation,
					"%s: column %q row %d: %q is not an integer", s.Table, col.Name, row+1, cell)
			}
		}
	}
	return nil
}
