package service

import (
	"context"
	"fmt"
	"path/filepath"

	"resmatch/internal/pipeline/frame"
)

// FileSource reads the three source exports from a data directory. File
// names carry the match iteration prefix the exports ship with.
type FileSource struct {
	dataDir   string
	iteration int64
}

// NewFileSource constructs a FileSource for one match iteration.
func NewFileSource(dataDir string, iteration int64) *FileSource {
	return &FileSource{dataDir: dataDir, iteration: iteration}
}

// Read parses the disciplines and master spreadsheets and the description
// sections CSV.
func (f *FileSource) Read(ctx context.Context) (*Sources, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	disciplines, err := frame.ReadXLSXFile(f.path("discipline.xlsx"))
	if err != nil {
		return nil, err
	}
	master, err := frame.ReadXLSXFile(f.path("program_master.xlsx"))
	if err != nil {
		return nil, err
	}
	descriptions, err := frame.ReadCSVFile(f.path("program_descriptions_x_section.csv"))
	if err != nil {
		return nil, err
	}

	return &Sources{
		Disciplines:  disciplines,
		Master:       master,
		Descriptions: descriptions,
	}, nil
}

func (f *FileSource) path(suffix string) string {
	return filepath.Join(f.dataDir, fmt.Sprintf("%d_%s", f.iteration, suffix))
}

// Declared source schemas; validated once at ingestion so a missing column
// fails as a typed validation error instead of surfacing mid-shape.
var (
	disciplinesSchema = frame.Schema{Table: "disciplines", Columns: []frame.Column{
		{Name: "discipline_id", Required: true, Numeric: true},
		{Name: "discipline", Required: true},
	}}
	masterSchema = frame.Schema{Table: "program_master", Columns: []frame.Column{
		{Name: "program_stream_id", Required: true, Numeric: true},
		{Name: "discipline_id", Required: true, Numeric: true},
		{Name: "school_id", Required: true, Numeric: true},
		{Name: "school_name", Required: true},
		{Name: "program_name"},
		{Name: "program_url"},
	}}
	descriptionsSchema = frame.Schema{Table: "x_section", Columns: []frame.Column{
		{Name: "program_description_id", Required: true, Numeric: true},
		{Name: "match_iteration_id", Numeric: true},
		{Name: "n_program_description_sections", Numeric: true},
	}}
)

func validateSources(src *Sources) error {
	if err := disciplinesSchema.Validate(src.Disciplines); err != nil {
		return err
	}
	if err := masterSchema.Validate(src.Master); err != nil {
		return err
	}
	return descriptionsSchema.Validate(src.Descriptions)
}
