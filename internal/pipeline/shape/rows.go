package shape

// Row types mirror the five relational tables. Natural ids come from the
// source; surrogate keys exist only on section rows and are assigned by the
// database.

type DisciplineRow struct {
	DisciplineID int64
	Discipline   string
}

type SchoolRow struct {
	SchoolID   int64
	SchoolName string
}

type ProgramStreamRow struct {
	ProgramStreamID   int64
	DisciplineID      int64
	SchoolID          int64
	DisciplineName    string
	SchoolName        string
	ProgramStreamName string
	ProgramSite       string
	ProgramStream     string
	ProgramName       string
	ProgramURL        string
	MatchIterationID  int64
}

type ProgramDescriptionRow struct {
	ProgramDescriptionID int64
	ProgramStreamID      int64
	SourceURL            string
	DocumentID           string
	MatchIterationID     int64
	MatchIterationName   string
	ProgramName          string
	SectionCount         int64
}

type SectionRow struct {
	ProgramDescriptionID int64
	SectionName          string
	SectionText          string
}

// RowSets is the full shaped dataset handed to the loader.
type RowSets struct {
	Disciplines  []DisciplineRow
	Schools      []SchoolRow
	Streams      []ProgramStreamRow
	Descriptions []ProgramDescriptionRow
	Sections     []SectionRow
}
