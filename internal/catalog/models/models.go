// Package models defines the read-side API types for the program catalog.
package models

// Discipline is one reference discipline row.
type Discipline struct {
	DisciplineID int64  `json:"discipline_id"`
	Discipline   string `json:"discipline"`
}

// ProgramSummary is one program stream in a list response.
type ProgramSummary struct {
	ProgramStreamID   int64  `json:"program_stream_id"`
	ProgramName       string `json:"program_name"`
	ProgramStreamName string `json:"program_stream_name"`
	DisciplineID      int64  `json:"discipline_id"`
	DisciplineName    string `json:"discipline_name"`
	SchoolID          int64  `json:"school_id"`
	SchoolName        string `json:"school_name"`
	ProgramSite       string `json:"program_site"`
	ProgramURL        string `json:"program_url"`
}

// ProgramFilter narrows a program list query.
type ProgramFilter struct {
	DisciplineID *int64
	SchoolID     *int64
	Query        string
	Limit        int
	Offset       int
}

// Program is the detail header of one program stream.
type Program struct {
	ProgramSummary
	MatchIterationID int64 `json:"match_iteration_id"`
}

// DescriptionHeader is the description document header of a program.
type DescriptionHeader struct {
	ProgramDescriptionID int64  `json:"program_description_id"`
	SourceURL            string `json:"source_url"`
	MatchIterationName   string `json:"match_iteration_name"`
	SectionCount         int64  `json:"n_program_description_sections"`
}

// Section is one named free-text section of a description.
type Section struct {
	SectionName string `json:"section_name"`
	SectionText string `json:"section_text"`
}

// ProgramDetail is the full detail response for one program stream.
type ProgramDetail struct {
	Program     Program            `json:"program"`
	Description *DescriptionHeader `json:"description"`
	Sections    []Section          `json:"sections"`
}

// SearchQuery is a full-text search request.
type SearchQuery struct {
	Query  string
	Limit  int
	Offset int
}

// SearchHit is one ranked full-text search result.
type SearchHit struct {
	ProgramStreamID int64   `json:"program_stream_id"`
	ProgramName     string  `json:"program_name"`
	SchoolName      string  `json:"school_name"`
	DisciplineName  string  `json:"discipline_name"`
	SectionName     string  `json:"section_name"`
	Rank            float64 `json:"rank"`
	Snippet         string  `json:"snippet"`
}
