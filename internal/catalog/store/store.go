// Package store provides catalog read access over the five relational
// tables. The PostgreSQL implementation serves production; the in-memory
// implementation backs handler tests.
package store

import (
	"context"

	"resmatch/internal/catalog/models"
	dErrors "resmatch/pkg/domain-errors"
)

// ErrNotFound is returned when a requested entity id is absent.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "program_stream_id not found")

// Store is the catalog read interface.
type Store interface {
	ListDisciplines(ctx context.Context) ([]models.Discipline, error)
	ListPrograms(ctx context.Context, filter models.ProgramFilter) ([]models.ProgramSummary, error)
	GetProgram(ctx context.Context, programStreamID int64) (*models.ProgramDetail, error)
	Search(ctx context.Context, q models.SearchQuery) ([]models.SearchHit, error)
}
