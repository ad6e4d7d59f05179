package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"resmatch/internal/catalog/models"
)

// InMemory is a map-backed catalog store used in handler tests and local
// development. Search approximates the database's full-text ranking with a
// case-insensitive substring match.
type InMemory struct {
	mu           sync.RWMutex
	disciplines  []models.Discipline
	programs     map[int64]*models.ProgramDetail
}

// NewInMemory constructs an empty in-memory catalog store.
func NewInMemory() *InMemory {
	return &InMemory{programs: make(map[int64]*models.ProgramDetail)}
}

// SeedDisciplines replaces the discipline list.
func (s *InMemory) SeedDisciplines(disciplines ...models.Discipline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disciplines = append([]models.Discipline(nil), disciplines...)
}

// SeedProgram adds one program detail.
func (s *InMemory) SeedProgram(detail models.ProgramDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[detail.Program.ProgramStreamID] = &detail
}

func (s *InMemory) ListDisciplines(_ context.Context) ([]models.Discipline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Discipline(nil), s.disciplines...)
	sort.Slice(out, func(a, b int) bool { return out[a].Discipline < out[b].Discipline })
	return out, nil
}

func (s *InMemory) ListPrograms(_ context.Context, filter models.ProgramFilter) ([]models.ProgramSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []models.ProgramSummary
	for _, detail := range s.programs {
		p := detail.Program.ProgramSummary
		if filter.DisciplineID != nil && p.DisciplineID != *filter.DisciplineID {
			continue
		}
		if filter.SchoolID != nil && p.SchoolID != *filter.SchoolID {
			continue
		}
		if filter.Query != "" && !matchesQuery(p, filter.Query) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].ProgramName != all[b].ProgramName {
			return all[a].ProgramName < all[b].ProgramName
		}
		return all[a].ProgramStreamID < all[b].ProgramStreamID
	})

	if filter.Offset >= len(all) {
		return []models.ProgramSummary{}, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (s *InMemory) GetProgram(_ context.Context, programStreamID int64) (*models.ProgramDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	detail, ok := s.programs[programStreamID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *detail
	return &copied, nil
}

func (s *InMemory) Search(_ context.Context, q models.SearchQuery) ([]models.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q.Query)
	var hits []models.SearchHit
	for _, detail := range s.programs {
		for _, sec := range detail.Sections {
			if !strings.Contains(strings.ToLower(sec.SectionText), needle) {
				continue
			}
			hits = append(hits, models.SearchHit{
				ProgramStreamID: detail.Program.ProgramStreamID,
				ProgramName:     detail.Program.ProgramName,
				SchoolName:      detail.Program.SchoolName,
				DisciplineName:  detail.Program.DisciplineName,
				SectionName:     sec.SectionName,
				Rank:            1,
				Snippet:         sec.SectionText,
			})
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].ProgramStreamID != hits[b].ProgramStreamID {
			return hits[a].ProgramStreamID < hits[b].ProgramStreamID
		}
		return hits[a].SectionName < hits[b].SectionName
	})

	if q.Offset >= len(hits) {
		return []models.SearchHit{}, nil
	}
	hits = hits[q.Offset:]
	if q.Limit > 0 && q.Limit < len(hits) {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

func matchesQuery(p models.ProgramSummary, query string) bool {
	needle := strings.ToLower(query)
	for _, hay := range []string{p.ProgramName, p.ProgramStreamName, p.SchoolName} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}
