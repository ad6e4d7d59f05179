package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"resmatch/internal/catalog/models"
)

// PostgresStore serves catalog reads from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListDisciplines(ctx context.Context) ([]models.Discipline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT discipline_id, discipline FROM disciplines ORDER BY discipline`)
	if err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	defer rows.Close()

	out := make([]models.Discipline, 0)
	for rows.Next() {
		var d models.Discipline
		if err := rows.Scan(&d.DisciplineID, &d.Discipline); err != nil {
			return nil, fmt.Errorf("scan discipline: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListPrograms(ctx context.Context, filter models.ProgramFilter) ([]models.ProgramSummary, error) {
	var where []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.DisciplineID != nil {
		where = append(where, "ps.discipline_id = "+arg(*filter.DisciplineID))
	}
	if filter.SchoolID != nil {
		where = append(where, "ps.school_id = "+arg(*filter.SchoolID))
	}
	if filter.Query != "" {
		like := arg("%" + filter.Query + "%")
		where = append(where, fmt.Sprintf(
			"(ps.program_name ILIKE %[1]s OR ps.program_stream_name ILIKE %[1]s OR ps.school_name ILIKE %[1]s)", like))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT ps.program_stream_id, ps.program_name, ps.program_stream_name,
		       ps.discipline_id, ps.discipline_name,
		       ps.school_id, ps.school_name,
		       ps.program_site, ps.program_url
		FROM program_streams ps
		%s
		ORDER BY ps.program_name, ps.program_stream_id
		LIMIT %s OFFSET %s`,
		whereSQL, arg(filter.Limit), arg(filter.Offset))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	out := make([]models.ProgramSummary, 0)
	for rows.Next() {
		var p models.ProgramSummary
		if err := rows.Scan(
			&p.ProgramStreamID, &p.ProgramName, &p.ProgramStreamName,
			&p.DisciplineID, &p.DisciplineName,
			&p.SchoolID, &p.SchoolName,
			&p.ProgramSite, &p.ProgramURL,
		); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetProgram(ctx context.Context, programStreamID int64) (*models.ProgramDetail, error) {
	var detail models.ProgramDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT program_stream_id, program_name, program_stream_name, program_site,
		       discipline_id, discipline_name, school_id, school_name, program_url,
		       match_iteration_id
		FROM program_streams
		WHERE program_stream_id = $1`, programStreamID,
	).Scan(
		&detail.Program.ProgramStreamID, &detail.Program.ProgramName,
		&detail.Program.ProgramStreamName, &detail.Program.ProgramSite,
		&detail.Program.DisciplineID, &detail.Program.DisciplineName,
		&detail.Program.SchoolID, &detail.Program.SchoolName,
		&detail.Program.ProgramURL, &detail.Program.MatchIterationID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get program %d: %w", programStreamID, err)
	}

	detail.Sections = make([]models.Section, 0)

	var header models.DescriptionHeader
	err = s.db.QueryRowContext(ctx, `
		SELECT program_description_id, source_url, match_iteration_name,
		       n_program_description_sections
		FROM program_descriptions
		WHERE program_stream_id = $1`, programStreamID,
	).Scan(&header.ProgramDescriptionID, &header.SourceURL,
		&header.MatchIterationName, &header.SectionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return &detail, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get description for program %d: %w", programStreamID, err)
	}
	detail.Description = &header

	rows, err := s.db.QueryContext(ctx, `
		SELECT section_name, section_text
		FROM program_description_sections
		WHERE program_description_id = $1
		ORDER BY section_name`, header.ProgramDescriptionID)
	if err != nil {
		return nil, fmt.Errorf("get sections for description %d: %w", header.ProgramDescriptionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sec models.Section
		if err := rows.Scan(&sec.SectionName, &sec.SectionText); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		detail.Sections = append(detail.Sections, sec)
	}
	return &detail, rows.Err()
}

func (s *PostgresStore) Search(ctx context.Context, q models.SearchQuery) ([]models.SearchHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ps.program_stream_id,
		       ps.program_name,
		       ps.school_name,
		       ps.discipline_name,
		       sec.section_name,
		       ts_rank_cd(to_tsvector('english', coalesce(sec.section_text, '')), query) AS rank,
		       ts_headline('english', sec.section_text, query) AS snippet
		FROM program_description_sections sec
		JOIN program_descriptions d ON d.program_description_id = sec.program_description_id
		JOIN program_streams ps ON ps.program_stream_id = d.program_stream_id,
		     websearch_to_tsquery('english', $1) query
		WHERE to_tsvector('english', coalesce(sec.section_text, '')) @@ query
		ORDER BY rank DESC, ps.program_stream_id
		LIMIT $2 OFFSET $3`,
		q.Query, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("search sections: %w", err)
	}
	defer rows.Close()

	out := make([]models.SearchHit, 0)
	for rows.Next() {
		var h models.SearchHit
		var rank sql.NullFloat64
		if err := rows.Scan(
			&h.ProgramStreamID, &h.ProgramName, &h.SchoolName, &h.DisciplineName,
			&h.SectionName, &rank, &h.Snippet,
		); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		h.Rank = rank.Float64
		out = append(out, h)
	}
	return out, rows.Err()
}
