// Package load atomically replaces the stored dataset with freshly shaped
// rows. The whole replace runs in one transaction: truncate, upsert parents
// before children, bulk-append sections, commit. Any failure rolls the store
// back to its pre-run state.
package load

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"

	"resmatch/internal/pipeline/shape"
	dErrors "resmatch/pkg/domain-errors"
)

// Phase tracks the loader's replace state machine. The transaction is the
// real guarantee; the phase exists so operators can see where a run stopped.
type Phase string

const (
	PhaseEmpty      Phase = "empty"
	PhaseLoading    Phase = "loading"
	PhaseConsistent Phase = "consistent"
)

const defaultSectionBatchSize = 5000

// Loader performs the transactional replace.
type Loader struct {
	db        *sql.DB
	log       *slog.Logger
	batchSize int
	phase     Phase
}

// Option configures a Loader.
type Option func(*Loader)

// WithSectionBatchSize overrides the section bulk-insert batch size.
func WithSectionBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// New constructs a Loader.
func New(db *sql.DB, opts ...Option) *Loader {
	l := &Loader{
		db:        db,
		log:       slog.Default(),
		batchSize: defaultSectionBatchSize,
		phase:     PhaseEmpty,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Phase returns the current replace phase.
func (l *Loader) Phase() Phase { return l.phase }

// Replace swaps the entire stored dataset for rs inside one transaction.
// Running it twice with identical input leaves the store in the same
// observable state both times.
func (l *Loader) Replace(ctx context.Context, rs *shape.RowSets) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeLoadFailed, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			l.phase = PhaseEmpty
		}
	}()

	l.phase = PhaseLoading

	// Full replace each run; identity reset keeps section surrogate ids
	// reproducible across reruns of identical input.
	if _, err = tx.ExecContext(ctx, `
		TRUNCATE program_description_sections,
		         program_descriptions,
		         program_streams,
		         schools,
		         disciplines
		RESTART IDENTITY CASCADE
	`); err != nil {
		return dErrors.Wrap(err, dErrors.CodeLoadFailed, "truncate tables")
	}

	// Upserts stay correct even though the tables were just cleared, in
	// case the clear step is ever relaxed to a partial refresh.
	if err = l.upsertDisciplines(ctx, tx, rs.Disciplines); err != nil {
		return err
	}
	if err = l.upsertSchools(ctx, tx, rs.Schools); err != nil {
		return err
	}
	if err = l.upsertStreams(ctx, tx, rs.Streams); err != nil {
		return err
	}
	if err = l.upsertDescriptions(ctx, tx, rs.Descriptions); err != nil {
		return err
	}
	if err = l.insertSections(ctx, tx, rs.Sections); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeLoadFailed, "commit transaction")
	}

	l.phase = PhaseConsistent
	l.log.Info("replace committed",
		"disciplines", len(rs.Disciplines),
		"schools", len(rs.Schools),
		"program_streams", len(rs.Streams),
		"program_descriptions", len(rs.Descriptions),
		"sections", len(rs.Sections),
	)
	return nil
}

func (l *Loader) upsertDisciplines(ctx context.Context, tx *sql.Tx, rows []shape.DisciplineRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]int64, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.DisciplineID
		names[i] = r.Discipline
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO disciplines (discipline_id, discipline)
		SELECT * FROM unnest($1::bigint[], $2::text[])
		ON CONFLICT (discipline_id) DO UPDATE SET
			discipline = EXCLUDED.discipline
	`, pq.Array(ids), pq.Array(names))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeLoadFailed, "upsert disciplines")
	}
	return nil
}

func (l *Loader) upsertSchools(ctx context.Context, tx *sql.Tx, rows []shape.SchoolRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]int64, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.SchoolID
		names[i] = r.SchoolName
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO schools (school_id, school_name)
		SELECT * FROM unnest($1::bigint[], $2::text[])
		ON CONFLICT (school_id) DO UPDATE SET
			school_name = EXCLUDED.school_name
	`, pq.Array(ids), pq.Array(names))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeLoadFailed, "upsert schools")
	}
	return nil
}

func (l *Loader) upsertStreams(ctx context.Context, tx *sql.Tx, rows []shape.ProgramStreamRow) error {
	if len(rows) == 0 {
		return nil
	}
	var (
		ids, disciplineIDs, schoolIDs, iterIDs          []int64
		disciplineNames, schoolNames, streamNames       []string
		sites, rawStreams, programNames, programURLs    []string
	)
	for _, r := range rows {
		ids = append(ids, r.ProgramStreamID)
		disciplineIDs = append(disciplineIDs, r.DisciplineID)
		schoolIDs = append(schoolIDs, r.SchoolID)
		iterIDs = append(iterIDs, r.MatchIterationID)
		disciplineNames = append(disciplineNames, r.DisciplineName)
		schoolNames = append(schoolNames, r.SchoolName)
		streamNames = append(streamNames, r.ProgramStreamName)
		sites = append(sites, r.ProgramSite)
		rawStreams = append(rawStreams, r.ProgramStream)
		programNames = append(programNames, r.ProgramName)
		programURLs = append(programURLs, r.ProgramURL)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO program_streams (
			program_stream_id, discipline_id, school_id,
			discipline_name, school_name,
			program_stream_name, program_site, program_stream, program_name,
			program_url, match_iteration_id
		)
		SELECT * FROM unnest(
			$1::bigint[], $2::bigint[], $3::bigint[],
			$4::text[], $5::text[],
			$6::text[], $7::text[], $8::text[], $9::text[],
			$10::text[], $11::bigint[]
		)
		ON CONFLICT (program_stream_id) DO UPDATE SET
			discipline_id = EXCLUDED.discipline_id,
			school_id = EXCLUDED.school_id,
			discipline_name = EXCLUDED.discipline_name,
			school_name = EXCLUDED.school_name,
			program_stream_name = EXCLUDED.program_stream_name,
			program_site = EXCLUDED.program_site,
			program_stream = EXCLUDED.program_stream,
			program_name = EXCLUDED.program_name,
			program_url = EXCLUDED.program_url,
			match_iteration_id = EXCLUDED.match_iteration_id
	`,
		pq.Array(ids), pq.Array(disciplineIDs), pq.Array(schoolIDs),
		pq.Array(disciplineNames), pq.Array(schoolNames),
		pq.Array(streamNames), pq.Array(sites), pq.Array(rawStreams), pq.Array(programNames),
		pq.Array(programURLs), pq.Array(iterIDs),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeLoadFailed, "upsert program streams")
	}
	return nil
}

func (l *Loader) upsertDescriptions(ctx context.Context, tx *sql.Tx, rows []shape.ProgramDescriptionRow) error {
	if len(rows) == 0 {
		return nil
	}
	var (
		ids, streamIDs, iterIDs, sectionCounts  []int64
		sourceURLs, documentIDs                 []string
		iterNames, programNames                 []string
	)
	for _, r := range rows {
		ids = append(ids, r.ProgramDescriptionID)
		streamIDs = append(streamIDs, r.ProgramStreamID)
		iterIDs = append(iterIDs, r.MatchIterationID)
		sectionCounts = append(sectionCounts, r.SectionCount)
		sourceURLs = append(sourceURLs, r.SourceURL)
		documentIDs = append(documentIDs, r.DocumentID)
		iterNames = append(iterNames, r.MatchIterationName)
		programNames = append(programNames, r.ProgramName)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO program_descriptions (
			program_description_id, program_stream_id, source_url,
			document_id, match_iteration_id, match_iteration_name,
			program_name, n_program_description_sections
		)
		SELECT * FROM unnest(
			$1::bigint[], $2::bigint[], $3::text[],
			$4::text[], $5::bigint[], $6::text[],
			$7::text[], $8::bigint[]
		)
		ON CONFLICT (program_description_id) DO UPDATE SET
			program_stream_id = EXCLUDED.program_stream_id,
			source_url = EXCLUDED.source_url,
			document_id = EXCLUDED.document_id,
			match_iteration_id = EXCLUDED.match_iteration_id,
			match_iteration_name = EXCLUDED.match_iteration_name,
			program_name = EXCLUDED.program_name,
			n_program_description_sections = EXCLUDED.n_program_description_sections
	`,
		pq.Array(ids), pq.Array(streamIDs), pq.Array(sourceURLs),
		pq.Array(documentIDs), pq.Array(iterIDs), pq.Array(iterNames),
		pq.Array(programNames), pq.Array(sectionCounts),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeLoadFailed, "upsert program descriptions")
	}
	return nil
}

// insertSections bulk-appends section rows in batches. No conflict target:
// duplicate (description, section) pairs are allowed to accumulate within a
// load by design of the source format.
func (l *Loader) insertSections(ctx context.Context, tx *sql.Tx, rows []shape.SectionRow) error {
	for start := 0; start < len(rows); start += l.batchSize {
		end := start + l.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		ids := make([]int64, len(batch))
		names := make([]string, len(batch))
		texts := make([]string, len(batch))
		for i, r := range batch {
			ids[i] = r.ProgramDescriptionID
			names[i] = r.SectionName
			texts[i] = r.SectionText
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO program_description_sections (program_description_id, section_name, section_text)
			SELECT * FROM unnest($1::bigint[], $2::text[], $3::text[])
		`, pq.Array(ids), pq.Array(names), pq.Array(texts))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeLoadFailed, "insert section batch")
		}
	}
	return nil
}
