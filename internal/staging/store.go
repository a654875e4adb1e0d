package staging

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/seiji-watch/polimatch/internal/db"
	"github.com/seiji-watch/polimatch/internal/model"
)

// Filter selects staged entities for a matching or promotion pass.
// Zero-value Filter selects everything.
type Filter struct {
	SubjectID *int64
	IDs       []int64
}

// Store defines persistence operations for one domain's staging table.
type Store interface {
	ListBySubject(ctx context.Context, subjectID int64) ([]model.StagedEntity, error)
	ListPending(ctx context.Context, f Filter) ([]model.StagedEntity, error)
	ListPromotable(ctx context.Context, f Filter, minConfidence float64) ([]model.StagedEntity, error)
	BulkInsert(ctx context.Context, entities []model.StagedEntity) (int64, error)
	DeleteBySubject(ctx context.Context, subjectID int64) (int64, error)
	ResetMatching(ctx context.Context, f Filter) (int64, error)
	UpdateMatchResult(ctx context.Context, id int64, result model.MatchResult, runID string) error
	CountsByStatus(ctx context.Context) (map[model.MatchStatus]int, error)
}

// PostgresStore implements Store for one domain's staging table.
type PostgresStore struct {
	pool db.Pool
	cfg  DomainConfig
}

// NewPostgresStore creates a staging store bound to a domain.
func NewPostgresStore(pool db.Pool, cfg DomainConfig) *PostgresStore {
	return &PostgresStore{pool: pool, cfg: cfg}
}

const stagedColumns = `id, subject_id, source_name, source_party, source_role, source_url,
	extracted_at, matching_status, matched_politician_id, matching_confidence,
	matching_notes, match_run_id`

// ListBySubject returns all staged entities for a subject, oldest first.
func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID int64) ([]model.StagedEntity, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE subject_id = $1 ORDER BY id`, stagedColumns, s.cfg.StagingTable),
		subjectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "staging: list by subject %d", subjectID)
	}
	defer rows.Close()
	return scanStaged(rows)
}

// ListPending returns staged entities awaiting a matching pass.
func (s *PostgresStore) ListPending(ctx context.Context, f Filter) ([]model.StagedEntity, error) {
	conditions := []string{"matching_status = 'pending'"}
	args := []any{}
	conditions, args = f.apply(conditions, args)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s ORDER BY id`,
		stagedColumns, s.cfg.StagingTable, strings.Join(conditions, " AND ")),
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "staging: list pending")
	}
	defer rows.Close()
	return scanStaged(rows)
}

// ListPromotable returns matched staged entities at or above the confidence
// floor.
func (s *PostgresStore) ListPromotable(ctx context.Context, f Filter, minConfidence float64) ([]model.StagedEntity, error) {
	conditions := []string{"matching_status = 'matched'", "matching_confidence >= $1"}
	args := []any{minConfidence}
	conditions, args = f.apply(conditions, args)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s ORDER BY id`,
		stagedColumns, s.cfg.StagingTable, strings.Join(conditions, " AND ")),
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "staging: list promotable")
	}
	defer rows.Close()
	return scanStaged(rows)
}

// apply appends filter conditions, numbering placeholders after the ones
// already present in args.
func (f Filter) apply(conditions []string, args []any) ([]string, []any) {
	if f.SubjectID != nil {
		args = append(args, *f.SubjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if len(f.IDs) > 0 {
		args = append(args, f.IDs)
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	return conditions, args
}

// BulkInsert stages entities, ignoring duplicates of (subject_id, source_name).
func (s *PostgresStore) BulkInsert(ctx context.Context, entities []model.StagedEntity) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(entities))
	for i, e := range entities {
		rows[i] = []any{
			e.SubjectID, e.SourceName, nullable(e.SourceParty), nullable(e.SourceRole),
			e.SourceURL, e.ExtractedAt, string(model.StatusPending),
		}
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: s.cfg.StagingTable,
		Columns: []string{
			"subject_id", "source_name", "source_party", "source_role",
			"source_url", "extracted_at", "matching_status",
		},
		ConflictKeys: []string{"subject_id", "source_name"},
		DoNothing:    true,
	}, rows)
}

// DeleteBySubject purges all staging rows for a subject (force re-extraction).
func (s *PostgresStore) DeleteBySubject(ctx context.Context, subjectID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE subject_id = $1`, s.cfg.StagingTable),
		subjectID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "staging: delete by subject %d", subjectID)
	}
	return tag.RowsAffected(), nil
}

// ResetMatching returns previously-processed rows to pending (force rematch).
func (s *PostgresStore) ResetMatching(ctx context.Context, f Filter) (int64, error) {
	conditions := []string{"matching_status != 'pending'"}
	args := []any{}
	conditions, args = f.apply(conditions, args)

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET
			matching_status = 'pending',
			matched_politician_id = NULL,
			matching_confidence = NULL,
			matching_notes = '',
			match_run_id = NULL,
			updated_at = now()
		 WHERE %s`, s.cfg.StagingTable, strings.Join(conditions, " AND ")),
		args...,
	)
	if err != nil {
		return 0, eris.Wrap(err, "staging: reset matching")
	}
	return tag.RowsAffected(), nil
}

// UpdateMatchResult writes a match result onto a staging row.
func (s *PostgresStore) UpdateMatchResult(ctx context.Context, id int64, result model.MatchResult, runID string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET
			matching_status = $2,
			matched_politician_id = $3,
			matching_confidence = $4,
			matching_notes = $5,
			match_run_id = $6,
			updated_at = now()
		 WHERE id = $1`, s.cfg.StagingTable),
		id, string(result.Status), result.PoliticianID, result.Confidence,
		fmt.Sprintf("[%s] %s", result.Method, result.Reason), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "staging: update match result for %d", id)
	}
	return nil
}

// CountsByStatus aggregates the staging table by matching status.
func (s *PostgresStore) CountsByStatus(ctx context.Context) (map[model.MatchStatus]int, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT matching_status, COUNT(*) FROM %s GROUP BY matching_status`, s.cfg.StagingTable),
	)
	if err != nil {
		return nil, eris.Wrap(err, "staging: counts by status")
	}
	defer rows.Close()

	counts := make(map[model.MatchStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "staging: scan counts")
		}
		counts[model.MatchStatus(status)] = n
	}
	return counts, rows.Err()
}

func scanStaged(rows pgx.Rows) ([]model.StagedEntity, error) {
	var entities []model.StagedEntity
	for rows.Next() {
		var e model.StagedEntity
		var status string
		var party, role, notes, runID *string
		if err := rows.Scan(
			&e.ID, &e.SubjectID, &e.SourceName, &party, &role, &e.SourceURL,
			&e.ExtractedAt, &status, &e.MatchedPoliticianID, &e.MatchingConfidence,
			&notes, &runID,
		); err != nil {
			return nil, eris.Wrap(err, "staging: scan row")
		}
		e.MatchingStatus = model.MatchStatus(status)
		e.SourceParty = deref(party)
		e.SourceRole = deref(role)
		e.MatchingNotes = deref(notes)
		e.MatchRunID = deref(runID)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
