package politician

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/seiji-watch/polimatch/internal/db"
	"github.com/seiji-watch/polimatch/internal/model"
)

// RelationshipStore persists permanent politician relationships created by
// promotion. One instance per relationship table.
type RelationshipStore interface {
	FindActive(ctx context.Context, politicianID, subjectID int64) (*model.Relationship, error)
	Create(ctx context.Context, rel *model.Relationship) error
}

// PostgresRelationshipStore implements RelationshipStore for one table.
// All relationship tables share the same column set.
type PostgresRelationshipStore struct {
	pool  db.Pool
	table string
}

// NewRelationshipStore creates a store for a schema-qualified table, e.g.
// "polimatch.conference_memberships".
func NewRelationshipStore(pool db.Pool, table string) *PostgresRelationshipStore {
	return &PostgresRelationshipStore{pool: pool, table: table}
}

// FindActive returns the active (end_date IS NULL) relationship between a
// politician and a subject, or nil when none exists.
func (s *PostgresRelationshipStore) FindActive(ctx context.Context, politicianID, subjectID int64) (*model.Relationship, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, politician_id, subject_id, role, start_date, end_date, created_by, created_at
		 FROM %s
		 WHERE politician_id = $1 AND subject_id = $2 AND end_date IS NULL
		 ORDER BY start_date DESC
		 LIMIT 1`, s.table),
		politicianID, subjectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "relationship: find active in %s", s.table)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var rel model.Relationship
	var role, createdBy *string
	if err := rows.Scan(
		&rel.ID, &rel.PoliticianID, &rel.SubjectID, &role,
		&rel.StartDate, &rel.EndDate, &createdBy, &rel.CreatedAt,
	); err != nil {
		return nil, eris.Wrapf(err, "relationship: scan row from %s", s.table)
	}
	rel.Role = deref(role)
	rel.CreatedBy = deref(createdBy)
	return &rel, nil
}

// Create inserts a relationship and fills in its ID.
func (s *PostgresRelationshipStore) Create(ctx context.Context, rel *model.Relationship) error {
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (politician_id, subject_id, role, start_date, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`, s.table),
		rel.PoliticianID, rel.SubjectID, nullable(rel.Role), rel.StartDate, nullable(rel.CreatedBy),
	).Scan(&rel.ID, &rel.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "relationship: create in %s", s.table)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
