// Package politician provides read access to canonical politician records
// and persistence for the permanent relationships promotion creates.
package politician

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/seiji-watch/polimatch/internal/db"
	"github.com/seiji-watch/polimatch/internal/model"
)

// CandidateStore returns candidate canonical entities for matching.
// The matching pipeline never writes through this interface.
type CandidateStore interface {
	SearchByName(ctx context.Context, pattern string) ([]model.Politician, error)
	GetAllForMatching(ctx context.Context) ([]model.Politician, error)
	GetByID(ctx context.Context, id int64) (*model.Politician, error)
}

// matchingSnapshotLimit bounds GetAllForMatching; the full roster is only
// used when a name search came back empty.
const matchingSnapshotLimit = 2000

// PostgresStore implements CandidateStore on polimatch.politicians.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const politicianColumns = `p.id, p.name, p.name_kana, p.party_id, pt.name,
	p.district, p.prefecture, p.profile_url`

const politicianFrom = `FROM polimatch.politicians p
	LEFT JOIN polimatch.parties pt ON pt.id = p.party_id`

// SearchByName returns politicians whose name or kana reading contains the
// pattern.
func (s *PostgresStore) SearchByName(ctx context.Context, pattern string) ([]model.Politician, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+politicianColumns+` `+politicianFrom+`
		 WHERE p.name LIKE '%' || $1 || '%' OR p.name_kana LIKE '%' || $1 || '%'
		 ORDER BY p.id`,
		pattern,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "politician: search by name %q", pattern)
	}
	defer rows.Close()

	return scanPoliticians(rows)
}

// GetAllForMatching returns a bounded snapshot of the full roster.
func (s *PostgresStore) GetAllForMatching(ctx context.Context) ([]model.Politician, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+politicianColumns+` `+politicianFrom+`
		 ORDER BY p.id LIMIT $1`,
		matchingSnapshotLimit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "politician: get all for matching")
	}
	defer rows.Close()

	return scanPoliticians(rows)
}

// GetByID returns a politician or nil when not found.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*model.Politician, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+politicianColumns+` `+politicianFrom+`
		 WHERE p.id = $1`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "politician: get by id %d", id)
	}
	defer rows.Close()

	politicians, err := scanPoliticians(rows)
	if err != nil {
		return nil, err
	}
	if len(politicians) == 0 {
		return nil, nil
	}
	return &politicians[0], nil
}

func scanPoliticians(rows pgx.Rows) ([]model.Politician, error) {
	var politicians []model.Politician
	for rows.Next() {
		var p model.Politician
		var nameKana, partyName, district, prefecture, profileURL *string
		if err := rows.Scan(
			&p.ID, &p.Name, &nameKana, &p.PartyID, &partyName,
			&district, &prefecture, &profileURL,
		); err != nil {
			return nil, eris.Wrap(err, "politician: scan row")
		}
		p.NameKana = deref(nameKana)
		p.PartyName = deref(partyName)
		p.District = deref(district)
		p.Prefecture = deref(prefecture)
		p.ProfileURL = deref(profileURL)
		politicians = append(politicians, p)
	}
	return politicians, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
