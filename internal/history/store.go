package history

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/seiji-watch/polimatch/internal/db"
	"github.com/seiji-watch/polimatch/internal/model"
)

// PostgresSink persists history records in polimatch.processing_history.
type PostgresSink struct {
	pool db.Pool
}

// NewPostgresSink creates a PostgresSink.
func NewPostgresSink(pool db.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Create inserts a record and fills in its ID.
func (s *PostgresSink) Create(ctx context.Context, rec *model.ProcessingRecord) error {
	varsJSON, err := json.Marshal(rec.PromptVariables)
	if err != nil {
		return eris.Wrap(err, "history: marshal prompt variables")
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO polimatch.processing_history
			(processing_type, model_name, model_version, prompt_template_id,
			 prompt_variables, subject_type, subject_id, status, started_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		rec.ProcessingType, rec.ModelName, rec.ModelVersion, rec.PromptTemplateID,
		varsJSON, rec.SubjectType, rec.SubjectID, string(rec.Status), rec.StartedAt, rec.CreatedBy,
	).Scan(&rec.ID)
	if err != nil {
		return eris.Wrap(err, "history: create record")
	}
	return nil
}

// Update transitions a record to its terminal status.
func (s *PostgresSink) Update(ctx context.Context, rec *model.ProcessingRecord) error {
	var resultJSON []byte
	if rec.Result != nil {
		var err error
		resultJSON, err = json.Marshal(rec.Result)
		if err != nil {
			return eris.Wrap(err, "history: marshal result")
		}
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE polimatch.processing_history
		 SET status = $2, result = $3, error_message = $4, completed_at = $5
		 WHERE id = $1`,
		rec.ID, string(rec.Status), resultJSON, nullable(rec.ErrorMessage), rec.CompletedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "history: update record %d", rec.ID)
	}
	return nil
}

// GetBySubject returns all history records for one subject entity, most
// recent first.
func (s *PostgresSink) GetBySubject(ctx context.Context, subjectType string, subjectID int64) ([]model.ProcessingRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, processing_type, model_name, model_version, prompt_template_id,
			prompt_variables, subject_type, subject_id, status, result, error_message,
			started_at, completed_at, created_by
		 FROM polimatch.processing_history
		 WHERE subject_type = $1 AND subject_id = $2
		 ORDER BY started_at DESC`,
		subjectType, subjectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "history: get by subject")
	}
	defer rows.Close()

	var records []model.ProcessingRecord
	for rows.Next() {
		var rec model.ProcessingRecord
		var status string
		var varsJSON, resultJSON []byte
		var errorMessage *string
		if err := rows.Scan(
			&rec.ID, &rec.ProcessingType, &rec.ModelName, &rec.ModelVersion,
			&rec.PromptTemplateID, &varsJSON, &rec.SubjectType, &rec.SubjectID,
			&status, &resultJSON, &errorMessage, &rec.StartedAt, &rec.CompletedAt,
			&rec.CreatedBy,
		); err != nil {
			return nil, eris.Wrap(err, "history: scan record")
		}
		rec.Status = model.ProcessingStatus(status)
		if errorMessage != nil {
			rec.ErrorMessage = *errorMessage
		}
		if len(varsJSON) > 0 {
			if err := json.Unmarshal(varsJSON, &rec.PromptVariables); err != nil {
				return nil, eris.Wrap(err, "history: unmarshal prompt variables")
			}
		}
		if len(resultJSON) > 0 {
			if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
				return nil, eris.Wrap(err, "history: unmarshal result")
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// nullable maps "" to NULL for text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
