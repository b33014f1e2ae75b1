// internal/store/stores.go

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/models"
)

// CandidateStore reads parsed resumes from the shared candidate database.
// Rows exist before parsing finishes, so "present but unprocessed" is a
// distinct outcome from "missing".
type CandidateStore struct {
	db *sql.DB
}

func NewCandidateStore(db *sql.DB) *CandidateStore {
	return &CandidateStore{db: db}
}

func (s *CandidateStore) GetParsedResume(ctx context.Context, candidateID string) (*models.ParsedResume, error) {
	var payload []byte
	var processed bool
	err := s.db.QueryRowContext(ctx,
		`SELECT parsed, processed FROM candidate_resumes WHERE candidate_id = $1`,
		candidateID,
	).Scan(&payload, &processed)
	if err == sql.ErrNoRows {
		return nil, errors.NewResumeNotFoundError(candidateID)
	}
	if err != nil {
		return nil, fmt.Errorf("query resume %s: %w", candidateID, err)
	}
	if !processed || len(payload) == 0 {
		return nil, errors.NewResumeNotProcessedError(candidateID)
	}

	var resume models.ParsedResume
	if err := json.Unmarshal(payload, &resume); err != nil {
		return nil, fmt.Errorf("decode resume %s: %w", candidateID, err)
	}
	return &resume, nil
}

// JobStore reads job requirement records.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

func (s *JobStore) GetJobRequirements(ctx context.Context, jobID string) (*models.JobRequirements, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT requirements FROM job_requirements WHERE job_id = $1`,
		jobID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("query job %s: %w", jobID, err)
	}

	var job models.JobRequirements
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// ApplicationStore lists who applied to a job, ordered by application time so
// downstream tie-breaking sees a stable input order.
type ApplicationStore struct {
	db *sql.DB
}

func NewApplicationStore(db *sql.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

func (s *ApplicationStore) ListApplicants(ctx context.Context, jobID string) ([]models.Applicant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, applied_at FROM job_applications WHERE job_id = $1 ORDER BY applied_at, candidate_id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query applicants for %s: %w", jobID, err)
	}
	defer rows.Close()

	var applicants []models.Applicant
	for rows.Next() {
		var applicant models.Applicant
		if err := rows.Scan(&applicant.CandidateID, &applicant.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		applicants = append(applicants, applicant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants for %s: %w", jobID, err)
	}
	return applicants, nil
}
