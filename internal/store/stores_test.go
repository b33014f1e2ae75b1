// internal/store/stores_test.go

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/models"
)

func TestCandidateStore_GetParsedResume(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	resume := models.ParsedResume{
		CandidateID:     "cand-1",
		FullName:        "Ada Lovelace",
		Skills:          []models.Skill{{Name: "Python"}},
		YearsExperience: 4,
	}
	payload, err := json.Marshal(resume)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT parsed, processed FROM candidate_resumes`).
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"parsed", "processed"}).AddRow(payload, true))

	got, err := NewCandidateStore(db).GetParsedResume(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Len(t, got.Skills, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateStore_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT parsed, processed FROM candidate_resumes`).
		WithArgs("cand-missing").
		WillReturnRows(sqlmock.NewRows([]string{"parsed", "processed"}))

	_, err = NewCandidateStore(db).GetParsedResume(context.Background(), "cand-missing")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResumeNotFound, errors.CodeOf(err))
}

func TestCandidateStore_Unprocessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT parsed, processed FROM candidate_resumes`).
		WithArgs("cand-raw").
		WillReturnRows(sqlmock.NewRows([]string{"parsed", "processed"}).AddRow([]byte(nil), false))

	_, err = NewCandidateStore(db).GetParsedResume(context.Background(), "cand-raw")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResumeNotProcessed, errors.CodeOf(err))
}

func TestJobStore_GetJobRequirements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	job := models.JobRequirements{
		JobID:          "job-1",
		Title:          "Backend Engineer",
		RequiredSkills: []models.WeightedSkill{{Name: "Go", Weight: 2}},
	}
	payload, err := json.Marshal(job)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT requirements FROM job_requirements`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"requirements"}).AddRow(payload))

	got, err := NewJobStore(db).GetJobRequirements(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT requirements FROM job_requirements`).
		WithArgs("job-unknown").
		WillReturnRows(sqlmock.NewRows([]string{"requirements"}))

	_, err = NewJobStore(db).GetJobRequirements(context.Background(), "job-unknown")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.CodeOf(err))
}

func TestApplicationStore_ListApplicants(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	first := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	mock.ExpectQuery(`SELECT candidate_id, applied_at FROM job_applications`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"candidate_id", "applied_at"}).
			AddRow("cand-a", first).
			AddRow("cand-b", second))

	applicants, err := NewApplicationStore(db).ListApplicants(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, applicants, 2)
	assert.Equal(t, "cand-a", applicants[0].CandidateID)
	assert.Equal(t, first, applicants[0].AppliedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
