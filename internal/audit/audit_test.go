package audit

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scheduler-engine/internal/dto"
)

func newAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRepositoryRecordSubmission(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduler_job_audit_log")).
		WithArgs("job-1", "inst-1", "csp", sqlmock.AnyArg(), "QUEUED").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RecordSubmission(context.Background(), "job-1", "inst-1", "csp")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRecordCompletion(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduler_job_audit_log")).
		WithArgs("job-1", string(dto.JobStatusCompleted), sqlmock.AnyArg(), "gen-1", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RecordCompletion(context.Background(), "job-1", dto.JobStatusCompleted, "gen-1", "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryFindByJobID(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "institution_id", "algorithm_type", "submitted_at", "finished_at", "final_status", "generation_id", "error_message"}).
		AddRow("job-1", "inst-1", "csp", time.Now(), nil, "QUEUED", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, algorithm_type, submitted_at, finished_at, final_status, generation_id, error_message FROM scheduler_job_audit_log WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(rows)

	rec, err := repo.FindByJobID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", rec.JobID)
	assert.Equal(t, "inst-1", rec.InstitutionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryFindByJobIDNotFound(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, algorithm_type, submitted_at, finished_at, final_status, generation_id, error_message FROM scheduler_job_audit_log WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByJobID(context.Background(), "missing")
	require.Error(t, err)
}

func TestNewJobIDIsUnique(t *testing.T) {
	a := NewJobID()
	b := NewJobID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
