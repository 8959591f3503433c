package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/arielvz/portal-alumnos-api/internal/models"
)

func newUploadAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUploadAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newUploadAuditRepoMock(t)
	defer cleanup()

	repo := NewUploadAuditRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO upload_audits")).
		WithArgs(sqlmock.AnyArg(), "317016512", "kardex.pdf", int64(120_000), "application/pdf", models.AuditOutcomeAccepted, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	audit := &models.UploadAudit{
		Expediente: "317016512",
		Filename:   "kardex.pdf",
		SizeBytes:  120_000,
		MimeType:   "application/pdf",
		Outcome:    models.AuditOutcomeAccepted,
	}
	require.NoError(t, repo.Create(context.Background(), audit))
	require.NotEmpty(t, audit.ID)
	require.False(t, audit.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadAuditRepositoryListByExpediente(t *testing.T) {
	db, mock, cleanup := newUploadAuditRepoMock(t)
	defer cleanup()

	repo := NewUploadAuditRepository(db)
	rows := sqlmock.NewRows([]string{"id", "expediente", "filename", "size_bytes", "mime_type", "outcome", "detail", "created_at"}).
		AddRow("audit-1", "317016512", "kardex.pdf", int64(120_000), "application/pdf", models.AuditOutcomeAccepted, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, expediente, filename, size_bytes, mime_type, outcome, detail, created_at\nFROM upload_audits WHERE expediente = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("317016512", 20).
		WillReturnRows(rows)

	audits, err := repo.ListByExpediente(context.Background(), "317016512", 0)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, "kardex.pdf", audits[0].Filename)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadAuditRepositoryDeleteOlderThan(t *testing.T) {
	db, mock, cleanup := newUploadAuditRepoMock(t)
	defer cleanup()

	repo := NewUploadAuditRepository(db)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM upload_audits WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
