package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arielvz/portal-alumnos-api/internal/models"
)

// UploadAuditRepository persists kardex upload attempts for operational
// traceability. Writes happen asynchronously via the jobs queue so a
// slow or missing database never blocks an upload.
type UploadAuditRepository struct {
	db *sqlx.DB
}

// NewUploadAuditRepository constructs the repository.
func NewUploadAuditRepository(db *sqlx.DB) *UploadAuditRepository {
	return &UploadAuditRepository{db: db}
}

// Create inserts an audit row with generated defaults.
func (r *UploadAuditRepository) Create(ctx context.Context, audit *models.UploadAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO upload_audits (id, expediente, filename, size_bytes, mime_type, outcome, detail, created_at)
VALUES (:id, :expediente, :filename, :size_bytes, :mime_type, :outcome, :detail, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		return fmt.Errorf("create upload audit: %w", err)
	}
	return nil
}

// ListByExpediente returns the most recent audit rows for a student,
// newest first.
func (r *UploadAuditRepository) ListByExpediente(ctx context.Context, expediente string, limit int) ([]models.UploadAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, expediente, filename, size_bytes, mime_type, outcome, detail, created_at
FROM upload_audits WHERE expediente = $1 ORDER BY created_at DESC LIMIT $2`
	var audits []models.UploadAudit
	if err := r.db.SelectContext(ctx, &audits, query, expediente, limit); err != nil {
		return nil, fmt.Errorf("list upload audits: %w", err)
	}
	return audits, nil
}

// DeleteOlderThan prunes audit rows before the cutoff and returns how
// many were removed.
func (r *UploadAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM upload_audits WHERE created_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune upload audits: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune upload audits: %w", err)
	}
	return affected, nil
}
