package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/dto"
	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type uploadBackend interface {
	UploadKardex(ctx context.Context, filename string, file io.Reader) (*models.UploadResult, error)
	UploadHistory(ctx context.Context, expediente string) ([]models.UploadRecord, error)
}

type auditSink interface {
	Enqueue(audit *models.UploadAudit) error
}

type auditLog interface {
	ListByExpediente(ctx context.Context, expediente string, limit int) ([]models.UploadAudit, error)
}

type sessionActivator interface {
	Activate(ctx context.Context, expediente string) error
}

// UploadRequest carries one kardex upload through validation and
// forwarding. Expediente is optional: a first-time upload carries none,
// and the student identity comes back in the upload summary.
type UploadRequest struct {
	Expediente  string
	Filename    string    `validate:"required"`
	SizeBytes   int64     `validate:"gte=0"`
	ContentType string
	File        io.Reader `validate:"required"`
}

// KardexServiceConfig gates uploads before they reach the backend.
type KardexServiceConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// KardexService forwards kardex uploads to the academic backend and
// fans the outcome out: the session is activated, composed views are
// invalidated, realtime subscribers get the fresh summary, and every
// attempt is audited asynchronously.
type KardexService struct {
	backend  uploadBackend
	session  sessionActivator
	cache    *CacheService
	bus      *EventBus
	audits   auditSink
	auditLog auditLog
	validate *validator.Validate
	logger   *zap.Logger
	cfg      KardexServiceConfig
}

// KardexServiceParams groups constructor dependencies.
type KardexServiceParams struct {
	Backend   uploadBackend
	Session   sessionActivator
	Cache     *CacheService
	Bus       *EventBus
	Audits    auditSink
	AuditLog  auditLog
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    KardexServiceConfig
}

// NewKardexService constructs a KardexService with sane defaults.
func NewKardexService(params KardexServiceParams) *KardexService {
	cfg := params.Config
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 15 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf"}
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KardexService{
		backend:  params.Backend,
		session:  params.Session,
		cache:    params.Cache,
		bus:      params.Bus,
		audits:   params.Audits,
		auditLog: params.AuditLog,
		validate: validate,
		logger:   logger,
		cfg:      cfg,
	}
}

// Upload validates and forwards a kardex upload.
func (s *KardexService) Upload(ctx context.Context, req UploadRequest) (*dto.UploadResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "filename and file are required")
	}
	if s.backend == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "academic backend unavailable")
	}

	if req.SizeBytes > s.cfg.MaxFileSizeBytes {
		err := appErrors.Clone(appErrors.ErrUploadTooLarge, "")
		s.audit(req.Expediente, req, models.AuditOutcomeRejected, err.Message)
		return nil, err
	}
	if !s.mimeAllowed(req.ContentType) {
		err := appErrors.Clone(appErrors.ErrUnsupportedMedia, "")
		s.audit(req.Expediente, req, models.AuditOutcomeRejected, err.Message)
		return nil, err
	}

	result, err := s.backend.UploadKardex(ctx, req.Filename, req.File)
	if err != nil {
		outcome := models.AuditOutcomeRejected
		if appErrors.FromError(err).Code == appErrors.ErrUpstreamTimeout.Code {
			outcome = models.AuditOutcomeTimeout
		}
		s.audit(req.Expediente, req, outcome, err.Error())
		return nil, err
	}

	// the backend reads the expediente out of the kardex itself, so the
	// summary is the authoritative identity; a first-time upload has no
	// request value to fall back to
	expediente := resolvedExpediente(req, result.Summary)

	if !result.OK {
		s.audit(expediente, req, models.AuditOutcomeRejected, result.Message)
		return &dto.UploadResponse{OK: false, Message: result.Message}, nil
	}

	s.audit(expediente, req, models.AuditOutcomeAccepted, "")
	s.onAccepted(ctx, expediente, result.Summary)
	return &dto.UploadResponse{OK: true, Message: result.Message, Summary: result.Summary}, nil
}

func resolvedExpediente(req UploadRequest, summary *models.UserSummary) string {
	if summary != nil && summary.Expediente != "" {
		return summary.Expediente
	}
	return req.Expediente
}

// History lists previous uploads for the student.
func (s *KardexService) History(ctx context.Context, expediente string) (*dto.UploadHistoryResponse, error) {
	expediente = strings.TrimSpace(expediente)
	if expediente == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expediente is required")
	}
	if s.backend == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "academic backend unavailable")
	}
	uploads, err := s.backend.UploadHistory(ctx, expediente)
	if err != nil {
		return nil, err
	}
	if uploads == nil {
		uploads = []models.UploadRecord{}
	}

	response := &dto.UploadHistoryResponse{Uploads: uploads}
	if s.auditLog != nil {
		audits, err := s.auditLog.ListByExpediente(ctx, expediente, 20)
		if err != nil {
			s.logger.Warn("audit trail lookup failed", zap.Error(err))
		} else {
			response.Audits = audits
		}
	}
	return response, nil
}

// onAccepted runs the post-upload side effects. None of them may fail
// the upload itself.
func (s *KardexService) onAccepted(ctx context.Context, expediente string, summary *models.UserSummary) {
	if expediente == "" {
		s.logger.Warn("upload accepted without an expediente, session untouched")
		return
	}
	if s.session != nil {
		if err := s.session.Activate(ctx, expediente); err != nil {
			s.logger.Warn("session activation after upload failed", zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "*"+expediente+"*"); err != nil {
			s.logger.Warn("cache invalidation after upload failed", zap.Error(err))
		}
	}
	if s.bus != nil {
		s.bus.Publish(models.Event{
			Type:       models.EventSummaryUpdated,
			Expediente: expediente,
			Summary:    summary,
		})
	}
}

func (s *KardexService) audit(expediente string, req UploadRequest, outcome, detail string) {
	if s.audits == nil {
		return
	}
	audit := &models.UploadAudit{
		Expediente: expediente,
		Filename:   req.Filename,
		SizeBytes:  req.SizeBytes,
		MimeType:   req.ContentType,
		Outcome:    outcome,
		CreatedAt:  time.Now().UTC(),
	}
	if detail != "" {
		audit.Detail = &detail
	}
	if err := s.audits.Enqueue(audit); err != nil {
		s.logger.Warn("audit enqueue failed", zap.Error(err))
	}
}

func (s *KardexService) mimeAllowed(contentType string) bool {
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if contentType == "" {
		return false
	}
	// strip parameters such as charset
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if contentType == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
