package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/dto"
	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type summaryBackend interface {
	UserSummary(ctx context.Context, expediente string) (*models.UserSummary, error)
}

// CreditsServiceConfig carries degree requirements the backend does not
// report itself.
type CreditsServiceConfig struct {
	RequiredEnglishLevel int
	EnglishLevelScale    int
	CacheTTL             time.Duration
}

// CreditsService derives the credit-progress view from the user summary.
type CreditsService struct {
	backend summaryBackend
	cache   *CacheService
	logger  *zap.Logger
	cfg     CreditsServiceConfig
}

// CreditsServiceParams groups constructor dependencies.
type CreditsServiceParams struct {
	Backend summaryBackend
	Cache   *CacheService
	Logger  *zap.Logger
	Config  CreditsServiceConfig
}

// NewCreditsService constructs a CreditsService with sane defaults.
func NewCreditsService(params CreditsServiceParams) *CreditsService {
	cfg := params.Config
	if cfg.RequiredEnglishLevel <= 0 {
		cfg.RequiredEnglishLevel = 5
	}
	if cfg.EnglishLevelScale <= 0 {
		cfg.EnglishLevelScale = 7
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditsService{
		backend: params.Backend,
		cache:   params.Cache,
		logger:  logger,
		cfg:     cfg,
	}
}

// View returns the credit-progress view for the student.
func (s *CreditsService) View(ctx context.Context, expediente string) (*dto.CreditsResponse, bool, error) {
	expediente = strings.TrimSpace(expediente)
	if expediente == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "expediente is required")
	}
	if s.backend == nil {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "academic backend unavailable")
	}

	cacheKey := fmt.Sprintf("credits:view:%s", expediente)
	if s.cache != nil {
		var cached dto.CreditsResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.backend.UserSummary(ctx, expediente)
	if err != nil {
		return nil, false, err
	}
	view := &dto.CreditsResponse{CreditsView: s.compose(summary)}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, view, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("credits cache write failed", zap.Error(err))
		}
	}
	return view, false, nil
}

func (s *CreditsService) compose(summary *models.UserSummary) models.CreditsView {
	if summary == nil {
		return models.CreditsView{
			English: models.EnglishProgress{
				RequiredLevel: s.cfg.RequiredEnglishLevel,
				Scale:         s.cfg.EnglishLevelScale,
			},
		}
	}
	english := models.EnglishProgress{
		RequiredLevel: s.cfg.RequiredEnglishLevel,
		Scale:         s.cfg.EnglishLevelScale,
	}
	if summary.EnglishLevel != nil {
		english.CurrentLevel = *summary.EnglishLevel
	}
	return models.CreditsView{
		Current:                       summary.CurrentCredits,
		Required:                      summary.TotalCredits,
		English:                       english,
		SocialServiceFulfilled:        summary.SocialServiceDone,
		ProfessionalPracticeFulfilled: summary.ProfessionalPractice,
		// the backend does not report mobility, it tracks social service
		Mobility: summary.SocialServiceDone,
	}
}
