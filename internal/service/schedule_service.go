package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/dto"
	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type scheduleBackend interface {
	ScheduleSummary(ctx context.Context, studentID string) (*models.ScheduleSummary, error)
	ScheduleList(ctx context.Context, studentID string) ([]models.RawScheduleRow, error)
}

// ScheduleService composes the current-schedule view. The backend's two
// schedule endpoints are fetched concurrently and their Spanish wire
// fields are normalised before serving.
type ScheduleService struct {
	backend  scheduleBackend
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// ScheduleServiceParams groups constructor dependencies.
type ScheduleServiceParams struct {
	Backend  scheduleBackend
	Cache    *CacheService
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(params ScheduleServiceParams) *ScheduleService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		backend:  params.Backend,
		cache:    params.Cache,
		logger:   logger,
		cacheTTL: ttl,
	}
}

// View returns the schedule view for the student.
func (s *ScheduleService) View(ctx context.Context, expediente string) (*dto.ScheduleResponse, bool, error) {
	expediente = strings.TrimSpace(expediente)
	if expediente == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "expediente is required")
	}
	if s.backend == nil {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "academic backend unavailable")
	}

	cacheKey := fmt.Sprintf("schedule:view:%s", expediente)
	if s.cache != nil {
		var cached dto.ScheduleResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	var (
		summary *models.ScheduleSummary
		rows    []models.RawScheduleRow
	)
	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, errs[0] = s.backend.ScheduleSummary(ctx, expediente)
	}()
	go func() {
		defer wg.Done()
		rows, errs[1] = s.backend.ScheduleList(ctx, expediente)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, false, err
		}
	}

	view := &dto.ScheduleResponse{
		Courses: normaliseScheduleRows(rows),
	}
	if summary != nil {
		view.Student = models.ScheduleStudent{
			Status:        summary.Status,
			Type:          summary.Type,
			CurrentPeriod: summary.PeriodLabel,
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.Error(err))
		}
	}
	return view, false, nil
}

func normaliseScheduleRows(rows []models.RawScheduleRow) []models.ScheduleCourse {
	courses := make([]models.ScheduleCourse, 0, len(rows))
	for _, row := range rows {
		id := strconv.FormatInt(row.ID, 10)
		if row.ID == 0 {
			id = row.CourseCode
		}
		courses = append(courses, models.ScheduleCourse{
			ID:     id,
			Code:   row.CourseCode,
			Name:   row.CourseName,
			Status: row.Status,
			Period: row.Period,
		})
	}
	return courses
}
