package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/dto"
	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type academicBackend interface {
	Summary(ctx context.Context, studentID string) (*models.HistorySummary, error)
	History(ctx context.Context, studentID string) ([]models.GradeRecord, error)
	Enrolled(ctx context.Context, studentID string) ([]models.GradeRecord, error)
	Plan(ctx context.Context, studentID string) ([]models.Course, error)
}

// GradesServiceConfig tunes grades-view behaviour.
type GradesServiceConfig struct {
	CacheTTL      time.Duration
	MapMinColumns int
}

// GradesService composes the grade views from the academic backend. All
// three views share one reconciled snapshot built from four upstream
// fetches done concurrently.
type GradesService struct {
	backend academicBackend
	cache   *CacheService
	logger  *zap.Logger
	cfg     GradesServiceConfig
}

// GradesServiceParams groups constructor dependencies.
type GradesServiceParams struct {
	Backend academicBackend
	Cache   *CacheService
	Logger  *zap.Logger
	Config  GradesServiceConfig
}

// NewGradesService constructs a GradesService with sane defaults.
func NewGradesService(params GradesServiceParams) *GradesService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.MapMinColumns <= 0 {
		cfg.MapMinColumns = 8
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradesService{
		backend: params.Backend,
		cache:   params.Cache,
		logger:  logger,
		cfg:     cfg,
	}
}

// snapshot bundles everything the three views derive from.
type snapshot struct {
	Summary  models.HistorySummary  `json:"summary"`
	History  []models.GradeRecord   `json:"history"`
	Enrolled []models.GradeRecord   `json:"enrolled"`
	Plan     []models.Course        `json:"plan"`
	Rows     []models.ReconciledRow `json:"rows"`
}

// Overview returns the current-enrollment grades view: header plus the
// in-progress courses.
func (s *GradesService) Overview(ctx context.Context, expediente string) (*dto.GradesResponse, bool, error) {
	snap, cacheHit, err := s.loadSnapshot(ctx, expediente)
	if err != nil {
		return nil, false, err
	}
	return &dto.GradesResponse{
		Student:         studentHeader(snap.Summary.Student),
		CurrentPeriod:   snap.Summary.CurrentPeriod,
		CurrentSemester: snap.Summary.CurrentSemester,
		KardexAverage:   snap.Summary.KardexAverage,
		GlobalAverage:   snap.Summary.GlobalAverage,
		Courses:         InProgress(snap.Rows),
	}, cacheHit, nil
}

// History returns the course-history view under the requested selector.
// An empty view defaults to global; an empty term under the term view
// selects the most recent one.
func (s *GradesService) History(ctx context.Context, expediente, view, term string) (*dto.HistoryViewResponse, bool, error) {
	view = strings.TrimSpace(view)
	if view == "" {
		view = dto.HistoryViewGlobal
	}
	switch view {
	case dto.HistoryViewGlobal, dto.HistoryViewEnrolled, dto.HistoryViewTerm:
	default:
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "vista must be global, enrolled or term")
	}

	snap, cacheHit, err := s.loadSnapshot(ctx, expediente)
	if err != nil {
		return nil, false, err
	}

	resp := &dto.HistoryViewResponse{
		View:  view,
		Terms: Terms(snap.Rows),
	}
	switch view {
	case dto.HistoryViewEnrolled:
		resp.Rows = InProgress(snap.Rows)
	case dto.HistoryViewTerm:
		term = strings.TrimSpace(term)
		if term == "" {
			term = LatestTerm(snap.Rows)
		}
		resp.Term = term
		resp.Rows = ByTerm(snap.Rows, term)
	default:
		resp.Rows = snap.Rows
	}
	if avg, ok := Average(resp.Rows); ok {
		resp.Average = &avg
	}
	return resp, cacheHit, nil
}

// Map returns the degree map, one column per academic term.
func (s *GradesService) Map(ctx context.Context, expediente string) (*dto.MapResponse, bool, error) {
	snap, cacheHit, err := s.loadSnapshot(ctx, expediente)
	if err != nil {
		return nil, false, err
	}
	return &dto.MapResponse{
		Student:         studentHeader(snap.Summary.Student),
		CurrentSemester: snap.Summary.CurrentSemester,
		Terms:           TermBuckets(snap.History, snap.Enrolled, snap.Plan, snap.Summary.CurrentSemester, s.cfg.MapMinColumns),
	}, cacheHit, nil
}

// Snapshot exposes the reconciled rows for other services (exports).
func (s *GradesService) Snapshot(ctx context.Context, expediente string) (*dto.GradesResponse, []models.ReconciledRow, error) {
	snap, _, err := s.loadSnapshot(ctx, expediente)
	if err != nil {
		return nil, nil, err
	}
	overview := &dto.GradesResponse{
		Student:         studentHeader(snap.Summary.Student),
		CurrentPeriod:   snap.Summary.CurrentPeriod,
		CurrentSemester: snap.Summary.CurrentSemester,
		KardexAverage:   snap.Summary.KardexAverage,
		GlobalAverage:   snap.Summary.GlobalAverage,
		Courses:         InProgress(snap.Rows),
	}
	return overview, snap.Rows, nil
}

func (s *GradesService) loadSnapshot(ctx context.Context, expediente string) (*snapshot, bool, error) {
	expediente = strings.TrimSpace(expediente)
	if expediente == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "expediente is required")
	}
	if s.backend == nil {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "academic backend unavailable")
	}

	cacheKey := fmt.Sprintf("grades:snapshot:%s", expediente)
	if s.cache != nil {
		var cached snapshot
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	snap, err := s.fetchSnapshot(ctx, expediente)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, snap, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("grades snapshot cache write failed", zap.Error(err))
		}
	}
	return snap, false, nil
}

// fetchSnapshot performs the four upstream reads concurrently and joins
// them into a reconciled snapshot. The first error wins.
func (s *GradesService) fetchSnapshot(ctx context.Context, expediente string) (*snapshot, error) {
	var (
		summary  *models.HistorySummary
		history  []models.GradeRecord
		enrolled []models.GradeRecord
		plan     []models.Course
	)

	var wg sync.WaitGroup
	errs := make([]error, 4)

	wg.Add(4)
	go func() {
		defer wg.Done()
		summary, errs[0] = s.backend.Summary(ctx, expediente)
	}()
	go func() {
		defer wg.Done()
		history, errs[1] = s.backend.History(ctx, expediente)
	}()
	go func() {
		defer wg.Done()
		enrolled, errs[2] = s.backend.Enrolled(ctx, expediente)
	}()
	go func() {
		defer wg.Done()
		plan, errs[3] = s.backend.Plan(ctx, expediente)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	snap := &snapshot{
		History:  history,
		Enrolled: enrolled,
		Plan:     plan,
		Rows:     Reconcile(history, enrolled, plan),
	}
	if summary != nil {
		snap.Summary = *summary
	}
	return snap, nil
}

// planYearAliases maps internal plan codes the backend reports to the
// catalog years students recognise.
var planYearAliases = map[string]string{
	"2182": "2018",
	"2252": "2025",
}

func studentHeader(student models.StudentBlock) dto.StudentHeader {
	planYear := student.PlanYear.String()
	if alias, ok := planYearAliases[planYear]; ok {
		planYear = alias
	}
	return dto.StudentHeader{
		Name:     student.Name,
		PlanYear: planYear,
		Type:     student.Type,
		Status:   student.Status,
	}
}
