package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type fakeScheduleBackend struct {
	summary    *models.ScheduleSummary
	rows       []models.RawScheduleRow
	summaryErr error
	rowsErr    error
	calls      int
}

func (f *fakeScheduleBackend) ScheduleSummary(context.Context, string) (*models.ScheduleSummary, error) {
	f.calls++
	return f.summary, f.summaryErr
}

func (f *fakeScheduleBackend) ScheduleList(context.Context, string) ([]models.RawScheduleRow, error) {
	return f.rows, f.rowsErr
}

func TestScheduleServiceView(t *testing.T) {
	backend := &fakeScheduleBackend{
		summary: &models.ScheduleSummary{Status: "VIGENTE", Type: "REGULAR", PeriodLabel: "2025-1"},
		rows: []models.RawScheduleRow{
			{ID: 42, CourseCode: "4111", CourseName: "Computacion I", Status: "INSCRITA", Period: "2025-1"},
			{ID: 0, CourseCode: "4113", CourseName: "Computacion II", Status: "INSCRITA", Period: "2025-1"},
		},
	}
	svc := NewScheduleService(ScheduleServiceParams{Backend: backend})

	view, cacheHit, err := svc.View(context.Background(), "317016512")
	require.NoError(t, err)
	assert.False(t, cacheHit)

	assert.Equal(t, "VIGENTE", view.Student.Status)
	assert.Equal(t, "2025-1", view.Student.CurrentPeriod)

	require.Len(t, view.Courses, 2)
	assert.Equal(t, "42", view.Courses[0].ID)
	assert.Equal(t, "4111", view.Courses[0].Code)
	// rows without a numeric id fall back to the course code
	assert.Equal(t, "4113", view.Courses[1].ID)
}

func TestScheduleServiceViewRequiresExpediente(t *testing.T) {
	svc := NewScheduleService(ScheduleServiceParams{Backend: &fakeScheduleBackend{}})

	_, _, err := svc.View(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceViewPropagatesBackendError(t *testing.T) {
	backend := &fakeScheduleBackend{rowsErr: appErrors.ErrUpstreamUnavailable}
	svc := NewScheduleService(ScheduleServiceParams{Backend: backend})

	_, _, err := svc.View(context.Background(), "317016512")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceViewUsesCache(t *testing.T) {
	backend := &fakeScheduleBackend{
		summary: &models.ScheduleSummary{Status: "VIGENTE", PeriodLabel: "2025-1"},
	}
	cache := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewScheduleService(ScheduleServiceParams{Backend: backend, Cache: cache})
	ctx := context.Background()

	_, cacheHit, err := svc.View(ctx, "317016512")
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, backend.calls)

	view, cacheHit, err := svc.View(ctx, "317016512")
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, "VIGENTE", view.Student.Status)
}
