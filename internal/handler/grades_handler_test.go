package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/arielvz/portal-alumnos-api/internal/dto"
	"github.com/arielvz/portal-alumnos-api/internal/middleware"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type fakeGradesSrv struct {
	overview    *dto.GradesResponse
	overviewHit bool
	overviewErr error
	history     *dto.HistoryViewResponse
	historyErr  error
	mapResp     *dto.MapResponse
	mapErr      error
	lastHistory struct {
		expediente string
		view       string
		term       string
	}
}

func (f *fakeGradesSrv) Overview(context.Context, string) (*dto.GradesResponse, bool, error) {
	return f.overview, f.overviewHit, f.overviewErr
}

func (f *fakeGradesSrv) History(_ context.Context, expediente, view, term string) (*dto.HistoryViewResponse, bool, error) {
	f.lastHistory.expediente = expediente
	f.lastHistory.view = view
	f.lastHistory.term = term
	return f.history, false, f.historyErr
}

func (f *fakeGradesSrv) Map(context.Context, string) (*dto.MapResponse, bool, error) {
	return f.mapResp, false, f.mapErr
}

type fakeResolver struct {
	active string
}

func (f *fakeResolver) Resolve(_ context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if f.active == "" {
		return "", appErrors.ErrNoActiveSession
	}
	return f.active, nil
}

func TestGradesHandlerOverviewRequiresStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradesHandler(&fakeGradesSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calificaciones", nil)

	handler.Overview(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradesHandlerOverviewSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradesHandler(&fakeGradesSrv{
		overview: &dto.GradesResponse{
			Student:       dto.StudentHeader{Name: "Ana Martinez"},
			CurrentPeriod: "2025-1",
		},
		overviewHit: true,
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calificaciones?studentId=317016512", nil)
	middleware.WithResponseMeta()(c)

	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "2025-1", envelope.Data["currentPeriod"])
}

func TestGradesHandlerOverviewSessionFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradesHandler(&fakeGradesSrv{overview: &dto.GradesResponse{}}, &fakeResolver{active: "317016512"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calificaciones", nil)

	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGradesHandlerHistoryForwardsSelectors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeGradesSrv{history: &dto.HistoryViewResponse{View: dto.HistoryViewTerm, Term: "2024-2"}}
	handler := NewGradesHandler(service, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calificaciones/historial?studentId=317016512&vista=term&semestre=2024-2", nil)

	handler.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "317016512", service.lastHistory.expediente)
	assert.Equal(t, "term", service.lastHistory.view)
	assert.Equal(t, "2024-2", service.lastHistory.term)
}

func TestGradesHandlerMapUpstreamTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradesHandler(&fakeGradesSrv{
		mapErr: appErrors.Clone(appErrors.ErrUpstreamTimeout, "upstream timed out"),
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calificaciones/mapa?studentId=317016512", nil)

	handler.Map(c)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
