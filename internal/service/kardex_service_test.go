package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type fakeUploadBackend struct {
	result  *models.UploadResult
	uploads []models.UploadRecord
	err     error
}

func (f *fakeUploadBackend) UploadKardex(context.Context, string, io.Reader) (*models.UploadResult, error) {
	return f.result, f.err
}

func (f *fakeUploadBackend) UploadHistory(context.Context, string) ([]models.UploadRecord, error) {
	return f.uploads, f.err
}

type fakeSessions struct {
	mu        sync.Mutex
	activated []string
	err       error
}

func (f *fakeSessions) Activate(_ context.Context, expediente string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.activated = append(f.activated, expediente)
	return nil
}

type fakeAuditLog struct {
	rows           []models.UploadAudit
	lastExpediente string
}

func (f *fakeAuditLog) ListByExpediente(_ context.Context, expediente string, _ int) ([]models.UploadAudit, error) {
	f.lastExpediente = expediente
	return f.rows, nil
}

type fakeAuditSink struct {
	mu     sync.Mutex
	audits []*models.UploadAudit
}

func (f *fakeAuditSink) Enqueue(audit *models.UploadAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeAuditSink) outcomes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.audits))
	for _, audit := range f.audits {
		out = append(out, audit.Outcome)
	}
	return out
}

func pdfUpload() UploadRequest {
	return UploadRequest{
		Expediente:  "317016512",
		Filename:    "kardex.pdf",
		SizeBytes:   100_000,
		ContentType: "application/pdf",
		File:        strings.NewReader("%PDF-1.4"),
	}
}

func TestKardexServiceUploadAccepted(t *testing.T) {
	summary := &models.UserSummary{Expediente: "317016512", GlobalAverage: 85}
	backend := &fakeUploadBackend{result: &models.UploadResult{OK: true, Summary: summary}}
	sessions := &fakeSessions{}
	audits := &fakeAuditSink{}
	bus := NewEventBus(4, zap.NewNop())
	events, cancel := bus.Subscribe()
	defer cancel()

	svc := NewKardexService(KardexServiceParams{
		Backend: backend,
		Session: sessions,
		Bus:     bus,
		Audits:  audits,
	})

	resp, err := svc.Upload(context.Background(), pdfUpload())
	require.NoError(t, err)
	assert.True(t, resp.OK)
	require.NotNil(t, resp.Summary)

	assert.Equal(t, []string{"317016512"}, sessions.activated)
	assert.Equal(t, []string{models.AuditOutcomeAccepted}, audits.outcomes())

	select {
	case event := <-events:
		assert.Equal(t, models.EventSummaryUpdated, event.Type)
		assert.Equal(t, "317016512", event.Expediente)
		require.NotNil(t, event.Summary)
		assert.Equal(t, 85.0, event.Summary.GlobalAverage)
	case <-time.After(time.Second):
		t.Fatal("expected summary event")
	}
}

func TestKardexServiceUploadRejectedUpstream(t *testing.T) {
	backend := &fakeUploadBackend{result: &models.UploadResult{OK: false, Message: "kardex invalido"}}
	sessions := &fakeSessions{}
	audits := &fakeAuditSink{}
	svc := NewKardexService(KardexServiceParams{Backend: backend, Session: sessions, Audits: audits})

	resp, err := svc.Upload(context.Background(), pdfUpload())
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "kardex invalido", resp.Message)

	assert.Empty(t, sessions.activated)
	assert.Equal(t, []string{models.AuditOutcomeRejected}, audits.outcomes())
}

func TestKardexServiceUploadTooLarge(t *testing.T) {
	audits := &fakeAuditSink{}
	svc := NewKardexService(KardexServiceParams{
		Backend: &fakeUploadBackend{},
		Audits:  audits,
		Config:  KardexServiceConfig{MaxFileSizeBytes: 1024},
	})

	req := pdfUpload()
	req.SizeBytes = 4096
	_, err := svc.Upload(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUploadTooLarge.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{models.AuditOutcomeRejected}, audits.outcomes())
}

func TestKardexServiceUploadWrongMIME(t *testing.T) {
	audits := &fakeAuditSink{}
	svc := NewKardexService(KardexServiceParams{Backend: &fakeUploadBackend{}, Audits: audits})

	req := pdfUpload()
	req.ContentType = "image/png"
	_, err := svc.Upload(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedMedia.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{models.AuditOutcomeRejected}, audits.outcomes())
}

func TestKardexServiceUploadTimeoutAudited(t *testing.T) {
	audits := &fakeAuditSink{}
	svc := NewKardexService(KardexServiceParams{
		Backend: &fakeUploadBackend{err: appErrors.Clone(appErrors.ErrUpstreamTimeout, "upload timed out")},
		Audits:  audits,
	})

	_, err := svc.Upload(context.Background(), pdfUpload())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamTimeout.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{models.AuditOutcomeTimeout}, audits.outcomes())
}

func TestKardexServiceUploadValidation(t *testing.T) {
	svc := NewKardexService(KardexServiceParams{Backend: &fakeUploadBackend{}})

	req := pdfUpload()
	req.Filename = ""
	_, err := svc.Upload(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// A brand-new student has no expediente until the backend reads it out
// of the kardex: the first upload must go through without one and the
// session takes the identity from the upload summary.
func TestKardexServiceFirstUploadActivatesSessionFromSummary(t *testing.T) {
	summary := &models.UserSummary{Expediente: "317016512", GlobalAverage: 85}
	backend := &fakeUploadBackend{result: &models.UploadResult{OK: true, Summary: summary}}
	sessions := &fakeSessions{}
	audits := &fakeAuditSink{}
	bus := NewEventBus(4, zap.NewNop())
	events, cancel := bus.Subscribe()
	defer cancel()

	svc := NewKardexService(KardexServiceParams{
		Backend: backend,
		Session: sessions,
		Bus:     bus,
		Audits:  audits,
	})

	req := pdfUpload()
	req.Expediente = ""
	resp, err := svc.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.OK)

	assert.Equal(t, []string{"317016512"}, sessions.activated)
	require.Len(t, audits.audits, 1)
	assert.Equal(t, "317016512", audits.audits[0].Expediente)

	select {
	case event := <-events:
		assert.Equal(t, models.EventSummaryUpdated, event.Type)
		assert.Equal(t, "317016512", event.Expediente)
	case <-time.After(time.Second):
		t.Fatal("expected summary event")
	}
}

func TestKardexServiceHistory(t *testing.T) {
	backend := &fakeUploadBackend{uploads: []models.UploadRecord{
		{ID: "kardex.pdf.2025-08-01T10:00:00Z", Filename: "kardex.pdf", Status: models.UploadStatusValid},
	}}
	svc := NewKardexService(KardexServiceParams{Backend: backend})

	resp, err := svc.History(context.Background(), "317016512")
	require.NoError(t, err)
	require.Len(t, resp.Uploads, 1)
	assert.Equal(t, "kardex.pdf", resp.Uploads[0].Filename)
}

func TestKardexServiceHistoryIncludesAuditTrail(t *testing.T) {
	backend := &fakeUploadBackend{uploads: []models.UploadRecord{
		{ID: "1", Filename: "kardex.pdf", Status: models.UploadStatusValid},
	}}
	trail := &fakeAuditLog{rows: []models.UploadAudit{
		{Expediente: "317016512", Filename: "kardex.pdf", Outcome: models.AuditOutcomeAccepted},
	}}
	svc := NewKardexService(KardexServiceParams{Backend: backend, AuditLog: trail})

	resp, err := svc.History(context.Background(), "317016512")
	require.NoError(t, err)
	require.Len(t, resp.Audits, 1)
	assert.Equal(t, models.AuditOutcomeAccepted, resp.Audits[0].Outcome)
	assert.Equal(t, "317016512", trail.lastExpediente)
}

func TestKardexServiceHistoryEmpty(t *testing.T) {
	svc := NewKardexService(KardexServiceParams{Backend: &fakeUploadBackend{}})

	resp, err := svc.History(context.Background(), "317016512")
	require.NoError(t, err)
	assert.NotNil(t, resp.Uploads)
	assert.Empty(t, resp.Uploads)
}
