package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arielvz/portal-alumnos-api/pkg/config"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (r *recordingObserver) ObserveUpstreamRequest(endpoint, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]string{}
	}
	r.outcomes[endpoint] = outcome
}

func (r *recordingObserver) outcome(endpoint string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[endpoint]
}

func newTestClient(baseURL string, observer RequestObserver) *Client {
	return NewClient(config.BackendConfig{
		BaseURL:        baseURL,
		RequestTimeout: 2 * time.Second,
		UploadTimeout:  2 * time.Second,
		HistoryTimeout: 2 * time.Second,
	}, nil, observer)
}

func TestClientSummary(t *testing.T) {
	observer := &recordingObserver{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/historial/summary", r.URL.Path)
		assert.Equal(t, "317016512", r.URL.Query().Get("studentId"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"student":{"name":"Ana Martinez","planYear":2018,"type":"Regular","status":"Activo"},"currentPeriod":"2025-1","currentSemester":3,"kardexAverage":84.5,"globalAverage":82.1}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, observer)
	summary, err := client.Summary(context.Background(), "317016512")
	require.NoError(t, err)
	assert.Equal(t, "Ana Martinez", summary.Student.Name)
	assert.Equal(t, "2018", summary.Student.PlanYear.String())
	assert.Equal(t, 84.5, summary.KardexAverage)
	assert.Equal(t, "ok", observer.outcome("/historial/summary"))
}

func TestClientHistoryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	_, err := client.History(context.Background(), "317016512")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestClientUpstreamError(t *testing.T) {
	observer := &recordingObserver{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, observer)
	_, err := client.Plan(context.Background(), "317016512")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "http_500", observer.outcome("/historial/plan"))
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(config.BackendConfig{
		BaseURL:        server.URL,
		RequestTimeout: 50 * time.Millisecond,
	}, nil, nil)

	_, err := client.Enrolled(context.Background(), "317016512")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamTimeout.Code, appErrors.FromError(err).Code)
}

func TestClientUploadKardex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		payload, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "kardex.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4 sample", string(payload))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"summary":{"name":"Ana Martinez","expediente":"317016512"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	result, err := client.UploadKardex(context.Background(), "kardex.pdf", strings.NewReader("%PDF-1.4 sample"))
	require.NoError(t, err)
	assert.True(t, result.OK)
	require.NotNil(t, result.Summary)
	assert.Equal(t, "317016512", result.Summary.Expediente)
}

func TestClientUploadKardexRejectedTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	_, err := client.UploadKardex(context.Background(), "kardex.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUploadTooLarge.Code, appErrors.FromError(err).Code)
}

func TestClientUploadHistoryEmptyOnNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	records, err := client.UploadHistory(context.Background(), "317016512")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClientUploadHistoryNormalizesRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "317016512", r.URL.Query().Get("expediente"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":12,"filename":"kardex.pdf","uploadedAt":"2025-08-01T10:00:00Z","status":"valid"},{"status":"weird"}]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	records, err := client.UploadHistory(context.Background(), "317016512")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "12", records[0].ID)
	assert.Equal(t, "kardex.pdf", records[0].Filename)
	assert.Equal(t, "2025-08-01T10:00:00Z", records[0].UploadedAt)

	// unknown status falls back to processing, missing fields get defaults
	assert.Equal(t, "kardex.pdf", records[1].Filename)
	assert.NotEmpty(t, records[1].ID)
	assert.NotEmpty(t, records[1].UploadedAt)
}
