package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	"github.com/arielvz/portal-alumnos-api/pkg/config"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

// RequestObserver receives upstream request timings.
type RequestObserver interface {
	ObserveUpstreamRequest(endpoint, outcome string, duration time.Duration)
}

// Client talks to the remote academic backend. It owns per-call deadlines;
// failures are never retried here.
type Client struct {
	baseURL string
	http    *http.Client
	// stream has no client-level timeout so SSE subscriptions can live
	// for as long as the caller wants them.
	stream  *http.Client
	logger  *zap.Logger
	observe RequestObserver

	requestTimeout time.Duration
	uploadTimeout  time.Duration
	historyTimeout time.Duration
}

// NewClient constructs a backend client from configuration.
func NewClient(cfg config.BackendConfig, logger *zap.Logger, observer RequestObserver) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 180 * time.Second
	}
	historyTimeout := cfg.HistoryTimeout
	if historyTimeout <= 0 {
		historyTimeout = 60 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           &http.Client{},
		stream:         &http.Client{},
		logger:         logger,
		observe:        observer,
		requestTimeout: requestTimeout,
		uploadTimeout:  uploadTimeout,
		historyTimeout: historyTimeout,
	}
}

// Summary fetches the grade-history header for a student.
func (c *Client) Summary(ctx context.Context, studentID string) (*models.HistorySummary, error) {
	var out models.HistorySummary
	if err := c.getJSON(ctx, "/historial/summary", studentQuery(studentID), c.requestTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches all past grade records for a student.
func (c *Client) History(ctx context.Context, studentID string) ([]models.GradeRecord, error) {
	var out []models.GradeRecord
	if err := c.getJSON(ctx, "/historial/history", studentQuery(studentID), c.requestTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Enrolled fetches the courses the student is currently taking.
func (c *Client) Enrolled(ctx context.Context, studentID string) ([]models.GradeRecord, error) {
	var out []models.GradeRecord
	if err := c.getJSON(ctx, "/historial/enrolled", studentQuery(studentID), c.requestTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Plan fetches the degree-plan catalog for the student's program.
func (c *Client) Plan(ctx context.Context, studentID string) ([]models.Course, error) {
	var out []models.Course
	if err := c.getJSON(ctx, "/historial/plan", studentQuery(studentID), c.requestTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleSummary fetches the schedule header for a student.
func (c *Client) ScheduleSummary(ctx context.Context, studentID string) (*models.ScheduleSummary, error) {
	var out models.ScheduleSummary
	if err := c.getJSON(ctx, "/horario/summary", studentQuery(studentID), c.requestTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScheduleList fetches the raw schedule rows for a student.
func (c *Client) ScheduleList(ctx context.Context, studentID string) ([]models.RawScheduleRow, error) {
	var out []models.RawScheduleRow
	if err := c.getJSON(ctx, "/horario/list", studentQuery(studentID), c.requestTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserSummary fetches the credit/progress summary keyed by expediente.
func (c *Client) UserSummary(ctx context.Context, expediente string) (*models.UserSummary, error) {
	query := url.Values{}
	query.Set("expediente", expediente)
	var out models.UserSummary
	if err := c.getJSON(ctx, "/users/summary", query, c.requestTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadKardex streams a transcript PDF to the backend. The fixed upload
// deadline surfaces as ErrUpstreamTimeout with a distinct message.
func (c *Client) UploadKardex(ctx context.Context, filename string, file io.Reader) (*models.UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/kardex/upload", pr)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	c.record("/kardex/upload", err, resp, time.Since(start))
	if err != nil {
		return nil, c.classify(err, "upload timed out")
	}
	defer resp.Body.Close()

	var result models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && resp.StatusCode < 300 {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "decode upload response")
	}
	if resp.StatusCode >= 300 {
		message := result.Message
		if message == "" {
			message = fmt.Sprintf("upload rejected with status %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusRequestEntityTooLarge {
			return nil, appErrors.Clone(appErrors.ErrUploadTooLarge, message)
		}
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, message)
	}
	return &result, nil
}

// UploadHistory lists previous kardex uploads. A 404 means no uploads yet
// and is returned as an empty list. Rows are mapped permissively.
func (c *Client) UploadHistory(ctx context.Context, expediente string) ([]models.UploadRecord, error) {
	query := url.Values{}
	query.Set("expediente", expediente)

	var raw []map[string]interface{}
	err := c.getJSONTimed(ctx, "/kardex/history", query, c.historyTimeout, &raw, "history request timed out")
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return []models.UploadRecord{}, nil
		}
		return nil, err
	}

	records := make([]models.UploadRecord, 0, len(raw))
	for _, row := range raw {
		records = append(records, normalizeUploadRow(row))
	}
	return records, nil
}

func normalizeUploadRow(row map[string]interface{}) models.UploadRecord {
	rec := models.UploadRecord{
		Filename: "kardex.pdf",
		Status:   models.UploadStatusProcessing,
	}
	if v, ok := row["filename"].(string); ok && v != "" {
		rec.Filename = v
	}
	if v, ok := row["uploadedAt"].(string); ok && v != "" {
		rec.UploadedAt = v
	} else {
		rec.UploadedAt = time.Now().UTC().Format(time.RFC3339)
	}
	switch v := row["id"].(type) {
	case string:
		rec.ID = v
	case float64:
		rec.ID = fmt.Sprintf("%.0f", v)
	default:
		rec.ID = fmt.Sprintf("%s.%s", rec.Filename, rec.UploadedAt)
	}
	if v, ok := row["status"].(string); ok {
		status := models.UploadStatus(v)
		switch status {
		case models.UploadStatusValid, models.UploadStatusRejected, models.UploadStatusProcessing:
			rec.Status = status
		}
	}
	return rec
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, timeout time.Duration, dest interface{}) error {
	return c.getJSONTimed(ctx, path, query, timeout, dest, "")
}

func (c *Client) getJSONTimed(ctx context.Context, path string, query url.Values, timeout time.Duration, dest interface{}, timeoutMessage string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build backend request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.record(path, err, resp, time.Since(start))
	if err != nil {
		return c.classify(err, timeoutMessage)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErrors.Wrap(
			fmt.Errorf("backend %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))),
			appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status,
			appErrors.ErrUpstreamUnavailable.Message,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "malformed backend response")
	}
	return nil
}

func (c *Client) classify(err error, timeoutMessage string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		if timeoutMessage != "" {
			return appErrors.Clone(appErrors.ErrUpstreamTimeout, timeoutMessage)
		}
		return appErrors.ErrUpstreamTimeout
	}
	return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
}

func (c *Client) record(endpoint string, err error, resp *http.Response, duration time.Duration) {
	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case resp != nil && resp.StatusCode >= 300:
		outcome = fmt.Sprintf("http_%d", resp.StatusCode)
	}
	if c.observe != nil {
		c.observe.ObserveUpstreamRequest(endpoint, outcome, duration)
	}
	if outcome != "ok" {
		c.logger.Warn("backend request failed",
			zap.String("endpoint", endpoint),
			zap.String("outcome", outcome),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
}

func studentQuery(studentID string) url.Values {
	query := url.Values{}
	query.Set("studentId", studentID)
	return query
}
