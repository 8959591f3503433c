package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type summaryEnvelope struct {
	OK      bool                `json:"ok"`
	Summary *models.UserSummary `json:"summary"`
}

// SubscribeSummary opens the backend's SSE channel for an expediente and
// yields summary snapshots until the context is cancelled or the upstream
// closes the stream. The returned channel is closed on teardown and the
// subscription never restarts itself.
func (c *Client) SubscribeSummary(ctx context.Context, expediente string) (<-chan models.UserSummary, error) {
	query := url.Values{}
	query.Set("canal", expediente)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/realtime/sse?"+query.Encode(), nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build sse request")
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, c.classify(err, "")
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, "sse subscription refused")
	}

	out := make(chan models.UserSummary, 8)
	go c.readEvents(ctx, resp, expediente, out)
	return out, nil
}

func (c *Client) readEvents(ctx context.Context, resp *http.Response, expediente string, out chan<- models.UserSummary) {
	defer close(out)
	defer resp.Body.Close()

	// Tear the read down when the subscriber context goes away; closing
	// the body unblocks the scanner.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			resp.Body.Close()
		case <-done:
		}
	}()

	var eventName string
	var data strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			c.dispatch(eventName, data.String(), expediente, out)
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// comment lines (":heartbeat") and unknown fields are ignored
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.logger.Warn("sse stream ended",
			zap.String("expediente", expediente),
			zap.Error(err),
		)
	}
}

func (c *Client) dispatch(eventName, payload, expediente string, out chan<- models.UserSummary) {
	if payload == "" {
		return
	}
	switch eventName {
	case "snapshot", "finish":
	default:
		return
	}

	var envelope summaryEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		c.logger.Warn("sse payload unreadable",
			zap.String("expediente", expediente),
			zap.Error(err),
		)
		return
	}
	if !envelope.OK || envelope.Summary == nil {
		return
	}

	select {
	case out <- *envelope.Summary:
	default:
		// slow consumer: drop the snapshot, a newer one replaces it anyway
	}
}
