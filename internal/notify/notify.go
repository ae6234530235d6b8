// Package notify posts plain-text run summaries to an ntfy-style endpoint.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/dateutil"
)

// Summary is the outcome of one suite run.
type Summary struct {
	Suite    string
	Env      string
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
}

func (s Summary) Total() int { return s.Passed + s.Failed + s.Skipped }

// Message renders the summary as a single notification line.
func (s Summary) Message() string {
	status := "PASSED"
	if s.Failed > 0 {
		status = "FAILED"
	}
	return fmt.Sprintf("%s [%s] %s: %d scenarios, %d passed, %d failed, %d skipped in %s",
		s.Suite, s.Env, status, s.Total(), s.Passed, s.Failed, s.Skipped, dateutil.FormatDuration(s.Duration))
}

// SendSummary posts s to endpoint. An empty endpoint disables notification.
func SendSummary(ctx context.Context, client *http.Client, endpoint string, s Summary) error {
	if endpoint == "" {
		slog.Debug("run notification disabled")
		return nil
	}
	return Send(ctx, client, endpoint, s.Message())
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}
	if endpoint == "" {
		return fmt.Errorf("ntfy notification failed: endpoint is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		slog.Debug("ntfy response drain failed", "error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
