package steps

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/dgnsrekt/storefront_e2e/internal/dateutil"
	"github.com/dgnsrekt/storefront_e2e/internal/logging"
	"github.com/dgnsrekt/storefront_e2e/internal/notify"
	"github.com/dgnsrekt/storefront_e2e/internal/runlog"
)

// Suite owns the run-wide dependencies and the pass/fail tally.
type Suite struct {
	Name string
	deps *Deps

	mu      sync.Mutex
	started time.Time
	passed  int
	failed  int
}

func NewSuite(name string, deps Deps) *Suite {
	if deps.WaitTimeout <= 0 {
		deps.WaitTimeout = 10 * time.Second
	}
	if deps.OTPSettle < 0 {
		deps.OTPSettle = 0
	}
	return &Suite{Name: name, deps: &deps}
}

// InitializeTestSuite registers the suite hooks.
func (s *Suite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		s.mu.Lock()
		s.started = time.Now()
		s.mu.Unlock()
		logging.Audit(context.Background(), "suite started", "suite", s.Name, "env", s.deps.Env, "run_id", s.deps.RunID)
		if dir := s.deps.DownloadDir; dir != "" {
			if err := os.RemoveAll(dir); err != nil {
				slog.Warn("download dir cleanup failed", "dir", dir, "error", err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				slog.Warn("download dir create failed", "dir", dir, "error", err)
			}
		}
	})
	ctx.AfterSuite(func() {
		sum := s.Summary()
		logging.Audit(context.Background(), "suite finished",
			"suite", s.Name,
			"passed", sum.Passed,
			"failed", sum.Failed,
			"duration", dateutil.FormatDuration(sum.Duration),
		)
	})
}

// Summary returns the tally so far.
func (s *Suite) Summary() notify.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var elapsed time.Duration
	if !s.started.IsZero() {
		elapsed = time.Since(s.started)
	}
	return notify.Summary{Suite: s.Name, Env: s.deps.Env, Passed: s.passed, Failed: s.failed, Duration: elapsed}
}

// InitializeScenario binds the step definitions to a fresh World.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	w := newWorld(s.deps)

	sc.Step(`^the user is on the Titan Eye Plus homepage$`, w.userIsOnHomepage)
	sc.Step(`^the user enters their registered mobile number$`, w.userEntersMobileNumber)
	sc.Step(`^the user retrieves the OTP from their Gmail account and submits it$`, w.userSubmitsOTPFromGmail)
	sc.Step(`^the user should be logged in successfully$`, w.userIsLoggedIn)
	sc.Step(`^the profile details of the user are verified$`, w.profileDetailsVerified)
	sc.Step(`^the user logs out$`, w.userLogsOut)
	sc.Step(`^the user should be logged out successfully$`, w.userIsLoggedOut)
	sc.Step(`^the email address details of the user are verified$`, w.emailDetailsVerified)

	sc.Before(func(ctx context.Context, pickle *godog.Scenario) (context.Context, error) {
		w.scenario = pickle.Name
		w.feature = pickle.Uri
		w.tags = w.tags[:0]
		for _, tag := range pickle.Tags {
			w.tags = append(w.tags, tag.Name)
		}
		w.started = time.Now()
		w.steps = nil
		logging.Audit(ctx, "scenario started", "feature", w.feature, "scenario", w.scenario)
		return ctx, nil
	})

	sc.StepContext().Before(func(ctx context.Context, st *godog.Step) (context.Context, error) {
		slog.Info("step", "text", st.Text)
		if s.deps.StepTimeout <= 0 {
			return ctx, nil
		}
		w.stepParent = ctx
		stepCtx, cancel := context.WithTimeout(ctx, s.deps.StepTimeout)
		w.stepCancel = cancel
		return stepCtx, nil
	})

	sc.StepContext().After(func(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		if w.stepCancel != nil {
			w.stepCancel()
			w.stepCancel = nil
			ctx = w.stepParent
			w.stepParent = nil
		}
		rec := runlog.StepRecord{Text: st.Text, Status: status.String()}
		if err != nil {
			rec.Error = err.Error()
		}
		if status == godog.StepFailed {
			rec.Snapshot = w.captureFailure(st.Text, err)
		}
		w.steps = append(w.steps, rec)
		return ctx, nil
	})

	sc.After(func(ctx context.Context, pickle *godog.Scenario, err error) (context.Context, error) {
		elapsed := time.Since(w.started)
		status := "passed"
		if err != nil {
			status = "failed"
		}

		s.mu.Lock()
		if err != nil {
			s.failed++
		} else {
			s.passed++
		}
		s.mu.Unlock()

		logging.Audit(ctx, "scenario finished",
			"scenario", pickle.Name,
			"status", strings.ToUpper(status),
			"duration", dateutil.FormatDuration(elapsed),
		)
		w.writeRecord(status, err, elapsed)

		if resetErr := w.browser.Reset(context.WithoutCancel(ctx)); resetErr != nil {
			slog.Warn("browser reset failed", "scenario", pickle.Name, "error", resetErr)
		}
		return ctx, nil
	})
}

// captureFailure stores a screenshot of the failed step and returns its ID.
func (w *World) captureFailure(step string, stepErr error) string {
	if w.deps.Snapshots == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	png, err := w.browser.Session().Screenshot(ctx)
	if err != nil {
		slog.Warn("failure screenshot failed", "step", step, "error", err)
		return ""
	}
	url, err := w.browser.URL(ctx)
	if err != nil {
		slog.Debug("failure screenshot url lookup failed", "error", err)
	}
	meta, err := w.deps.Snapshots.Record(w.scenario, step, url, stepErr, png)
	if err != nil {
		slog.Warn("failure screenshot save failed", "step", step, "error", err)
		return ""
	}
	return meta.ID
}

func (w *World) writeRecord(status string, scenarioErr error, elapsed time.Duration) {
	if w.deps.RunLog == nil {
		return
	}
	rec := runlog.Record{
		RunID:      w.deps.RunID,
		Env:        w.deps.Env,
		Feature:    w.feature,
		Scenario:   w.scenario,
		Tags:       append([]string(nil), w.tags...),
		Status:     status,
		Steps:      w.steps,
		StartedAt:  w.started.UTC(),
		DurationMS: elapsed.Milliseconds(),
		Duration:   dateutil.FormatDuration(elapsed),
	}
	if scenarioErr != nil {
		rec.Error = scenarioErr.Error()
	}
	if err := w.deps.RunLog.Write(rec); err != nil {
		slog.Warn("run log write failed", "scenario", w.scenario, "error", err)
	}
}
