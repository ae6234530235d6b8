// Package steps binds the storefront login feature to godog.
package steps

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/browser"
	"github.com/dgnsrekt/storefront_e2e/internal/config"
	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/gmail"
	"github.com/dgnsrekt/storefront_e2e/internal/pages"
	"github.com/dgnsrekt/storefront_e2e/internal/runlog"
	"github.com/dgnsrekt/storefront_e2e/internal/scenario"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
	"github.com/dgnsrekt/storefront_e2e/internal/snapshot"
)

// HomeTab is the managed tab the storefront is opened in.
const HomeTab = "storefront"

// Deps are the run-wide collaborators shared by every scenario.
type Deps struct {
	Env         string
	BaseURL     string
	Session     session.Session
	Data        *config.TestData
	Credentials gmail.Credentials
	HTTPClient  *http.Client
	Snapshots   *snapshot.Store
	RunLog      *runlog.Writer
	RunID       string

	Timings      pages.Timings
	MailDelay    time.Duration
	OTPSettle    time.Duration
	WaitTimeout  time.Duration
	StepTimeout  time.Duration
	PollInterval time.Duration
	DownloadDir  string
}

// World is the per-scenario state: a fresh tab registry, scenario context,
// page object and OTP workflow.
type World struct {
	deps    *Deps
	browser *browser.Browser
	values  *scenario.Context
	login   *pages.LoginPage
	otp     *gmail.Workflow

	feature    string
	scenario   string
	tags       []string
	started    time.Time
	steps      []runlog.StepRecord
	stepParent context.Context
	stepCancel context.CancelFunc
}

func newWorld(deps *Deps) *World {
	b := browser.New(deps.Session,
		browser.WithWaitTimeout(deps.WaitTimeout),
		browser.WithPollInterval(deps.PollInterval),
	)
	values := scenario.NewContext()
	return &World{
		deps:    deps,
		browser: b,
		values:  values,
		login:   pages.NewLoginPage(b, deps.Data, values, deps.Timings),
		otp: gmail.New(deps.Credentials, values,
			gmail.WithHTTPClient(deps.HTTPClient),
			gmail.WithPauser(b),
			gmail.WithDelay(deps.MailDelay),
		),
	}
}

func (w *World) userIsOnHomepage(ctx context.Context) error {
	if _, err := w.browser.OpenTab(ctx, HomeTab, w.deps.BaseURL); err != nil {
		return err
	}
	slog.Info("opened homepage", "url", w.deps.BaseURL, "description", "Titan Eye Plus - Homepage")
	if err := w.browser.MaximizeWindow(ctx); err != nil {
		return err
	}
	return w.browser.WaitForDocumentReady(ctx, w.deps.WaitTimeout)
}

func (w *World) userEntersMobileNumber(ctx context.Context) error {
	w.login.HandleRandomModals(ctx)
	if err := w.login.ClickSignIn(ctx); err != nil {
		return err
	}
	if err := w.login.VerifySignInModal(ctx); err != nil {
		return err
	}
	w.login.HandleRandomModals(ctx)
	if err := w.login.EnterMobileNumber(ctx); err != nil {
		return err
	}
	return w.login.ClickSubmit(ctx)
}

func (w *World) userSubmitsOTPFromGmail(ctx context.Context) error {
	if err := w.browser.Wait(ctx, w.deps.OTPSettle); err != nil {
		return err
	}
	w.login.HandleRandomModals(ctx)
	if _, err := w.otp.Run(ctx); err != nil {
		return err
	}
	w.login.HandleRandomModals(ctx)
	return w.login.EnterOTP(ctx)
}

func (w *World) userIsLoggedIn(ctx context.Context) error {
	w.login.HandleRandomModals(ctx)
	ok, err := w.login.IsLoggedIn(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.CodeValidation, "expected My Account menu to exist after login")
	}
	return nil
}

func expectEqual(field, got, want string) error {
	if got != want {
		return errs.New(errs.CodeValidation, fmt.Sprintf("%s = %q, want %q", field, got, want))
	}
	return nil
}

func (w *World) profileDetailsVerified(ctx context.Context) error {
	if err := w.login.NavigateToMyProfile(ctx); err != nil {
		return err
	}
	for _, check := range []struct {
		field string
		read  func(context.Context) (string, error)
		want  string
	}{
		{"first name", w.login.ProfileFirstName, w.deps.Data.ProfileDetails.FirstName},
		{"last name", w.login.ProfileLastName, w.deps.Data.ProfileDetails.LastName},
		{"phone number", w.login.ProfilePhone, w.deps.Data.Modal.RegisteredNumber},
	} {
		got, err := check.read(ctx)
		if err != nil {
			return err
		}
		if err := expectEqual(check.field, got, check.want); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) userLogsOut(ctx context.Context) error {
	return w.login.ClickLogout(ctx)
}

func (w *World) userIsLoggedOut(ctx context.Context) error {
	ok, err := w.login.IsLoggedOut(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.CodeValidation, "expected sign-in button and no My Account menu after logout")
	}
	return nil
}

func (w *World) emailDetailsVerified(ctx context.Context) error {
	if err := w.login.NavigateToMyProfile(ctx); err != nil {
		return err
	}
	got, err := w.login.ProfileEmail(ctx)
	if err != nil {
		return err
	}
	return expectEqual("email", got, w.deps.Data.ProfileDetails.RegisteredEmail)
}
