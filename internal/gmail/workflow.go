// Package gmail retrieves a one-time password from the newest message in a
// Gmail inbox: refresh-token exchange, message listing, message fetch.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/apirequest"
	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/scenario"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
	"golang.org/x/oauth2"
)

// DefaultMailDelay is how long MailList waits for the message to arrive.
const DefaultMailDelay = 8 * time.Second

// Stage is the furthest step a Workflow has completed.
type Stage int

const (
	StageNone Stage = iota
	StageTokenAcquired
	StageMailListed
	StageEmailFetched
)

func (s Stage) String() string {
	switch s {
	case StageTokenAcquired:
		return "TokenAcquired"
	case StageMailListed:
		return "MailListed"
	case StageEmailFetched:
		return "EmailFetched"
	default:
		return "None"
	}
}

// Pauser blocks for a duration. *browser.Browser satisfies it.
type Pauser interface {
	Pause(ctx context.Context, d time.Duration) error
}

type sleeper struct{}

func (sleeper) Pause(ctx context.Context, d time.Duration) error { return session.Sleep(ctx, d) }

// Option configures a Workflow.
type Option func(*Workflow)

func WithHTTPClient(c *http.Client) Option {
	return func(w *Workflow) { w.httpClient = c }
}

func WithPauser(p Pauser) Option {
	return func(w *Workflow) { w.pauser = p }
}

// WithDelay overrides DefaultMailDelay. Negative values are ignored.
func WithDelay(d time.Duration) Option {
	return func(w *Workflow) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// Workflow holds the state of one OTP retrieval. Create one per scenario.
type Workflow struct {
	creds      Credentials
	values     *scenario.Context
	httpClient *http.Client
	api        *apirequest.Client
	pauser     Pauser
	delay      time.Duration

	token  string
	mailID string
	otp    string
	stage  Stage
}

func New(creds Credentials, values *scenario.Context, opts ...Option) *Workflow {
	w := &Workflow{
		creds:  creds,
		values: values,
		pauser: sleeper{},
		delay:  DefaultMailDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.api = apirequest.New(w.httpClient)
	return w
}

func (w *Workflow) State() Stage { return w.stage }

// OTP returns the code extracted by LatestEmail, or "".
func (w *Workflow) OTP() string { return w.otp }

// AccessToken exchanges the refresh token for a bearer token. Any reply
// other than 200 OK is an AUTH error.
func (w *Workflow) AccessToken(ctx context.Context) (string, error) {
	conf := &oauth2.Config{
		ClientID:     w.creds.ClientID,
		ClientSecret: w.creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  w.creds.TokenURI,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, tokenClient(w.httpClient))

	slog.Info("requesting access token", "token_uri", w.creds.TokenURI)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: w.creds.RefreshToken}).Token()
	if err != nil {
		var statusErr *tokenStatusError
		if errors.As(err, &statusErr) {
			return "", errs.New(errs.CodeAuth, fmt.Sprintf("access token is not generated: status=%d body=%s", statusErr.Status, statusErr.Body))
		}
		return "", errs.Wrap(errs.CodeAuth, "access token is not generated", err)
	}
	w.token = tok.AccessToken
	w.mailID = ""
	w.otp = ""
	w.stage = StageTokenAcquired
	slog.Debug("access token acquired", "expiry", tok.Expiry)
	return w.token, nil
}

func (w *Workflow) bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + w.token}
}

// MailList waits for the configured delay and records the id of the newest
// message.
func (w *Workflow) MailList(ctx context.Context) (string, error) {
	if w.stage < StageTokenAcquired {
		return "", errs.New(errs.CodeValidation, "mail list requested before an access token was acquired")
	}
	if err := w.pauser.Pause(ctx, w.delay); err != nil {
		return "", err
	}

	resp, err := w.api.Get(ctx, w.creds.MailListURL, w.bearer())
	if err != nil {
		return "", errs.Wrap(errs.CodeListUnavailable, "list is not displayed", err)
	}
	if resp.Status != http.StatusOK {
		return "", errs.New(errs.CodeListUnavailable, fmt.Sprintf("list is not displayed: status=%d", resp.Status))
	}
	id := resp.Get("messages.0.id").String()
	if id == "" {
		return "", errs.New(errs.CodeListUnavailable, "list is not displayed: inbox is empty")
	}
	w.mailID = id
	w.stage = StageMailListed
	slog.Info("latest message listed", "id", id)
	return id, nil
}

// LatestEmail fetches the listed message and stores its OTP in the
// scenario context under scenario.KeyOTP.
func (w *Workflow) LatestEmail(ctx context.Context) (string, error) {
	if w.stage < StageMailListed {
		return "", errs.New(errs.CodeValidation, "email requested before the mail list was retrieved")
	}

	resp, err := w.api.Get(ctx, w.creds.messageURL(w.mailID), w.bearer())
	if err != nil {
		return "", errs.Wrap(errs.CodeFetch, "email is not retrieved", err)
	}
	if resp.Status != http.StatusOK {
		return "", errs.New(errs.CodeFetch, fmt.Sprintf("email is not retrieved: status=%d", resp.Status))
	}
	otp, err := ExtractOTP(resp.Get("snippet").String())
	if err != nil {
		return "", err
	}
	w.otp = otp
	w.stage = StageEmailFetched
	if w.values != nil {
		w.values.Set(scenario.KeyOTP, otp)
	}
	slog.Debug("otp extracted", "otp", otp)
	return otp, nil
}

// Run executes the three stages in order and stops at the first failure.
func (w *Workflow) Run(ctx context.Context) (string, error) {
	w.stage = StageNone
	if _, err := w.AccessToken(ctx); err != nil {
		return "", err
	}
	if _, err := w.MailList(ctx); err != nil {
		return "", err
	}
	return w.LatestEmail(ctx)
}

var otpPattern = regexp.MustCompile(`(?:^|\D)(\d{6})(?:\D|$)`)

// ExtractOTP returns the first run of exactly six digits in text.
func ExtractOTP(text string) (string, error) {
	m := otpPattern.FindStringSubmatch(text)
	if m == nil {
		return "", errs.New(errs.CodeOTPNotFound, "OTP could not be extracted from email content")
	}
	return m[1], nil
}
