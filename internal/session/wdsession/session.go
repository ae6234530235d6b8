// Package wdsession implements session.Session over a W3C WebDriver
// endpoint (Selenium server, chromedriver, geckodriver) using tebeka/selenium.
package wdsession

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"github.com/dgnsrekt/storefront_e2e/internal/apirequest"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

// Config describes the remote WebDriver session to open.
type Config struct {
	URL         string
	BrowserName string
	ChromeArgs  []string
	DownloadDir string
	// ImplicitWait is the driver-side element lookup wait. Zero disables it.
	ImplicitWait time.Duration
}

// Session wraps a remote WebDriver.
type Session struct {
	wd  selenium.WebDriver
	cfg Config
	api *apirequest.Client
}

var _ session.Session = (*Session)(nil)

// Open starts a new remote session.
func Open(cfg Config) (*Session, error) {
	if cfg.BrowserName == "" {
		cfg.BrowserName = "chrome"
	}
	caps := selenium.Capabilities{"browserName": cfg.BrowserName}
	if cfg.BrowserName == "chrome" {
		chromeCaps := chrome.Capabilities{Args: cfg.ChromeArgs, W3C: true}
		if cfg.DownloadDir != "" {
			chromeCaps.Prefs = map[string]interface{}{
				"download.default_directory":   cfg.DownloadDir,
				"download.prompt_for_download": false,
			}
		}
		caps.AddChrome(chromeCaps)
	}

	wd, err := selenium.NewRemote(caps, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open webdriver session at %s: %w", cfg.URL, err)
	}
	if err := wd.SetImplicitWaitTimeout(cfg.ImplicitWait); err != nil {
		_ = wd.Quit()
		return nil, fmt.Errorf("set implicit wait: %w", err)
	}
	slog.Info("webdriver session opened", "url", cfg.URL, "browser", cfg.BrowserName)
	return &Session{wd: wd, cfg: cfg, api: apirequest.New(&http.Client{Timeout: 60 * time.Second})}, nil
}

func (s *Session) WindowHandle(context.Context) (string, error) {
	h, err := s.wd.CurrentWindowHandle()
	if err != nil {
		return "", fmt.Errorf("current window handle: %w: %v", session.ErrNoSuchWindow, err)
	}
	return h, nil
}

func (s *Session) WindowHandles(context.Context) ([]string, error) {
	return s.wd.WindowHandles()
}

// openWindow opens url through window.open and returns the handle that appeared.
func (s *Session) openWindow(url string, kind session.WindowKind) (string, error) {
	before, err := s.wd.WindowHandles()
	if err != nil {
		return "", err
	}
	features := ""
	if kind == session.WindowWindow {
		features = "popup=yes,width=1600,height=900"
	}
	if _, err := s.wd.ExecuteScript(session.ScriptOpenWindow, []interface{}{url, features}); err != nil {
		return "", fmt.Errorf("window.open: %w", err)
	}
	after, err := s.wd.WindowHandles()
	if err != nil {
		return "", err
	}
	known := make(map[string]bool, len(before))
	for _, h := range before {
		known[h] = true
	}
	for _, h := range after {
		if !known[h] {
			return h, nil
		}
	}
	return "", fmt.Errorf("window.open did not create a window (popup blocked?)")
}

func (s *Session) NewWindow(_ context.Context, url string) error {
	h, err := s.openWindow(url, session.WindowWindow)
	if err != nil {
		return err
	}
	return s.wd.SwitchWindow(h)
}

func (s *Session) CreateWindow(_ context.Context, kind session.WindowKind) (string, error) {
	return s.openWindow("about:blank", kind)
}

func (s *Session) SwitchToWindow(_ context.Context, handle string) error {
	if err := s.wd.SwitchWindow(handle); err != nil {
		return fmt.Errorf("switch to %s: %w: %v", handle, session.ErrNoSuchWindow, err)
	}
	return nil
}

func (s *Session) CloseWindow(context.Context) error {
	h, err := s.wd.CurrentWindowHandle()
	if err != nil {
		return err
	}
	return s.wd.CloseWindow(h)
}

func (s *Session) MaximizeWindow(context.Context) error {
	return s.wd.MaximizeWindow("")
}

func (s *Session) MinimizeWindow(context.Context) error {
	return s.wd.MinimizeWindow("")
}

func (s *Session) Navigate(_ context.Context, url string) error {
	return s.wd.Get(url)
}

func (s *Session) URL(context.Context) (string, error) {
	return s.wd.CurrentURL()
}

func (s *Session) Title(context.Context) (string, error) {
	return s.wd.Title()
}

func (s *Session) Back(context.Context) error {
	return s.wd.Back()
}

func (s *Session) Forward(context.Context) error {
	return s.wd.Forward()
}

func (s *Session) Refresh(context.Context) error {
	return s.wd.Refresh()
}

func (s *Session) Execute(_ context.Context, script string, args []any, result any) error {
	if args == nil {
		args = []any{}
	}
	v, err := s.wd.ExecuteScript(script, args)
	if err != nil {
		return fmt.Errorf("execute script: %w", err)
	}
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

func (s *Session) AcceptAlert(context.Context) error {
	return alertErr(s.wd.AcceptAlert())
}

func (s *Session) DismissAlert(context.Context) error {
	return alertErr(s.wd.DismissAlert())
}

func (s *Session) AlertText(context.Context) (string, error) {
	text, err := s.wd.AlertText()
	return text, alertErr(err)
}

func (s *Session) SendAlertText(_ context.Context, text string) error {
	return alertErr(s.wd.SetAlertText(text))
}

func alertErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such alert") {
		return fmt.Errorf("%w: %v", session.ErrNoAlert, err)
	}
	return err
}

func (s *Session) Cookies(context.Context) ([]session.Cookie, error) {
	raw, err := s.wd.GetCookies()
	if err != nil {
		return nil, err
	}
	out := make([]session.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, fromSelenium(c))
	}
	return out, nil
}

func (s *Session) Cookie(_ context.Context, name string) (session.Cookie, error) {
	c, err := s.wd.GetCookie(name)
	if err != nil {
		return session.Cookie{}, fmt.Errorf("cookie %q: %w: %v", name, session.ErrNoSuchCookie, err)
	}
	return fromSelenium(c), nil
}

func fromSelenium(c selenium.Cookie) session.Cookie {
	return session.Cookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: c.Domain,
		Path:   c.Path,
		Secure: c.Secure,
		Expiry: int64(c.Expiry),
	}
}

func (s *Session) SetCookies(_ context.Context, cookies []session.Cookie) error {
	for _, c := range cookies {
		ck := &selenium.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		}
		if c.Expiry > 0 {
			ck.Expiry = uint(c.Expiry)
		}
		if err := s.wd.AddCookie(ck); err != nil {
			return fmt.Errorf("add cookie %q: %w", c.Name, err)
		}
	}
	return nil
}

func (s *Session) DeleteCookie(_ context.Context, name string) error {
	return s.wd.DeleteCookie(name)
}

func (s *Session) DeleteAllCookies(context.Context) error {
	return s.wd.DeleteAllCookies()
}

func (s *Session) KeyDown(_ context.Context, key string) error {
	return s.wd.KeyDown(key)
}

func (s *Session) KeyUp(_ context.Context, key string) error {
	return s.wd.KeyUp(key)
}

func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	return session.Sleep(ctx, d)
}

func (s *Session) Screenshot(context.Context) ([]byte, error) {
	return s.wd.Screenshot()
}

func (s *Session) Close() error {
	slog.Info("webdriver session closing", "url", s.cfg.URL)
	return s.wd.Quit()
}
