package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

// Browser wraps a session with logged navigation, waits and the tab registry.
// One Browser is created per scenario.
type Browser struct {
	*TabRegistry

	sess         session.Session
	elements     *Elements
	waitTimeout  time.Duration
	pollInterval time.Duration
}

// Option configures a Browser.
type Option func(*Browser)

// WithWaitTimeout sets the default timeout for waits that do not pass one.
func WithWaitTimeout(d time.Duration) Option {
	return func(b *Browser) { b.waitTimeout = d }
}

// WithPollInterval sets how often waits re-check their condition.
func WithPollInterval(d time.Duration) Option {
	return func(b *Browser) { b.pollInterval = d }
}

func New(sess session.Session, opts ...Option) *Browser {
	b := &Browser{
		TabRegistry:  NewTabRegistry(sess),
		sess:         sess,
		waitTimeout:  10 * time.Second,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.elements = NewElements(sess, b.pollInterval)
	return b
}

// Session returns the underlying driver session.
func (b *Browser) Session() session.Session { return b.sess }

// Elements returns the element helper bound to the same session.
func (b *Browser) Elements() *Elements { return b.elements }

// BrowseURL navigates the current window to url.
func (b *Browser) BrowseURL(ctx context.Context, url, description string) error {
	slog.Info("browsing url", "url", url, "description", description)
	return b.sess.Navigate(ctx, url)
}

func (b *Browser) URL(ctx context.Context) (string, error) {
	u, err := b.sess.URL(ctx)
	slog.Debug("current url", "url", u)
	return u, err
}

func (b *Browser) Title(ctx context.Context) (string, error) {
	title, err := b.sess.Title(ctx)
	slog.Debug("current title", "title", title)
	return title, err
}

func (b *Browser) Back(ctx context.Context) error {
	slog.Info("navigating back")
	return b.sess.Back(ctx)
}

func (b *Browser) Forward(ctx context.Context) error {
	slog.Info("navigating forward")
	return b.sess.Forward(ctx)
}

func (b *Browser) Refresh(ctx context.Context) error {
	slog.Info("refreshing page")
	return b.sess.Refresh(ctx)
}

// CloseWindow closes the current window.
func (b *Browser) CloseWindow(ctx context.Context) error {
	slog.Info("closing current window")
	return b.sess.CloseWindow(ctx)
}

// CreateWindow opens an empty tab or window without switching to it.
func (b *Browser) CreateWindow(ctx context.Context, kind session.WindowKind) (string, error) {
	slog.Info("creating window", "kind", kind)
	return b.sess.CreateWindow(ctx, kind)
}

func (b *Browser) MaximizeWindow(ctx context.Context) error {
	slog.Info("maximizing window")
	return b.sess.MaximizeWindow(ctx)
}

func (b *Browser) MinimizeWindow(ctx context.Context) error {
	slog.Info("minimizing window")
	return b.sess.MinimizeWindow(ctx)
}

// Scroll scrolls the page by x, y pixels.
func (b *Browser) Scroll(ctx context.Context, x, y int) error {
	slog.Info("scrolling page", "x", x, "y", y)
	return b.sess.Execute(ctx, session.ScriptScrollBy, []any{x, y}, nil)
}

// Execute runs a script body in the current window.
func (b *Browser) Execute(ctx context.Context, script string, args []any, result any) error {
	return b.sess.Execute(ctx, script, args, result)
}

// Wait blocks for d.
func (b *Browser) Wait(ctx context.Context, d time.Duration) error {
	slog.Info("waiting", "duration", d.String())
	return b.sess.Pause(ctx, d)
}

// Pause blocks for d without logging at info level.
func (b *Browser) Pause(ctx context.Context, d time.Duration) error {
	slog.Debug("pausing", "duration", d.String())
	return b.sess.Pause(ctx, d)
}

// WaitUntil polls cond until it holds. A zero timeout uses the browser
// default and a zero interval DefaultPollInterval. On expiry the error
// carries errs.CodeTimeout and timeoutMsg.
func (b *Browser) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration, timeoutMsg, description string, interval time.Duration) error {
	if timeout <= 0 {
		timeout = b.waitTimeout
	}
	if interval <= 0 {
		interval = b.pollInterval
	}
	slog.Info("waiting until condition", "description", description, "timeout", timeout.String())
	return poll(ctx, cond, timeout, interval, timeoutMsg)
}

// WaitForDocumentReady waits for document.readyState to become "complete".
func (b *Browser) WaitForDocumentReady(ctx context.Context, timeout time.Duration) error {
	return b.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		var state string
		if err := b.sess.Execute(ctx, session.ScriptReadyState, nil, &state); err != nil {
			return false, err
		}
		return state == "complete", nil
	}, timeout, "page did not finish loading", "document ready", 0)
}

func (b *Browser) WindowHandle(ctx context.Context) (string, error) {
	return b.sess.WindowHandle(ctx)
}

func (b *Browser) WindowHandles(ctx context.Context) ([]string, error) {
	return b.sess.WindowHandles(ctx)
}

// SwitchToWindow activates a raw window handle, bypassing the registry.
func (b *Browser) SwitchToWindow(ctx context.Context, handle string) error {
	slog.Info("switching window", "handle", handle)
	return b.sess.SwitchToWindow(ctx, handle)
}

// SwitchToFrame enters the iframe at selector; "" returns to the top document.
func (b *Browser) SwitchToFrame(ctx context.Context, selector string) error {
	slog.Info("switching frame", "selector", selector)
	if err := b.sess.SwitchToFrame(ctx, selector); err != nil {
		return errs.Wrap(errs.CodeDriver, "switch to frame", err)
	}
	return nil
}

func (b *Browser) SwitchToParentFrame(ctx context.Context) error {
	slog.Info("switching to parent frame")
	if err := b.sess.SwitchToParentFrame(ctx); err != nil {
		return errs.Wrap(errs.CodeDriver, "switch to parent frame", err)
	}
	return nil
}

func (b *Browser) AcceptAlert(ctx context.Context) error {
	slog.Info("accepting alert")
	return b.sess.AcceptAlert(ctx)
}

func (b *Browser) DismissAlert(ctx context.Context) error {
	slog.Info("dismissing alert")
	return b.sess.DismissAlert(ctx)
}

func (b *Browser) AlertText(ctx context.Context) (string, error) {
	return b.sess.AlertText(ctx)
}

func (b *Browser) SendAlertText(ctx context.Context, text string) error {
	slog.Info("sending text to alert")
	return b.sess.SendAlertText(ctx, text)
}

func (b *Browser) AllCookies(ctx context.Context) ([]session.Cookie, error) {
	return b.sess.Cookies(ctx)
}

func (b *Browser) NamedCookie(ctx context.Context, name string) (session.Cookie, error) {
	return b.sess.Cookie(ctx, name)
}

// AddCookie sets one cookie on the current page's origin.
func (b *Browser) AddCookie(ctx context.Context, name, value string) error {
	slog.Info("adding cookie", "name", name)
	return b.sess.SetCookies(ctx, []session.Cookie{{Name: name, Value: value}})
}

// SetCookies sets name/value pairs on the current page's origin.
func (b *Browser) SetCookies(ctx context.Context, pairs [][2]string) error {
	cookies := make([]session.Cookie, 0, len(pairs))
	for _, p := range pairs {
		cookies = append(cookies, session.Cookie{Name: p[0], Value: p[1]})
	}
	slog.Info("setting cookies", "count", len(cookies))
	return b.sess.SetCookies(ctx, cookies)
}

func (b *Browser) DeleteCookie(ctx context.Context, name string) error {
	slog.Info("deleting cookie", "name", name)
	return b.sess.DeleteCookie(ctx, name)
}

func (b *Browser) DeleteAllCookies(ctx context.Context) error {
	slog.Info("deleting all cookies")
	return b.sess.DeleteAllCookies(ctx)
}

// HoldDownKey presses key until ReleaseKey is called.
func (b *Browser) HoldDownKey(ctx context.Context, key string) error {
	return b.sess.KeyDown(ctx, key)
}

func (b *Browser) ReleaseKey(ctx context.Context, key string) error {
	return b.sess.KeyUp(ctx, key)
}

// TakeScreenshot writes a PNG of the current window to path and returns the bytes.
func (b *Browser) TakeScreenshot(ctx context.Context, path string) ([]byte, error) {
	png, err := b.sess.Screenshot(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.CodeDriver, "take screenshot", err)
	}
	if path != "" {
		if err := writeFile(path, png); err != nil {
			return nil, err
		}
		slog.Info("screenshot saved", "path", path)
	}
	return png, nil
}

// SavePDF prints the current window to path, which must end in .pdf.
func (b *Browser) SavePDF(ctx context.Context, path string, opts session.PDFOptions) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, errs.New(errs.CodeValidation, fmt.Sprintf("pdf path %q must end with .pdf", path))
	}
	pdf, err := b.sess.PrintPDF(ctx, opts)
	if err != nil {
		return nil, errs.Wrap(errs.CodeDriver, "print pdf", err)
	}
	if err := writeFile(path, pdf); err != nil {
		return nil, err
	}
	slog.Info("pdf saved", "path", path, "bytes", len(pdf))
	return pdf, nil
}

// TakeElementScreenshot writes a PNG of the element at selector to path.
func (b *Browser) TakeElementScreenshot(ctx context.Context, selector, path string, scroll bool) ([]byte, error) {
	png, err := b.sess.ElementScreenshot(ctx, selector, scroll)
	if err != nil {
		return nil, errs.Wrap(errs.CodeDriver, "take element screenshot", err)
	}
	if path != "" {
		if err := writeFile(path, png); err != nil {
			return nil, err
		}
		slog.Info("element screenshot saved", "path", path, "selector", selector)
	}
	return png, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}
