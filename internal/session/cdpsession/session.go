// Package cdpsession implements session.Session over the Chrome DevTools
// Protocol using chromedp. Window handles are CDP target IDs.
package cdpsession

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

type tab struct {
	id     target.ID
	ctx    context.Context
	cancel context.CancelFunc
}

// Session drives an already running Chromium through its remote debugging endpoint.
type Session struct {
	cdpURL string

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	first         target.ID

	mu      sync.Mutex
	order   []target.ID
	tabs    map[target.ID]*tab
	active  target.ID
	dialogs map[target.ID]string
	prompt  string
	// frames is the XPath chain from the top document to the current frame, per tab.
	frames map[target.ID][]string
}

var _ session.Session = (*Session)(nil)

// Connect attaches to the browser at cdpURL (http://host:port) and opens
// the default window.
func Connect(ctx context.Context, cdpURL string) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx, page.Enable())
	stop()
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("connect to CDP %s: %w", cdpURL, err)
	}

	id := chromedp.FromContext(browserCtx).Target.TargetID
	s := &Session{
		cdpURL:        cdpURL,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		first:         id,
		order:         []target.ID{id},
		tabs:          map[target.ID]*tab{id: {id: id, ctx: browserCtx}},
		active:        id,
		dialogs:       make(map[target.ID]string),
		frames:        make(map[target.ID][]string),
	}
	s.listen(browserCtx, id)
	slog.Info("cdp session connected", "cdp_url", cdpURL, "target_id", id)
	return s, nil
}

// runIn runs actions against tabCtx bounded by the deadline and cancellation of ctx.
func runIn(ctx, tabCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		runCtx, cancelDL = context.WithDeadline(runCtx, dl)
		defer cancelDL()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) activeTab() (*tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == "" {
		return nil, session.ErrNoSuchWindow
	}
	t, ok := s.tabs[s.active]
	if !ok {
		return nil, fmt.Errorf("target %s: %w", s.active, session.ErrNoSuchWindow)
	}
	return t, nil
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	t, err := s.activeTab()
	if err != nil {
		return err
	}
	return runIn(ctx, t.ctx, actions...)
}

// browserDo runs fn with a context whose executor is the browser connection.
func (s *Session) browserDo(ctx context.Context, fn func(ctx context.Context) error) error {
	return runIn(ctx, s.browserCtx, chromedp.ActionFunc(func(c context.Context) error {
		return fn(cdp.WithExecutor(c, chromedp.FromContext(c).Browser))
	}))
}

func (s *Session) listen(tabCtx context.Context, id target.ID) {
	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch e := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			s.mu.Lock()
			s.dialogs[id] = e.Message
			s.mu.Unlock()
			slog.Debug("dialog opened", "target_id", id, "type", e.Type)
		case *page.EventJavascriptDialogClosed:
			s.mu.Lock()
			delete(s.dialogs, id)
			s.mu.Unlock()
		}
	})
}

func (s *Session) attach(ctx context.Context, id target.ID) (*tab, error) {
	s.mu.Lock()
	if t, ok := s.tabs[id]; ok {
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(id))
	s.listen(tabCtx, id)
	if err := runIn(ctx, tabCtx, page.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("attach target %s: %w", id, err)
	}

	t := &tab{id: id, ctx: tabCtx, cancel: cancel}
	s.mu.Lock()
	s.tabs[id] = t
	known := false
	for _, o := range s.order {
		if o == id {
			known = true
			break
		}
	}
	if !known {
		s.order = append(s.order, id)
	}
	s.mu.Unlock()
	return t, nil
}

func (s *Session) createTarget(ctx context.Context, newWindow bool) (target.ID, error) {
	var id target.ID
	err := s.browserDo(ctx, func(c context.Context) error {
		var err error
		id, err = target.CreateTarget("about:blank").WithNewWindow(newWindow).Do(c)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create target: %w", err)
	}
	if _, err := s.attach(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Session) WindowHandle(context.Context) (string, error) {
	t, err := s.activeTab()
	if err != nil {
		return "", err
	}
	return string(t.id), nil
}

// WindowHandles lists page targets: windows this session opened come first in
// creation order, pages opened by the site follow.
func (s *Session) WindowHandles(ctx context.Context) ([]string, error) {
	var infos []*target.Info
	err := runIn(ctx, s.browserCtx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		infos, err = chromedp.Targets(c)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	live := make(map[target.ID]bool, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			live[info.TargetID] = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	handles := make([]string, 0, len(live))
	seen := make(map[target.ID]bool, len(live))
	for _, id := range s.order {
		if live[id] {
			handles = append(handles, string(id))
			seen[id] = true
		}
	}
	for _, info := range infos {
		if live[info.TargetID] && !seen[info.TargetID] {
			handles = append(handles, string(info.TargetID))
			s.order = append(s.order, info.TargetID)
			seen[info.TargetID] = true
		}
	}
	return handles, nil
}

func (s *Session) NewWindow(ctx context.Context, url string) error {
	id, err := s.createTarget(ctx, true)
	if err != nil {
		return err
	}
	if err := s.SwitchToWindow(ctx, string(id)); err != nil {
		return err
	}
	return s.Navigate(ctx, url)
}

func (s *Session) CreateWindow(ctx context.Context, kind session.WindowKind) (string, error) {
	id, err := s.createTarget(ctx, kind == session.WindowWindow)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

func (s *Session) SwitchToWindow(ctx context.Context, handle string) error {
	id := target.ID(handle)
	if _, err := s.attach(ctx, id); err != nil {
		return fmt.Errorf("switch to %s: %w: %v", handle, session.ErrNoSuchWindow, err)
	}
	err := s.browserDo(ctx, func(c context.Context) error {
		return target.ActivateTarget(id).Do(c)
	})
	if err != nil {
		return fmt.Errorf("activate target %s: %w", handle, err)
	}
	s.mu.Lock()
	s.active = id
	delete(s.frames, id)
	s.mu.Unlock()
	return nil
}

func (s *Session) CloseWindow(ctx context.Context) error {
	t, err := s.activeTab()
	if err != nil {
		return err
	}
	err = s.browserDo(ctx, func(c context.Context) error {
		return target.CloseTarget(t.id).Do(c)
	})
	if err != nil {
		return fmt.Errorf("close target %s: %w", t.id, err)
	}

	s.mu.Lock()
	delete(s.tabs, t.id)
	delete(s.dialogs, t.id)
	delete(s.frames, t.id)
	for i, id := range s.order {
		if id == t.id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.active = ""
	s.mu.Unlock()

	// The first tab owns the browser connection; its context lives until Close.
	if t.cancel != nil && t.id != s.first {
		t.cancel()
	}
	return nil
}

func (s *Session) setWindowState(ctx context.Context, state browser.WindowState) error {
	t, err := s.activeTab()
	if err != nil {
		return err
	}
	return s.browserDo(ctx, func(c context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().WithTargetID(t.id).Do(c)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{WindowState: state}).Do(c)
	})
}

func (s *Session) MaximizeWindow(ctx context.Context) error {
	return s.setWindowState(ctx, browser.WindowStateMaximized)
}

func (s *Session) MinimizeWindow(ctx context.Context) error {
	return s.setWindowState(ctx, browser.WindowStateMinimized)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return err
	}
	s.resetFrames()
	return nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, chromedp.Location(&u))
	return u, err
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

func (s *Session) Back(ctx context.Context) error {
	return s.run(ctx, chromedp.NavigateBack())
}

func (s *Session) Forward(ctx context.Context) error {
	return s.run(ctx, chromedp.NavigateForward())
}

func (s *Session) Refresh(ctx context.Context) error {
	return s.run(ctx, chromedp.Reload())
}

// Execute evaluates script as a function body inside the current frame.
// The return value crosses the protocol as a JSON string so null and
// undefined decode cleanly.
func (s *Session) Execute(ctx context.Context, script string, args []any, result any) error {
	var out string
	if err := s.evaluate(ctx, s.frameChain(), script, args, &out); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal([]byte(out), result)
}

func (s *Session) evaluate(ctx context.Context, chain []string, script string, args []any, out *string) error {
	if args == nil {
		args = []any{}
	}
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal script args: %w", err)
	}
	rawChain, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("marshal frame chain: %w", err)
	}
	expr := fmt.Sprintf(frameScope, rawChain, script, rawArgs)
	if err := s.run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	return session.Sleep(ctx, d)
}

func (s *Session) PrintPDF(ctx context.Context, opts session.PDFOptions) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		buf, _, err = printParams(opts).Do(c)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return buf, nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Close detaches from every target and drops the browser connection.
func (s *Session) Close() error {
	s.mu.Lock()
	tabs := make([]*tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		tabs = append(tabs, t)
	}
	s.tabs = make(map[target.ID]*tab)
	s.active = ""
	s.mu.Unlock()

	for _, t := range tabs {
		if t.cancel != nil {
			t.cancel()
		}
	}
	s.browserCancel()
	s.allocCancel()
	slog.Info("cdp session closed", "cdp_url", s.cdpURL)
	return nil
}
