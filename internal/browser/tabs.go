package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

// Tab is a named browser window opened through the registry.
type Tab struct {
	Name     string
	EntryURL string
	Handle   string
}

// Strategy is how a tab gets its window.
type Strategy int

const (
	// StrategyReuseDefault navigates the default window.
	StrategyReuseDefault Strategy = iota
	// StrategyNewWindow opens the URL with the driver's new-window primitive.
	StrategyNewWindow
	// StrategyCreateAndNavigate creates an empty tab, switches to it and navigates.
	StrategyCreateAndNavigate
)

func (s Strategy) String() string {
	switch s {
	case StrategyReuseDefault:
		return "reuse-default"
	case StrategyNewWindow:
		return "new-window"
	case StrategyCreateAndNavigate:
		return "create-and-navigate"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// StrategyFor picks the opening strategy from the number of registered tabs.
func StrategyFor(registered int) Strategy {
	switch {
	case registered <= 0:
		return StrategyReuseDefault
	case registered == 1:
		return StrategyNewWindow
	default:
		return StrategyCreateAndNavigate
	}
}

// TabDriver is the part of a session the registry needs.
type TabDriver interface {
	session.Windows
	session.Navigator
}

// TabRegistry maps tab names to window handles for one scenario.
type TabRegistry struct {
	drv TabDriver

	mu    sync.Mutex
	tabs  map[string]Tab
	order []string
}

func NewTabRegistry(drv TabDriver) *TabRegistry {
	return &TabRegistry{drv: drv, tabs: make(map[string]Tab)}
}

func duplicateTab(name string) error {
	return errs.New(errs.CodeDuplicateTab, fmt.Sprintf("tab %q is already open", name))
}

func unknownTab(name string) error {
	return errs.New(errs.CodeUnknownTab, fmt.Sprintf("tab %q is not registered", name))
}

// OpenTab opens entryURL under name. The registry is unchanged on error.
func (r *TabRegistry) OpenTab(ctx context.Context, name, entryURL string) (Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tabs[name]; ok {
		return Tab{}, duplicateTab(name)
	}

	strategy := StrategyFor(len(r.tabs))
	slog.Info("opening tab", "name", name, "url", entryURL, "strategy", strategy.String())

	handle, err := r.openLocked(ctx, strategy, entryURL)
	if err != nil {
		return Tab{}, errs.Wrap(errs.CodeDriver, fmt.Sprintf("open tab %q", name), err)
	}

	tab := Tab{Name: name, EntryURL: entryURL, Handle: handle}
	r.tabs[name] = tab
	r.order = append(r.order, name)
	slog.Debug("tab registered", "name", name, "handle", handle, "tabs", len(r.tabs))
	return tab, nil
}

func (r *TabRegistry) openLocked(ctx context.Context, strategy Strategy, entryURL string) (string, error) {
	switch strategy {
	case StrategyReuseDefault:
		if err := r.drv.Navigate(ctx, entryURL); err != nil {
			return "", err
		}
		return r.drv.WindowHandle(ctx)
	case StrategyNewWindow:
		if err := r.drv.NewWindow(ctx, entryURL); err != nil {
			return "", err
		}
		return r.drv.WindowHandle(ctx)
	case StrategyCreateAndNavigate:
		handle, err := r.drv.CreateWindow(ctx, session.WindowTab)
		if err != nil {
			return "", err
		}
		if err := r.drv.SwitchToWindow(ctx, handle); err != nil {
			return "", err
		}
		if err := r.drv.Navigate(ctx, entryURL); err != nil {
			return "", err
		}
		return handle, nil
	default:
		return "", fmt.Errorf("unknown strategy %s", strategy)
	}
}

func (r *TabRegistry) lookup(name string) (Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.tabs[name]
	if !ok {
		return Tab{}, unknownTab(name)
	}
	return tab, nil
}

// SwitchToTab activates name's window. Switching to the active tab is a no-op.
func (r *TabRegistry) SwitchToTab(ctx context.Context, name string) error {
	tab, err := r.lookup(name)
	if err != nil {
		return err
	}
	if current, err := r.drv.WindowHandle(ctx); err == nil && current == tab.Handle {
		slog.Debug("tab already active", "name", name)
		return nil
	}
	slog.Info("switching tab", "name", name, "handle", tab.Handle)
	if err := r.drv.SwitchToWindow(ctx, tab.Handle); err != nil {
		return errs.Wrap(errs.CodeDriver, fmt.Sprintf("switch to tab %q", name), err)
	}
	return nil
}

// GetTab returns the record for name without touching the browser.
func (r *TabRegistry) GetTab(name string) (Tab, error) {
	return r.lookup(name)
}

// SwitchAndGetTab switches to name and returns its record.
func (r *TabRegistry) SwitchAndGetTab(ctx context.Context, name string) (Tab, error) {
	if err := r.SwitchToTab(ctx, name); err != nil {
		return Tab{}, err
	}
	return r.lookup(name)
}

// focus switches to name unless it is empty, in which case the current window is used.
func (r *TabRegistry) focus(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	return r.SwitchToTab(ctx, name)
}

// RefreshTab reloads name, or the current window when name is empty.
func (r *TabRegistry) RefreshTab(ctx context.Context, name string) error {
	if err := r.focus(ctx, name); err != nil {
		return err
	}
	return r.drv.Refresh(ctx)
}

// TabURL returns the URL of name, or of the current window when name is empty.
func (r *TabRegistry) TabURL(ctx context.Context, name string) (string, error) {
	if err := r.focus(ctx, name); err != nil {
		return "", err
	}
	return r.drv.URL(ctx)
}

// TabTitle returns the title of name, or of the current window when name is empty.
func (r *TabRegistry) TabTitle(ctx context.Context, name string) (string, error) {
	if err := r.focus(ctx, name); err != nil {
		return "", err
	}
	return r.drv.Title(ctx)
}

// Tabs returns the registered tabs in the order they were opened.
func (r *TabRegistry) Tabs() []Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tab, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tabs[name])
	}
	return out
}

// TabCount returns the number of registered tabs.
func (r *TabRegistry) TabCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// Reset closes every window except the first, leaves the first on a blank
// page and empties the registry. The registry is emptied even when the
// driver fails part way.
func (r *TabRegistry) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		r.tabs = make(map[string]Tab)
		r.order = nil
	}()

	handles, err := r.drv.WindowHandles(ctx)
	if err != nil {
		return errs.Wrap(errs.CodeDriver, "reset: list windows", err)
	}
	if len(handles) == 0 {
		return errs.New(errs.CodeDriver, "reset: no open windows")
	}

	slog.Info("resetting browser", "windows", len(handles), "tabs", len(r.tabs))
	for _, h := range handles[1:] {
		if err := r.drv.SwitchToWindow(ctx, h); err != nil {
			return errs.Wrap(errs.CodeDriver, "reset: switch to "+h, err)
		}
		if err := r.drv.CloseWindow(ctx); err != nil {
			return errs.Wrap(errs.CodeDriver, "reset: close "+h, err)
		}
	}
	if err := r.drv.SwitchToWindow(ctx, handles[0]); err != nil {
		return errs.Wrap(errs.CodeDriver, "reset: switch to first window", err)
	}
	if err := r.drv.Navigate(ctx, session.BlankURL); err != nil {
		return errs.Wrap(errs.CodeDriver, "reset: blank first window", err)
	}
	return nil
}
