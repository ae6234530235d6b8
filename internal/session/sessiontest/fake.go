// Package sessiontest provides an in-memory session.Session for tests.
package sessiontest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

// PNG is the payload returned by Screenshot and ElementScreenshot.
var PNG = []byte("\x89PNG\r\n\x1a\nfake")

// PDF is the payload returned by PrintPDF.
var PDF = []byte("%PDF-1.7\nfake")

var nthRe = regexp.MustCompile(`^\((.*)\)\[(\d+)\]$`)

// Element is a scripted DOM element.
type Element struct {
	Text      string
	Value     string
	TagName   string
	Attrs     map[string]string
	Displayed bool
	Enabled   bool
	Selected  bool
	// Count is how many nodes the selector matches. Zero means one.
	Count int
	// Options backs the select helpers.
	Options []string
	// OnClick runs after a successful click, with the fake's lock released.
	OnClick func()
	// OnInput runs after SetValue with the new value, lock released.
	OnInput func(value string)
}

// Fake is a deterministic browser session. It starts with one window
// on about:blank and counts every call by method name.
type Fake struct {
	mu       sync.Mutex
	seq      int
	handles  []string
	current  string
	urls     map[string]string
	history  map[string][]string
	titles   map[string]string
	elements map[string]*Element
	calls    map[string]int
	alert    *string
	prompt   string
	cookies  []session.Cookie
	keys     map[string]bool
	paused   time.Duration
	frames   []string
	printed  []session.PDFOptions

	// ExecuteFunc, when set, answers Execute calls.
	ExecuteFunc func(script string, args []any) (any, error)
	// Fail forces the named method to return the error.
	Fail map[string]error
}

func New() *Fake {
	f := &Fake{
		urls:     make(map[string]string),
		history:  make(map[string][]string),
		titles:   make(map[string]string),
		elements: make(map[string]*Element),
		calls:    make(map[string]int),
		keys:     make(map[string]bool),
		Fail:     make(map[string]error),
	}
	h := f.nextHandleLocked()
	f.handles = []string{h}
	f.current = h
	f.urls[h] = "about:blank"
	return f
}

var _ session.Session = (*Fake)(nil)

func (f *Fake) nextHandleLocked() string {
	f.seq++
	return "window-" + strconv.Itoa(f.seq)
}

func (f *Fake) record(name string) error {
	f.calls[name]++
	return f.Fail[name]
}

// Calls returns how many times method name was invoked.
func (f *Fake) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// ResetCalls zeroes every call counter.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

// SetTitle sets the document title served for url.
func (f *Fake) SetTitle(url, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[url] = title
}

// SetElement registers el under selector.
func (f *Fake) SetElement(selector string, el *Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elements[selector] = el
}

// RemoveElement unregisters selector.
func (f *Fake) RemoveElement(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.elements, selector)
}

// Element returns the element registered under selector, creating the
// per-index entry for Nth selectors on first use.
func (f *Fake) Element(selector string) (*Element, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookupLocked(selector)
}

// OpenAlert simulates a page raising a dialog with text.
func (f *Fake) OpenAlert(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alert = &text
}

// Handles returns the open window handles.
func (f *Fake) Handles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.handles...)
}

// Current returns the active handle, empty after CloseWindow.
func (f *Fake) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// URLOf returns the URL loaded in handle.
func (f *Fake) URLOf(handle string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.urls[handle]
}

// Paused returns the total duration passed to Pause.
func (f *Fake) Paused() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// PromptText returns the last text sent to a dialog.
func (f *Fake) PromptText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompt
}

// KeyHeld reports whether key is currently pressed.
func (f *Fake) KeyHeld(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key]
}

// Frames returns the frame selectors entered from the top document, outermost first.
func (f *Fake) Frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

// Printed returns the options of every PrintPDF call.
func (f *Fake) Printed() []session.PDFOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.PDFOptions(nil), f.printed...)
}

type identity struct {
	el *Element
	n  int
}

// identityLocked names the node selector resolves to: the registered element
// plus the match index for Nth selectors.
func (f *Fake) identityLocked(selector string) (identity, bool) {
	if m := nthRe.FindStringSubmatch(selector); m != nil {
		if base, ok := f.elements[m[1]]; ok {
			n, _ := strconv.Atoi(m[2])
			if n < 1 || n > count(base) {
				return identity{}, false
			}
			return identity{el: base, n: n}, true
		}
	}
	el, ok := f.elements[selector]
	if !ok {
		return identity{}, false
	}
	return identity{el: el, n: 1}, true
}

func (f *Fake) lookupLocked(selector string) (*Element, bool) {
	if el, ok := f.elements[selector]; ok {
		return el, true
	}
	m := nthRe.FindStringSubmatch(selector)
	if m == nil {
		return nil, false
	}
	base, ok := f.elements[m[1]]
	if !ok {
		return nil, false
	}
	n, _ := strconv.Atoi(m[2])
	if n < 1 || n > count(base) {
		return nil, false
	}
	el := *base
	el.Count = 1
	el.Attrs = copyAttrs(base.Attrs)
	f.elements[selector] = &el
	return &el, true
}

func count(el *Element) int {
	if el.Count == 0 {
		return 1
	}
	return el.Count
}

func copyAttrs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *Fake) activeLocked() (string, error) {
	if f.current == "" {
		return "", session.ErrNoSuchWindow
	}
	return f.current, nil
}

func (f *Fake) WindowHandle(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("WindowHandle"); err != nil {
		return "", err
	}
	return f.activeLocked()
}

func (f *Fake) WindowHandles(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("WindowHandles"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.handles...), nil
}

func (f *Fake) NewWindow(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("NewWindow"); err != nil {
		return err
	}
	h := f.nextHandleLocked()
	f.handles = append(f.handles, h)
	f.urls[h] = url
	f.current = h
	return nil
}

func (f *Fake) CreateWindow(_ context.Context, kind session.WindowKind) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateWindow"); err != nil {
		return "", err
	}
	if kind != session.WindowTab && kind != session.WindowWindow {
		return "", fmt.Errorf("unsupported window kind %q", kind)
	}
	h := f.nextHandleLocked()
	f.handles = append(f.handles, h)
	f.urls[h] = "about:blank"
	return h, nil
}

func (f *Fake) SwitchToWindow(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SwitchToWindow"); err != nil {
		return err
	}
	if _, ok := f.urls[handle]; !ok {
		return fmt.Errorf("switch to %q: %w", handle, session.ErrNoSuchWindow)
	}
	f.current = handle
	f.frames = nil
	return nil
}

func (f *Fake) CloseWindow(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CloseWindow"); err != nil {
		return err
	}
	h, err := f.activeLocked()
	if err != nil {
		return err
	}
	for i, cand := range f.handles {
		if cand == h {
			f.handles = append(f.handles[:i], f.handles[i+1:]...)
			break
		}
	}
	delete(f.urls, h)
	delete(f.history, h)
	f.current = ""
	return nil
}

func (f *Fake) MaximizeWindow(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("MaximizeWindow")
}

func (f *Fake) MinimizeWindow(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("MinimizeWindow")
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Navigate"); err != nil {
		return err
	}
	h, err := f.activeLocked()
	if err != nil {
		return err
	}
	f.history[h] = append(f.history[h], f.urls[h])
	f.urls[h] = url
	f.frames = nil
	return nil
}

func (f *Fake) URL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("URL"); err != nil {
		return "", err
	}
	h, err := f.activeLocked()
	if err != nil {
		return "", err
	}
	return f.urls[h], nil
}

func (f *Fake) Title(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Title"); err != nil {
		return "", err
	}
	h, err := f.activeLocked()
	if err != nil {
		return "", err
	}
	return f.titles[f.urls[h]], nil
}

func (f *Fake) Back(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Back"); err != nil {
		return err
	}
	h, err := f.activeLocked()
	if err != nil {
		return err
	}
	if hist := f.history[h]; len(hist) > 0 {
		f.urls[h] = hist[len(hist)-1]
		f.history[h] = hist[:len(hist)-1]
	}
	return nil
}

func (f *Fake) Forward(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("Forward")
}

func (f *Fake) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Refresh"); err != nil {
		return err
	}
	_, err := f.activeLocked()
	return err
}

func (f *Fake) Execute(_ context.Context, script string, args []any, result any) error {
	f.mu.Lock()
	if err := f.record("Execute"); err != nil {
		f.mu.Unlock()
		return err
	}
	fn := f.ExecuteFunc
	var same any
	if script == session.ScriptSameElement && len(args) == 2 {
		a, okA := f.identityLocked(fmt.Sprint(args[0]))
		b, okB := f.identityLocked(fmt.Sprint(args[1]))
		if okA && okB {
			same = a == b
		}
	}
	f.mu.Unlock()

	var out any
	switch {
	case fn != nil:
		v, err := fn(script, args)
		if err != nil {
			return err
		}
		out = v
	case script == session.ScriptReadyState:
		out = "complete"
	case script == session.ScriptScrollBy:
		out = true
	case script == session.ScriptSameElement:
		out = same
	}
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

func (f *Fake) AcceptAlert(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AcceptAlert"); err != nil {
		return err
	}
	if f.alert == nil {
		return session.ErrNoAlert
	}
	f.alert = nil
	return nil
}

func (f *Fake) DismissAlert(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DismissAlert"); err != nil {
		return err
	}
	if f.alert == nil {
		return session.ErrNoAlert
	}
	f.alert = nil
	return nil
}

func (f *Fake) AlertText(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AlertText"); err != nil {
		return "", err
	}
	if f.alert == nil {
		return "", session.ErrNoAlert
	}
	return *f.alert, nil
}

func (f *Fake) SendAlertText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SendAlertText"); err != nil {
		return err
	}
	if f.alert == nil {
		return session.ErrNoAlert
	}
	f.prompt = text
	return nil
}

func (f *Fake) Cookies(context.Context) ([]session.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Cookies"); err != nil {
		return nil, err
	}
	return append([]session.Cookie(nil), f.cookies...), nil
}

func (f *Fake) Cookie(_ context.Context, name string) (session.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Cookie"); err != nil {
		return session.Cookie{}, err
	}
	for _, c := range f.cookies {
		if c.Name == name {
			return c, nil
		}
	}
	return session.Cookie{}, fmt.Errorf("cookie %q: %w", name, session.ErrNoSuchCookie)
}

func (f *Fake) SetCookies(_ context.Context, cookies []session.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetCookies"); err != nil {
		return err
	}
	for _, c := range cookies {
		f.deleteCookieLocked(c.Name)
		f.cookies = append(f.cookies, c)
	}
	return nil
}

func (f *Fake) DeleteCookie(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteCookie"); err != nil {
		return err
	}
	f.deleteCookieLocked(name)
	return nil
}

func (f *Fake) deleteCookieLocked(name string) {
	kept := f.cookies[:0]
	for _, c := range f.cookies {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	f.cookies = kept
}

func (f *Fake) DeleteAllCookies(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteAllCookies"); err != nil {
		return err
	}
	f.cookies = nil
	return nil
}

func (f *Fake) KeyDown(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("KeyDown"); err != nil {
		return err
	}
	f.keys[key] = true
	return nil
}

func (f *Fake) KeyUp(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("KeyUp"); err != nil {
		return err
	}
	delete(f.keys, key)
	return nil
}

func (f *Fake) elementLocked(method, selector string) (*Element, error) {
	if err := f.record(method); err != nil {
		return nil, err
	}
	el, ok := f.lookupLocked(selector)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", method, selector, session.ErrNoSuchElement)
	}
	return el, nil
}

func (f *Fake) Count(_ context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Count"); err != nil {
		return 0, err
	}
	el, ok := f.lookupLocked(selector)
	if !ok {
		return 0, nil
	}
	return count(el), nil
}

func (f *Fake) click(method, selector string) error {
	f.mu.Lock()
	el, err := f.elementLocked(method, selector)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if !el.Enabled {
		f.mu.Unlock()
		return fmt.Errorf("%s %s: element not interactable", method, selector)
	}
	onClick := el.OnClick
	f.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return nil
}

func (f *Fake) Click(_ context.Context, selector string) error {
	return f.click("Click", selector)
}

func (f *Fake) DoubleClick(_ context.Context, selector string) error {
	return f.click("DoubleClick", selector)
}

func (f *Fake) RightClick(_ context.Context, selector string) error {
	return f.click("RightClick", selector)
}

func (f *Fake) Hover(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.elementLocked("Hover", selector)
	return err
}

func (f *Fake) SetValue(_ context.Context, selector, value string) error {
	f.mu.Lock()
	el, err := f.elementLocked("SetValue", selector)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	el.Value = value
	onInput := el.OnInput
	f.mu.Unlock()
	if onInput != nil {
		onInput(value)
	}
	return nil
}

func (f *Fake) AddValue(_ context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("AddValue", selector)
	if err != nil {
		return err
	}
	el.Value += value
	return nil
}

func (f *Fake) Clear(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("Clear", selector)
	if err != nil {
		return err
	}
	el.Value = ""
	return nil
}

func (f *Fake) Text(_ context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("Text", selector)
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

func (f *Fake) Attribute(_ context.Context, selector, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("Attribute", selector)
	if err != nil {
		return "", err
	}
	return el.Attrs[name], nil
}

func (f *Fake) Value(_ context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("Value", selector)
	if err != nil {
		return "", err
	}
	return el.Value, nil
}

func (f *Fake) TagName(_ context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("TagName", selector)
	if err != nil {
		return "", err
	}
	return el.TagName, nil
}

func (f *Fake) IsDisplayed(_ context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("IsDisplayed", selector)
	if err != nil {
		return false, err
	}
	return el.Displayed, nil
}

func (f *Fake) IsEnabled(_ context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("IsEnabled", selector)
	if err != nil {
		return false, err
	}
	return el.Enabled, nil
}

func (f *Fake) IsSelected(_ context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked("IsSelected", selector)
	if err != nil {
		return false, err
	}
	return el.Selected, nil
}

func (f *Fake) ScrollIntoView(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.elementLocked("ScrollIntoView", selector)
	return err
}

func (f *Fake) selectOption(method, selector string, match func(i int, opt string) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, err := f.elementLocked(method, selector)
	if err != nil {
		return err
	}
	for i, opt := range el.Options {
		if match(i, opt) {
			el.Value = opt
			return nil
		}
	}
	return fmt.Errorf("%s %s: no matching option", method, selector)
}

func (f *Fake) SelectByAttribute(_ context.Context, selector, _, value string) error {
	return f.selectOption("SelectByAttribute", selector, func(_ int, opt string) bool { return opt == value })
}

func (f *Fake) SelectByIndex(_ context.Context, selector string, index int) error {
	return f.selectOption("SelectByIndex", selector, func(i int, _ string) bool { return i == index })
}

func (f *Fake) SelectByVisibleText(_ context.Context, selector, text string) error {
	return f.selectOption("SelectByVisibleText", selector, func(_ int, opt string) bool { return opt == text })
}

func (f *Fake) DragAndDrop(_ context.Context, source, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.elementLocked("DragAndDrop", source); err != nil {
		return err
	}
	if _, ok := f.lookupLocked(target); !ok {
		return fmt.Errorf("DragAndDrop %s: %w", target, session.ErrNoSuchElement)
	}
	return nil
}

func (f *Fake) ElementScreenshot(_ context.Context, selector string, _ bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.elementLocked("ElementScreenshot", selector); err != nil {
		return nil, err
	}
	return append([]byte(nil), PNG...), nil
}

// SwitchToFrame enters selector, which must be a registered iframe or frame.
func (f *Fake) SwitchToFrame(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SwitchToFrame"); err != nil {
		return err
	}
	if selector == "" {
		f.frames = nil
		return nil
	}
	el, ok := f.lookupLocked(selector)
	if !ok || (el.TagName != "iframe" && el.TagName != "frame") {
		return fmt.Errorf("switch to frame %s: %w", selector, session.ErrNoSuchFrame)
	}
	f.frames = append(f.frames, selector)
	return nil
}

func (f *Fake) SwitchToParentFrame(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SwitchToParentFrame"); err != nil {
		return err
	}
	if len(f.frames) > 0 {
		f.frames = f.frames[:len(f.frames)-1]
	}
	return nil
}

func (f *Fake) PrintPDF(_ context.Context, opts session.PDFOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PrintPDF"); err != nil {
		return nil, err
	}
	if _, err := f.activeLocked(); err != nil {
		return nil, err
	}
	f.printed = append(f.printed, opts)
	return append([]byte(nil), PDF...), nil
}

// Pause records d without sleeping.
func (f *Fake) Pause(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Pause"); err != nil {
		return err
	}
	f.paused += d
	return ctx.Err()
}

func (f *Fake) Screenshot(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Screenshot"); err != nil {
		return nil, err
	}
	return append([]byte(nil), PNG...), nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("Close")
}
