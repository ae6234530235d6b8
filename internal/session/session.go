package session

import (
	"context"
	"fmt"
	"time"
)

// WindowKind selects what CreateWindow opens.
type WindowKind string

const (
	WindowTab    WindowKind = "tab"
	WindowWindow WindowKind = "window"
)

// BlankURL is the page a window is left on after a reset.
const BlankURL = "data:,"

// Windows manages top-level browsing contexts. Handles are opaque strings
// stable for the lifetime of a window.
type Windows interface {
	WindowHandle(ctx context.Context) (string, error)
	// WindowHandles returns every open handle, oldest first.
	WindowHandles(ctx context.Context) ([]string, error)
	// NewWindow opens url in a new window and makes it the active one.
	NewWindow(ctx context.Context, url string) error
	// CreateWindow opens an empty window and returns its handle without switching to it.
	CreateWindow(ctx context.Context, kind WindowKind) (string, error)
	SwitchToWindow(ctx context.Context, handle string) error
	// CloseWindow closes the active window. No window is active afterwards.
	CloseWindow(ctx context.Context) error
	MaximizeWindow(ctx context.Context) error
	MinimizeWindow(ctx context.Context) error
}

// Navigator drives the active window.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Scripter runs JavaScript in the active window. The script is a function
// body; args are exposed through `arguments` and the returned value is
// JSON-decoded into result when result is non-nil.
type Scripter interface {
	Execute(ctx context.Context, script string, args []any, result any) error
}

// Alerts handles native JavaScript dialogs.
type Alerts interface {
	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error
	AlertText(ctx context.Context) (string, error)
	SendAlertText(ctx context.Context, text string) error
}

// Cookie is a browser cookie.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Expiry   int64  `json:"expiry,omitempty"`
}

// Cookies manages cookies visible to the active window.
type Cookies interface {
	Cookies(ctx context.Context) ([]Cookie, error)
	Cookie(ctx context.Context, name string) (Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	DeleteCookie(ctx context.Context, name string) error
	DeleteAllCookies(ctx context.Context) error
}

// Keyboard presses and releases keys. Keys use the W3C WebDriver code points
// (see the Key constants).
type Keyboard interface {
	KeyDown(ctx context.Context, key string) error
	KeyUp(ctx context.Context, key string) error
}

// Frames moves the browsing context into and out of iframes. Selectors
// resolve against the current frame's document.
type Frames interface {
	// SwitchToFrame enters the frame element matched by selector. An empty
	// selector returns to the top-level document.
	SwitchToFrame(ctx context.Context, selector string) error
	// SwitchToParentFrame leaves the current frame. At the top level it is a no-op.
	SwitchToParentFrame(ctx context.Context) error
}

// PDFOptions are the W3C print parameters. Lengths are in centimetres.
type PDFOptions struct {
	Landscape    bool
	Background   bool
	Scale        float64
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	ShrinkToFit  bool
	// PageRanges like "1-3" or "5". Empty prints every page.
	PageRanges []string
}

// DefaultPDFOptions is US Letter, portrait, 1 cm margins.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		Scale:        1,
		PageWidth:    21.59,
		PageHeight:   27.94,
		MarginTop:    1,
		MarginBottom: 1,
		MarginLeft:   1,
		MarginRight:  1,
		ShrinkToFit:  true,
	}
}

// Normalized fills a zero scale and page size from DefaultPDFOptions.
func (o PDFOptions) Normalized() PDFOptions {
	def := DefaultPDFOptions()
	if o.Scale <= 0 {
		o.Scale = def.Scale
	}
	if o.PageWidth <= 0 {
		o.PageWidth = def.PageWidth
	}
	if o.PageHeight <= 0 {
		o.PageHeight = def.PageHeight
	}
	return o
}

// Elements addresses DOM elements by XPath. Use Nth to target a specific
// match when a selector matches several elements.
type Elements interface {
	Count(ctx context.Context, selector string) (int, error)
	Click(ctx context.Context, selector string) error
	DoubleClick(ctx context.Context, selector string) error
	RightClick(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string) error
	SetValue(ctx context.Context, selector, value string) error
	AddValue(ctx context.Context, selector, value string) error
	Clear(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	Attribute(ctx context.Context, selector, name string) (string, error)
	Value(ctx context.Context, selector string) (string, error)
	TagName(ctx context.Context, selector string) (string, error)
	IsDisplayed(ctx context.Context, selector string) (bool, error)
	IsEnabled(ctx context.Context, selector string) (bool, error)
	IsSelected(ctx context.Context, selector string) (bool, error)
	ScrollIntoView(ctx context.Context, selector string) error
	SelectByAttribute(ctx context.Context, selector, attr, value string) error
	SelectByIndex(ctx context.Context, selector string, index int) error
	SelectByVisibleText(ctx context.Context, selector, text string) error
	DragAndDrop(ctx context.Context, source, target string) error
	ElementScreenshot(ctx context.Context, selector string, scroll bool) ([]byte, error)
}

// Session is the full capability set a browser driver provides.
type Session interface {
	Windows
	Navigator
	Scripter
	Alerts
	Cookies
	Keyboard
	Elements
	Frames

	// Pause blocks for d or until ctx is done.
	Pause(ctx context.Context, d time.Duration) error
	// Screenshot captures the active window as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// PrintPDF renders the active window as a PDF document.
	PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error)
	Close() error
}

// Nth addresses the i-th (zero based) match of an XPath selector.
func Nth(selector string, i int) string {
	return fmt.Sprintf("(%s)[%d]", selector, i+1)
}

// Sleep is the Pause implementation shared by drivers.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
