package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
	"github.com/dgnsrekt/storefront_e2e/internal/session/sessiontest"
)

func newTestBrowser() (*Browser, *sessiontest.Fake) {
	fake := sessiontest.New()
	return New(fake, WithWaitTimeout(200*time.Millisecond), WithPollInterval(5*time.Millisecond)), fake
}

func TestWaitUntilSucceedsAfterRetries(t *testing.T) {
	b, _ := newTestBrowser()
	var n atomic.Int32

	err := b.WaitUntil(context.Background(), func(context.Context) (bool, error) {
		return n.Add(1) >= 3, nil
	}, time.Second, "never", "counter reaches 3", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n.Load(), int32(3))
}

func TestWaitUntilTimesOutWithMessage(t *testing.T) {
	b, _ := newTestBrowser()

	err := b.WaitUntil(context.Background(), func(context.Context) (bool, error) {
		return false, errors.New("still loading")
	}, 30*time.Millisecond, "modal never appeared", "modal", 0)
	require.Error(t, err)
	require.True(t, IsTimeout(err))
	require.Contains(t, err.Error(), "modal never appeared")
	require.Contains(t, err.Error(), "still loading")
}

func TestWaitUntilStopsOnContextCancel(t *testing.T) {
	b, _ := newTestBrowser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.WaitUntil(ctx, func(context.Context) (bool, error) { return false, nil }, time.Minute, "", "", 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitForDocumentReady(t *testing.T) {
	b, fake := newTestBrowser()
	var calls atomic.Int32
	fake.ExecuteFunc = func(script string, _ []any) (any, error) {
		require.Equal(t, session.ScriptReadyState, script)
		if calls.Add(1) < 2 {
			return "interactive", nil
		}
		return "complete", nil
	}

	require.NoError(t, b.WaitForDocumentReady(context.Background(), time.Second))
	require.Equal(t, int32(2), calls.Load())
}

func TestWaitAndPauseUseSessionPause(t *testing.T) {
	b, fake := newTestBrowser()
	require.NoError(t, b.Wait(context.Background(), 3*time.Second))
	require.NoError(t, b.Pause(context.Background(), 2*time.Second))
	require.Equal(t, 5*time.Second, fake.Paused())
}

func TestCookies(t *testing.T) {
	b, _ := newTestBrowser()
	ctx := context.Background()

	require.NoError(t, b.AddCookie(ctx, "session", "abc"))
	require.NoError(t, b.SetCookies(ctx, [][2]string{{"theme", "dark"}, {"session", "xyz"}}))

	all, err := b.AllCookies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	c, err := b.NamedCookie(ctx, "session")
	require.NoError(t, err)
	require.Equal(t, "xyz", c.Value)

	require.NoError(t, b.DeleteCookie(ctx, "theme"))
	_, err = b.NamedCookie(ctx, "theme")
	require.ErrorIs(t, err, session.ErrNoSuchCookie)

	require.NoError(t, b.DeleteAllCookies(ctx))
	all, err = b.AllCookies(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestAlerts(t *testing.T) {
	b, fake := newTestBrowser()
	ctx := context.Background()

	_, err := b.AlertText(ctx)
	require.ErrorIs(t, err, session.ErrNoAlert)

	fake.OpenAlert("Leave site?")
	text, err := b.AlertText(ctx)
	require.NoError(t, err)
	require.Equal(t, "Leave site?", text)
	require.NoError(t, b.SendAlertText(ctx, "yes"))
	require.NoError(t, b.AcceptAlert(ctx))
	require.Equal(t, "yes", fake.PromptText())
	require.ErrorIs(t, b.DismissAlert(ctx), session.ErrNoAlert)
}

func TestHoldAndReleaseKey(t *testing.T) {
	b, fake := newTestBrowser()
	ctx := context.Background()

	require.NoError(t, b.HoldDownKey(ctx, session.KeyShift))
	require.True(t, fake.KeyHeld(session.KeyShift))
	require.NoError(t, b.ReleaseKey(ctx, session.KeyShift))
	require.False(t, fake.KeyHeld(session.KeyShift))
}

func TestTakeScreenshotWritesFile(t *testing.T) {
	b, fake := newTestBrowser()
	path := filepath.Join(t.TempDir(), "shots", "home.png")

	png, err := b.TakeScreenshot(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, sessiontest.PNG, png)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, sessiontest.PNG, onDisk)

	fake.SetElement("//header", &sessiontest.Element{Displayed: true, Enabled: true})
	_, err = b.TakeElementScreenshot(context.Background(), "//header", "", true)
	require.NoError(t, err)

	_, err = b.TakeElementScreenshot(context.Background(), "//footer", "", true)
	require.Equal(t, errs.CodeDriver, errs.CodeOf(err))
}

func TestSavePDF(t *testing.T) {
	b, fake := newTestBrowser()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pdf", "order.pdf")

	opts := session.DefaultPDFOptions()
	opts.Landscape = true
	pdf, err := b.SavePDF(ctx, path, opts)
	require.NoError(t, err)
	require.Equal(t, sessiontest.PDF, pdf)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, sessiontest.PDF, onDisk)
	require.Equal(t, []session.PDFOptions{opts}, fake.Printed())

	_, err = b.SavePDF(ctx, filepath.Join(t.TempDir(), "order.png"), opts)
	require.Equal(t, errs.CodeValidation, errs.CodeOf(err))
	require.Equal(t, 1, fake.Calls("PrintPDF"))
}

func TestFrameSwitching(t *testing.T) {
	b, fake := newTestBrowser()
	ctx := context.Background()
	const (
		outer = `//iframe[@id="checkout"]`
		inner = `//iframe[@name="otp"]`
	)
	fake.SetElement(outer, &sessiontest.Element{TagName: "iframe"})
	fake.SetElement(inner, &sessiontest.Element{TagName: "iframe"})
	fake.SetElement("//div", &sessiontest.Element{TagName: "div"})

	require.NoError(t, b.SwitchToFrame(ctx, outer))
	require.NoError(t, b.SwitchToFrame(ctx, inner))
	require.Equal(t, []string{outer, inner}, fake.Frames())

	require.NoError(t, b.SwitchToParentFrame(ctx))
	require.Equal(t, []string{outer}, fake.Frames())

	err := b.SwitchToFrame(ctx, "//div")
	require.Equal(t, errs.CodeDriver, errs.CodeOf(err))
	require.ErrorIs(t, err, session.ErrNoSuchFrame)

	require.NoError(t, b.SwitchToFrame(ctx, ""))
	require.Empty(t, fake.Frames())
	require.NoError(t, b.SwitchToParentFrame(ctx))
	require.Empty(t, fake.Frames())

	require.NoError(t, b.SwitchToFrame(ctx, outer))
	require.NoError(t, b.BrowseURL(ctx, "https://shop.example/", "home"))
	require.Empty(t, fake.Frames())
}

func TestNavigationHelpers(t *testing.T) {
	b, fake := newTestBrowser()
	ctx := context.Background()
	fake.SetTitle("https://shop.example/a", "A")

	require.NoError(t, b.BrowseURL(ctx, "https://shop.example/a", "page a"))
	require.NoError(t, b.BrowseURL(ctx, "https://shop.example/b", "page b"))
	require.NoError(t, b.Back(ctx))

	u, err := b.URL(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://shop.example/a", u)
	title, err := b.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "A", title)

	require.NoError(t, b.Scroll(ctx, 0, 400))
	require.NoError(t, b.MaximizeWindow(ctx))
	require.Equal(t, 1, fake.Calls("MaximizeWindow"))
}

func TestRawWindowHelpers(t *testing.T) {
	b, fake := newTestBrowser()
	ctx := context.Background()

	h, err := b.CreateWindow(ctx, session.WindowWindow)
	require.NoError(t, err)
	handles, err := b.WindowHandles(ctx)
	require.NoError(t, err)
	require.Len(t, handles, 2)

	require.NoError(t, b.SwitchToWindow(ctx, h))
	cur, err := b.WindowHandle(ctx)
	require.NoError(t, err)
	require.Equal(t, h, cur)

	require.NoError(t, b.CloseWindow(ctx))
	require.Len(t, fake.Handles(), 1)
}
