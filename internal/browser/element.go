package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

// ElementDriver is the part of a session Elements needs.
type ElementDriver interface {
	session.Elements
	session.Scripter
}

// Elements performs logged element interactions by XPath selector.
type Elements struct {
	sess         ElementDriver
	pollInterval time.Duration
}

func NewElements(sess ElementDriver, pollInterval time.Duration) *Elements {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Elements{sess: sess, pollInterval: pollInterval}
}

// absentIsFalse turns a missing element into a false answer.
func absentIsFalse(ok bool, err error) (bool, error) {
	if errors.Is(err, session.ErrNoSuchElement) {
		return false, nil
	}
	return ok, err
}

func (e *Elements) MouseHover(ctx context.Context, selector, description string) error {
	slog.Info("hovering", "element", description)
	return e.sess.Hover(ctx, selector)
}

func (e *Elements) Click(ctx context.Context, selector, description string) error {
	slog.Info("clicking", "element", description)
	return e.sess.Click(ctx, selector)
}

func (e *Elements) DoubleClick(ctx context.Context, selector, description string) error {
	slog.Info("double clicking", "element", description)
	return e.sess.DoubleClick(ctx, selector)
}

func (e *Elements) RightClick(ctx context.Context, selector string) error {
	slog.Info("right clicking", "selector", selector)
	return e.sess.RightClick(ctx, selector)
}

// SendText replaces the input's value.
func (e *Elements) SendText(ctx context.Context, selector, value string) error {
	slog.Info("sending text", "selector", selector, "value", value)
	return e.sess.SetValue(ctx, selector, value)
}

// AddValue appends to the input's value.
func (e *Elements) AddValue(ctx context.Context, selector, value string) error {
	slog.Info("adding value", "selector", selector, "value", value)
	return e.sess.AddValue(ctx, selector, value)
}

func (e *Elements) ClearValue(ctx context.Context, selector string) error {
	slog.Info("clearing value", "selector", selector)
	return e.sess.Clear(ctx, selector)
}

func (e *Elements) GetText(ctx context.Context, selector string) (string, error) {
	slog.Debug("getting text", "selector", selector)
	return e.sess.Text(ctx, selector)
}

func (e *Elements) GetAttribute(ctx context.Context, selector, attribute string) (string, error) {
	slog.Debug("getting attribute", "selector", selector, "attribute", attribute)
	return e.sess.Attribute(ctx, selector, attribute)
}

func (e *Elements) GetValue(ctx context.Context, selector string) (string, error) {
	slog.Debug("getting value", "selector", selector)
	return e.sess.Value(ctx, selector)
}

func (e *Elements) GetTagName(ctx context.Context, selector string) (string, error) {
	return e.sess.TagName(ctx, selector)
}

func (e *Elements) DragAndDrop(ctx context.Context, source, target string) error {
	slog.Info("dragging element", "source", source, "target", target)
	return e.sess.DragAndDrop(ctx, source, target)
}

// IsClickable reports whether the element is displayed and enabled.
func (e *Elements) IsClickable(ctx context.Context, selector string) (bool, error) {
	displayed, err := e.IsDisplayed(ctx, selector)
	if err != nil || !displayed {
		return false, err
	}
	return e.IsEnabled(ctx, selector)
}

func (e *Elements) IsDisplayed(ctx context.Context, selector string) (bool, error) {
	return absentIsFalse(e.sess.IsDisplayed(ctx, selector))
}

func (e *Elements) IsEnabled(ctx context.Context, selector string) (bool, error) {
	return absentIsFalse(e.sess.IsEnabled(ctx, selector))
}

func (e *Elements) IsSelected(ctx context.Context, selector string) (bool, error) {
	return absentIsFalse(e.sess.IsSelected(ctx, selector))
}

func (e *Elements) IsExisting(ctx context.Context, selector string) (bool, error) {
	n, err := e.sess.Count(ctx, selector)
	return n > 0, err
}

// IsEqual reports whether two selectors resolve to the same DOM node.
func (e *Elements) IsEqual(ctx context.Context, first, second string) (bool, error) {
	var same *bool
	if err := e.sess.Execute(ctx, session.ScriptSameElement, []any{first, second}, &same); err != nil {
		return false, err
	}
	if same == nil {
		return false, fmt.Errorf("compare %s and %s: %w", first, second, session.ErrNoSuchElement)
	}
	return *same, nil
}

// Count returns how many elements match selector.
func (e *Elements) Count(ctx context.Context, selector string) (int, error) {
	return e.sess.Count(ctx, selector)
}

func (e *Elements) ScrollIntoView(ctx context.Context, selector string) error {
	slog.Info("scrolling into view", "selector", selector)
	return e.sess.ScrollIntoView(ctx, selector)
}

func (e *Elements) SelectByAttribute(ctx context.Context, selector, attribute, value string) error {
	slog.Info("selecting option by attribute", "attribute", attribute, "value", value)
	return e.sess.SelectByAttribute(ctx, selector, attribute, value)
}

func (e *Elements) SelectByIndex(ctx context.Context, selector string, index int) error {
	slog.Info("selecting option by index", "index", index)
	return e.sess.SelectByIndex(ctx, selector, index)
}

func (e *Elements) SelectByVisibleText(ctx context.Context, selector, text string) error {
	slog.Info("selecting option by text", "text", text)
	return e.sess.SelectByVisibleText(ctx, selector, text)
}

func (e *Elements) waitFor(ctx context.Context, check func(context.Context, string) (bool, error), selector string, timeout time.Duration, description, state string, reverse bool) error {
	want := !reverse
	if reverse {
		state = "not " + state
	}
	slog.Info("waiting for element", "element", description, "state", state, "timeout", timeout.String())
	return poll(ctx, func(ctx context.Context) (bool, error) {
		ok, err := check(ctx, selector)
		if err != nil {
			return false, err
		}
		return ok == want, nil
	}, timeout, e.pollInterval, fmt.Sprintf("%s still not %s after %s", description, state, timeout))
}

// WaitForDisplayed waits until the element is (or with reverse, is not) displayed.
func (e *Elements) WaitForDisplayed(ctx context.Context, selector string, timeout time.Duration, description string, reverse bool) error {
	return e.waitFor(ctx, e.IsDisplayed, selector, timeout, description, "displayed", reverse)
}

// WaitForClickable waits until the element is (or with reverse, is not) clickable.
func (e *Elements) WaitForClickable(ctx context.Context, selector string, timeout time.Duration, description string, reverse bool) error {
	return e.waitFor(ctx, e.IsClickable, selector, timeout, description, "clickable", reverse)
}

// WaitForExist waits until the element is (or with reverse, is not) in the DOM.
func (e *Elements) WaitForExist(ctx context.Context, selector string, timeout time.Duration, description string, reverse bool) error {
	return e.waitFor(ctx, e.IsExisting, selector, timeout, description, "existing", reverse)
}

// WaitForEnabled waits until the element is (or with reverse, is not) enabled.
func (e *Elements) WaitForEnabled(ctx context.Context, selector string, timeout time.Duration, description string, reverse bool) error {
	return e.waitFor(ctx, e.IsEnabled, selector, timeout, description, "enabled", reverse)
}

// IsTimeout reports whether err came from an expired wait.
func IsTimeout(err error) bool {
	return errs.HasCode(err, errs.CodeTimeout)
}
