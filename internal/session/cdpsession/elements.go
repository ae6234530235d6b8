package cdpsession

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Session) nodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return nodes, nil
}

// requireNode fails fast instead of letting chromedp wait for a missing node.
func (s *Session) requireNode(ctx context.Context, selector string) ([]*cdp.Node, error) {
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	return nodes, nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx, chromedp.Click(selector, chromedp.BySearch, chromedp.NodeVisible))
}

func (s *Session) DoubleClick(ctx context.Context, selector string) error {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx, chromedp.DoubleClick(selector, chromedp.BySearch, chromedp.NodeVisible))
}

func (s *Session) RightClick(ctx context.Context, selector string) error {
	nodes, err := s.requireNode(ctx, selector)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.MouseClickNode(nodes[0], chromedp.ButtonType(input.Right)))
}

func (s *Session) center(ctx context.Context, selector string) (point, error) {
	var p *point
	if err := s.Execute(ctx, session.ScriptCenter, []any{selector}, &p); err != nil {
		return point{}, err
	}
	if p == nil {
		return point{}, fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	return *p, nil
}

func (s *Session) Hover(ctx context.Context, selector string) error {
	p, err := s.center(ctx, selector)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.MouseEvent(input.MouseMoved, p.X, p.Y))
}

func (s *Session) SetValue(ctx context.Context, selector, value string) error {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx,
		chromedp.Clear(selector, chromedp.BySearch),
		chromedp.SendKeys(selector, value, chromedp.BySearch),
	)
}

func (s *Session) AddValue(ctx context.Context, selector, value string) error {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx, chromedp.SendKeys(selector, value, chromedp.BySearch))
}

func (s *Session) Clear(ctx context.Context, selector string) error {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx, chromedp.Clear(selector, chromedp.BySearch))
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return "", err
	}
	var text string
	err := s.run(ctx, chromedp.Text(selector, &text, chromedp.BySearch))
	return text, err
}

func (s *Session) Attribute(ctx context.Context, selector, name string) (string, error) {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return "", err
	}
	var (
		value string
		ok    bool
	)
	err := s.run(ctx, chromedp.AttributeValue(selector, name, &value, &ok, chromedp.BySearch))
	return value, err
}

func (s *Session) Value(ctx context.Context, selector string) (string, error) {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return "", err
	}
	var value string
	err := s.run(ctx, chromedp.Value(selector, &value, chromedp.BySearch))
	return value, err
}

func (s *Session) TagName(ctx context.Context, selector string) (string, error) {
	var tag *string
	if err := s.Execute(ctx, session.ScriptTagName, []any{selector}, &tag); err != nil {
		return "", err
	}
	if tag == nil {
		return "", fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	return *tag, nil
}

func (s *Session) predicate(ctx context.Context, script, selector string) (bool, error) {
	var v *bool
	if err := s.Execute(ctx, script, []any{selector}, &v); err != nil {
		return false, err
	}
	if v == nil {
		return false, fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	return *v, nil
}

func (s *Session) IsDisplayed(ctx context.Context, selector string) (bool, error) {
	return s.predicate(ctx, session.ScriptIsDisplayed, selector)
}

func (s *Session) IsEnabled(ctx context.Context, selector string) (bool, error) {
	return s.predicate(ctx, session.ScriptIsEnabled, selector)
}

func (s *Session) IsSelected(ctx context.Context, selector string) (bool, error) {
	return s.predicate(ctx, session.ScriptIsSelected, selector)
}

func (s *Session) ScrollIntoView(ctx context.Context, selector string) error {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx, chromedp.ScrollIntoView(selector, chromedp.BySearch))
}

func (s *Session) selectOption(ctx context.Context, selector, mode, attr string, value any) error {
	var ok *bool
	if err := s.Execute(ctx, session.ScriptSelect, []any{selector, mode, attr, value}, &ok); err != nil {
		return err
	}
	if ok == nil {
		return fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	if !*ok {
		return fmt.Errorf("select %s: no option matching %v", selector, value)
	}
	return nil
}

func (s *Session) SelectByAttribute(ctx context.Context, selector, attr, value string) error {
	return s.selectOption(ctx, selector, "attribute", attr, value)
}

func (s *Session) SelectByIndex(ctx context.Context, selector string, index int) error {
	return s.selectOption(ctx, selector, "index", "", index)
}

func (s *Session) SelectByVisibleText(ctx context.Context, selector, text string) error {
	return s.selectOption(ctx, selector, "text", "", text)
}

func (s *Session) DragAndDrop(ctx context.Context, source, target string) error {
	var ok *bool
	if err := s.Execute(ctx, session.ScriptDragAndDrop, []any{source, target}, &ok); err != nil {
		return err
	}
	if ok == nil {
		return fmt.Errorf("drag %s to %s: %w", source, target, session.ErrNoSuchElement)
	}
	return nil
}

func (s *Session) ElementScreenshot(ctx context.Context, selector string, scroll bool) ([]byte, error) {
	if _, err := s.requireNode(ctx, selector); err != nil {
		return nil, err
	}
	if scroll {
		if err := s.run(ctx, chromedp.ScrollIntoView(selector, chromedp.BySearch)); err != nil {
			return nil, err
		}
	}
	var buf []byte
	if err := s.run(ctx, chromedp.Screenshot(selector, &buf, chromedp.BySearch)); err != nil {
		return nil, fmt.Errorf("element screenshot %s: %w", selector, err)
	}
	return buf, nil
}
