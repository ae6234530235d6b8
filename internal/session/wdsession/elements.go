package wdsession

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

func (s *Session) find(selector string) (selenium.WebElement, error) {
	els, err := s.wd.FindElements(selenium.ByXPATH, selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	return els[0], nil
}

func (s *Session) Count(_ context.Context, selector string) (int, error) {
	els, err := s.wd.FindElements(selenium.ByXPATH, selector)
	if err != nil {
		return 0, fmt.Errorf("find %s: %w", selector, err)
	}
	return len(els), nil
}

func (s *Session) Click(_ context.Context, selector string) error {
	el, err := s.find(selector)
	if err != nil {
		return err
	}
	return el.Click()
}

func (s *Session) dispatch(ctx context.Context, selector, event string) error {
	var ok *bool
	if err := s.Execute(ctx, session.ScriptDispatchMouse, []any{selector, event}, &ok); err != nil {
		return err
	}
	if ok == nil {
		return fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	return nil
}

func (s *Session) DoubleClick(ctx context.Context, selector string) error {
	return s.dispatch(ctx, selector, "dblclick")
}

func (s *Session) RightClick(ctx context.Context, selector string) error {
	return s.dispatch(ctx, selector, "contextmenu")
}

func (s *Session) Hover(_ context.Context, selector string) error {
	el, err := s.find(selector)
	if err != nil {
		return err
	}
	return el.MoveTo(0, 0)
}

func (s *Session) SetValue(_ context.Context, selector, value string) error {
	el, err := s.find(selector)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return err
	}
	return el.SendKeys(value)
}

func (s *Session) AddValue(_ context.Context, selector, value string) error {
	el, err := s.find(selector)
	if err != nil {
		return err
	}
	return el.SendKeys(value)
}

func (s *Session) Clear(_ context.Context, selector string) error {
	el, err := s.find(selector)
	if err != nil {
		return err
	}
	return el.Clear()
}

func (s *Session) Text(_ context.Context, selector string) (string, error) {
	el, err := s.find(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (s *Session) Attribute(_ context.Context, selector, name string) (string, error) {
	el, err := s.find(selector)
	if err != nil {
		return "", err
	}
	return el.GetAttribute(name)
}

func (s *Session) Value(_ context.Context, selector string) (string, error) {
	el, err := s.find(selector)
	if err != nil {
		return "", err
	}
	return el.GetAttribute("value")
}

func (s *Session) TagName(_ context.Context, selector string) (string, error) {
	el, err := s.find(selector)
	if err != nil {
		return "", err
	}
	return el.TagName()
}

func (s *Session) IsDisplayed(_ context.Context, selector string) (bool, error) {
	el, err := s.find(selector)
	if err != nil {
		return false, err
	}
	return el.IsDisplayed()
}

func (s *Session) IsEnabled(_ context.Context, selector string) (bool, error) {
	el, err := s.find(selector)
	if err != nil {
		return false, err
	}
	return el.IsEnabled()
}

func (s *Session) IsSelected(_ context.Context, selector string) (bool, error) {
	el, err := s.find(selector)
	if err != nil {
		return false, err
	}
	return el.IsSelected()
}

func (s *Session) ScrollIntoView(ctx context.Context, selector string) error {
	var ok *bool
	if err := s.Execute(ctx, session.ScriptScrollIntoView, []any{selector}, &ok); err != nil {
		return err
	}
	if ok == nil {
		return fmt.Errorf("%s: %w", selector, session.ErrNoSuchElement)
	}
	return nil
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
	el, err := s.find(selector)
	if err != nil {
		return nil, err
	}
	return el.Screenshot(scroll)
}
