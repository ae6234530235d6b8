package cdpsession

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

func (s *Session) pendingDialog() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.dialogs[s.active]
	if !ok {
		return "", session.ErrNoAlert
	}
	return msg, nil
}

func (s *Session) handleDialog(ctx context.Context, accept bool) error {
	if _, err := s.pendingDialog(); err != nil {
		return err
	}
	s.mu.Lock()
	prompt := s.prompt
	s.prompt = ""
	s.mu.Unlock()

	p := page.HandleJavaScriptDialog(accept)
	if accept && prompt != "" {
		p = p.WithPromptText(prompt)
	}
	if err := s.run(ctx, p); err != nil {
		return fmt.Errorf("handle dialog: %w", err)
	}
	s.mu.Lock()
	delete(s.dialogs, s.active)
	s.mu.Unlock()
	return nil
}

func (s *Session) AcceptAlert(ctx context.Context) error {
	return s.handleDialog(ctx, true)
}

func (s *Session) DismissAlert(ctx context.Context) error {
	return s.handleDialog(ctx, false)
}

func (s *Session) AlertText(context.Context) (string, error) {
	return s.pendingDialog()
}

// SendAlertText stages text for the prompt; it is submitted by AcceptAlert.
func (s *Session) SendAlertText(_ context.Context, text string) error {
	if _, err := s.pendingDialog(); err != nil {
		return err
	}
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
	return nil
}

func (s *Session) Cookies(ctx context.Context) ([]session.Cookie, error) {
	var raw []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(c)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	out := make([]session.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			Expiry:   int64(c.Expires),
		})
	}
	return out, nil
}

func (s *Session) Cookie(ctx context.Context, name string) (session.Cookie, error) {
	all, err := s.Cookies(ctx)
	if err != nil {
		return session.Cookie{}, err
	}
	for _, c := range all {
		if c.Name == name {
			return c, nil
		}
	}
	return session.Cookie{}, fmt.Errorf("cookie %q: %w", name, session.ErrNoSuchCookie)
}

func (s *Session) SetCookies(ctx context.Context, cookies []session.Cookie) error {
	u, err := s.URL(ctx)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		for _, ck := range cookies {
			p := network.SetCookie(ck.Name, ck.Value).WithURL(u).WithSecure(ck.Secure).WithHTTPOnly(ck.HTTPOnly)
			if ck.Domain != "" {
				p = p.WithDomain(ck.Domain)
			}
			if ck.Path != "" {
				p = p.WithPath(ck.Path)
			}
			if ck.Expiry > 0 {
				exp := cdp.TimeSinceEpoch(time.Unix(ck.Expiry, 0))
				p = p.WithExpires(&exp)
			}
			if err := p.Do(c); err != nil {
				return fmt.Errorf("set cookie %q: %w", ck.Name, err)
			}
		}
		return nil
	}))
}

func (s *Session) DeleteCookie(ctx context.Context, name string) error {
	u, err := s.URL(ctx)
	if err != nil {
		return err
	}
	return s.run(ctx, network.DeleteCookies(name).WithURL(u))
}

func (s *Session) DeleteAllCookies(ctx context.Context) error {
	return s.run(ctx, network.ClearBrowserCookies())
}

func keyEvent(typ input.KeyType, key string) *input.DispatchKeyEventParams {
	r := []rune(key)
	if len(r) == 1 {
		if k, ok := kb.Keys[r[0]]; ok {
			p := input.DispatchKeyEvent(typ).
				WithKey(k.Key).
				WithCode(k.Code).
				WithWindowsVirtualKeyCode(k.Windows).
				WithNativeVirtualKeyCode(k.Native)
			if typ == input.KeyDown && k.Print {
				p = p.WithText(k.Text)
			}
			return p
		}
	}
	p := input.DispatchKeyEvent(typ).WithKey(key)
	if typ == input.KeyDown {
		p = p.WithText(key)
	}
	return p
}

func (s *Session) KeyDown(ctx context.Context, key string) error {
	return s.run(ctx, keyEvent(input.KeyDown, key))
}

func (s *Session) KeyUp(ctx context.Context, key string) error {
	return s.run(ctx, keyEvent(input.KeyUp, key))
}
