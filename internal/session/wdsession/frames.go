package wdsession

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgnsrekt/storefront_e2e/internal/apirequest"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

func (s *Session) SwitchToFrame(_ context.Context, selector string) error {
	if selector == "" {
		return s.wd.SwitchFrame(nil)
	}
	el, err := s.find(selector)
	if err != nil {
		return fmt.Errorf("switch to frame: %w: %v", session.ErrNoSuchFrame, err)
	}
	if err := s.wd.SwitchFrame(el); err != nil {
		return fmt.Errorf("switch to frame %s: %w: %v", selector, session.ErrNoSuchFrame, err)
	}
	return nil
}

// SwitchToParentFrame and PrintPDF are W3C commands the selenium client does
// not wrap; they go to the endpoint directly.
func (s *Session) SwitchToParentFrame(ctx context.Context) error {
	_, err := s.command(ctx, "frame/parent", map[string]any{})
	return err
}

func (s *Session) PrintPDF(ctx context.Context, opts session.PDFOptions) ([]byte, error) {
	resp, err := s.command(ctx, "print", printBody(opts))
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Get("value").String())
	if err != nil {
		return nil, fmt.Errorf("decode pdf: %w", err)
	}
	return raw, nil
}

func (s *Session) command(ctx context.Context, path string, body any) (*apirequest.Response, error) {
	endpoint := fmt.Sprintf("%s/session/%s/%s", strings.TrimSuffix(s.cfg.URL, "/"), s.wd.SessionID(), path)
	resp, err := s.api.Post(ctx, endpoint, nil, body)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, fmt.Errorf("%s: status=%d error=%s message=%s", path, resp.Status,
			resp.Get("value.error").String(), resp.Get("value.message").String())
	}
	return resp, nil
}

func printBody(opts session.PDFOptions) map[string]any {
	opts = opts.Normalized()
	orientation := "portrait"
	if opts.Landscape {
		orientation = "landscape"
	}
	ranges := opts.PageRanges
	if ranges == nil {
		ranges = []string{}
	}
	return map[string]any{
		"orientation": orientation,
		"scale":       opts.Scale,
		"background":  opts.Background,
		"page":        map[string]float64{"width": opts.PageWidth, "height": opts.PageHeight},
		"margin": map[string]float64{
			"top":    opts.MarginTop,
			"bottom": opts.MarginBottom,
			"left":   opts.MarginLeft,
			"right":  opts.MarginRight,
		},
		"shrinkToFit": opts.ShrinkToFit,
		"pageRanges":  ranges,
	}
}
