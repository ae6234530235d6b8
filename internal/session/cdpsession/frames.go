package cdpsession

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/page"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

// frameScope walks %s (a JSON array of frame XPaths) from the top document
// and runs the script body with document and window bound to the innermost
// frame.
const frameScope = `(function(){
var d = document, chain = %s;
for (var i = 0; i < chain.length; i++) {
  var f = d.evaluate(chain[i], d, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
  if (!f || !f.contentDocument) { throw new Error('no such frame: ' + chain[i]); }
  d = f.contentDocument;
}
var r = (function(document, window, args){ return (function(){%s}).apply(null, args); })(d, d.defaultView, %s);
return JSON.stringify(r === undefined ? null : r);
})()`

func (s *Session) frameChain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.frames[s.active]...)
}

func (s *Session) resetFrames() {
	s.mu.Lock()
	delete(s.frames, s.active)
	s.mu.Unlock()
}

// SwitchToFrame checks selector names a frame in the current document and
// pushes it onto the active tab's frame chain.
func (s *Session) SwitchToFrame(ctx context.Context, selector string) error {
	if selector == "" {
		s.resetFrames()
		return nil
	}
	var ok *bool
	if err := s.Execute(ctx, session.ScriptIsFrame, []any{selector}, &ok); err != nil {
		return err
	}
	if ok == nil || !*ok {
		return fmt.Errorf("switch to frame %s: %w", selector, session.ErrNoSuchFrame)
	}
	s.mu.Lock()
	s.frames[s.active] = append(s.frames[s.active], selector)
	s.mu.Unlock()
	return nil
}

func (s *Session) SwitchToParentFrame(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chain := s.frames[s.active]; len(chain) > 0 {
		s.frames[s.active] = chain[:len(chain)-1]
	}
	return nil
}

const cmPerInch = 2.54

// printParams converts centimetre options to the inch based CDP call.
func printParams(opts session.PDFOptions) *page.PrintToPDFParams {
	opts = opts.Normalized()
	p := page.PrintToPDF().
		WithLandscape(opts.Landscape).
		WithPrintBackground(opts.Background).
		WithScale(opts.Scale).
		WithPaperWidth(opts.PageWidth / cmPerInch).
		WithPaperHeight(opts.PageHeight / cmPerInch).
		WithMarginTop(opts.MarginTop / cmPerInch).
		WithMarginBottom(opts.MarginBottom / cmPerInch).
		WithMarginLeft(opts.MarginLeft / cmPerInch).
		WithMarginRight(opts.MarginRight / cmPerInch).
		WithPreferCSSPageSize(!opts.ShrinkToFit)
	if len(opts.PageRanges) > 0 {
		p = p.WithPageRanges(strings.Join(opts.PageRanges, ","))
	}
	return p
}
