package cdpsession

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

func TestPrintParamsConvertsCentimetres(t *testing.T) {
	opts := session.DefaultPDFOptions()
	opts.Landscape = true
	opts.PageRanges = []string{"1-2", "4"}
	p := printParams(opts)

	if !p.Landscape {
		t.Fatal("Landscape = false; want true")
	}
	if math.Abs(p.PaperWidth-8.5) > 1e-9 || math.Abs(p.PaperHeight-11) > 1e-9 {
		t.Fatalf("paper = %vx%v in; want 8.5x11", p.PaperWidth, p.PaperHeight)
	}
	if math.Abs(p.MarginTop-1/2.54) > 1e-9 {
		t.Fatalf("MarginTop = %v; want %v", p.MarginTop, 1/2.54)
	}
	if p.PreferCSSPageSize {
		t.Fatal("PreferCSSPageSize = true; want false when shrinking to fit")
	}
	if p.PageRanges != "1-2,4" {
		t.Fatalf("PageRanges = %q; want %q", p.PageRanges, "1-2,4")
	}
}

func TestFrameScopeBindsInnermostDocument(t *testing.T) {
	expr := fmt.Sprintf(frameScope, `["//iframe[@id='otp']"]`, "return arguments[0];", `[1]`)
	for _, want := range []string{
		`chain = ["//iframe[@id='otp']"]`,
		`(function(){return arguments[0];}).apply(null, args)`,
		`(d, d.defaultView, [1])`,
	} {
		if !strings.Contains(expr, want) {
			t.Fatalf("frameScope expression missing %q:\n%s", want, expr)
		}
	}
}
