package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNth(t *testing.T) {
	got := Nth(`//input[contains(@name,"otp_")]`, 0)
	if want := `(//input[contains(@name,"otp_")])[1]`; got != want {
		t.Fatalf("Nth() = %q; want %q", got, want)
	}
	if got, want := Nth("//li", 5), "(//li)[6]"; got != want {
		t.Fatalf("Nth() = %q; want %q", got, want)
	}
}

func TestSleepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep() error = %v; want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Sleep() did not return promptly after cancellation")
	}
}

func TestSleepZeroDuration(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Fatalf("Sleep(0) = %v; want nil", err)
	}
}

func TestPDFOptionsNormalized(t *testing.T) {
	got := PDFOptions{Landscape: true, MarginTop: 0}.Normalized()
	if got.Scale != 1 || got.PageWidth != 21.59 || got.PageHeight != 27.94 {
		t.Fatalf("Normalized() = %+v; want letter size at scale 1", got)
	}
	if !got.Landscape || got.MarginTop != 0 {
		t.Fatalf("Normalized() = %+v; want caller fields kept", got)
	}

	custom := PDFOptions{Scale: 0.5, PageWidth: 10, PageHeight: 20}.Normalized()
	if custom.Scale != 0.5 || custom.PageWidth != 10 || custom.PageHeight != 20 {
		t.Fatalf("Normalized() = %+v; want explicit values kept", custom)
	}
}
