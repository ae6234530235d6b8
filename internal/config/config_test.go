package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"E2E_ENV", "E2E_DRIVER", "CHROMIUM_CDP_PORT", "OTP_MAIL_DELAY", "E2E_OTP_SETTLE", "E2E_STEP_TIMEOUT", "E2E_NOTIFY_URL"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "prod" || cfg.Driver != DriverCDP {
		t.Fatalf("env/driver = %q/%q, want prod/cdp", cfg.Env, cfg.Driver)
	}
	if cfg.MailDelay != 8*time.Second {
		t.Fatalf("MailDelay = %v, want 8s", cfg.MailDelay)
	}
	if cfg.OTPSettle != 5*time.Second {
		t.Fatalf("OTPSettle = %v, want 5s", cfg.OTPSettle)
	}
	if got := cfg.CDPURL(); got != "http://127.0.0.1:9222" {
		t.Fatalf("CDPURL = %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("E2E_ENV", "Staging")
	t.Setenv("E2E_DRIVER", "WebDriver")
	t.Setenv("E2E_HEADLESS", "true")
	t.Setenv("OTP_MAIL_DELAY", "3")
	t.Setenv("E2E_STEP_TIMEOUT", "90s")
	t.Setenv("E2E_WAIT_TIMEOUT", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "staging" || cfg.Driver != DriverWebDriver || !cfg.Headless {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.MailDelay != 3*time.Second {
		t.Fatalf("MailDelay = %v, want 3s", cfg.MailDelay)
	}
	if cfg.StepTimeout != 90*time.Second {
		t.Fatalf("StepTimeout = %v, want 90s", cfg.StepTimeout)
	}
	if cfg.WaitTimeout != 10*time.Second {
		t.Fatalf("WaitTimeout = %v, want default 10s", cfg.WaitTimeout)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("E2E_DRIVER", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadSite(t *testing.T) {
	path := writeFile(t, "site.yaml", `
environments:
  prod:
    base_url: https://www.titaneyeplus.com/
  staging:
    base_url: https://staging.example.test/
`)
	site, err := LoadSite(path)
	if err != nil {
		t.Fatalf("LoadSite: %v", err)
	}
	got, err := site.BaseURL("PROD")
	if err != nil || got != "https://www.titaneyeplus.com/" {
		t.Fatalf("BaseURL(PROD) = %q, %v", got, err)
	}
	if _, err := site.BaseURL("qa"); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestLoadSiteValidation(t *testing.T) {
	cases := map[string]string{
		"empty":       "environments: {}\n",
		"missing url": "environments:\n  prod: {}\n",
		"bad yaml":    "environments: [",
	}
	for name, content := range cases {
		if _, err := LoadSite(writeFile(t, "site.yaml", content)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadSite(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadTestData(t *testing.T) {
	path := writeFile(t, "login_data.json", `{
  "Modal": {"Title": "Sign In / Sign Up", "RegisteredNumber": "9876543210"},
  "ProfileDetails": {"FirstName": "Asha", "LastName": "Rao", "RegisteredEmail": "asha@example.com"}
}`)
	td, err := LoadTestData(path)
	if err != nil {
		t.Fatalf("LoadTestData: %v", err)
	}
	if td.Modal.Title != "Sign In / Sign Up" || td.ProfileDetails.RegisteredEmail != "asha@example.com" {
		t.Fatalf("unexpected test data %+v", td)
	}
	if _, err := LoadTestData(writeFile(t, "empty.json", `{"Modal":{}}`)); err == nil {
		t.Fatal("expected error when RegisteredNumber is missing")
	}
}

func TestLoadMailStub(t *testing.T) {
	t.Setenv("MAILSTUB_BIND_ADDR", "")
	t.Setenv("MAILSTUB_REFRESH_TOKEN", "r-1")
	cfg, err := LoadMailStub()
	if err != nil {
		t.Fatalf("LoadMailStub: %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:8290" || cfg.RefreshToken != "r-1" {
		t.Fatalf("unexpected mail stub config %+v", cfg)
	}
	if !cfg.PortAutoFallback || len(cfg.PortCandidates) != 5 || cfg.PortCandidates[0] != "127.0.0.1:8291" {
		t.Fatalf("PortCandidates = %v (fallback %v)", cfg.PortCandidates, cfg.PortAutoFallback)
	}
}

func TestLoadMailStubExplicitCandidates(t *testing.T) {
	t.Setenv("MAILSTUB_PORT_CANDIDATES", "127.0.0.1:9001, ,127.0.0.1:9002")
	t.Setenv("MAILSTUB_PORT_AUTO_FALLBACK", "false")
	cfg, err := LoadMailStub()
	if err != nil {
		t.Fatalf("LoadMailStub: %v", err)
	}
	if cfg.PortAutoFallback || len(cfg.PortCandidates) != 2 || cfg.PortCandidates[1] != "127.0.0.1:9002" {
		t.Fatalf("unexpected candidates %v (fallback %v)", cfg.PortCandidates, cfg.PortAutoFallback)
	}
}

func TestShippedConfigsLoad(t *testing.T) {
	site, err := LoadSite(filepath.Join("..", "..", "configs", "site.yaml"))
	if err != nil {
		t.Fatalf("LoadSite: %v", err)
	}
	if got, err := site.BaseURL("PROD"); err != nil || got != "https://www.titaneyeplus.com/" {
		t.Fatalf("BaseURL(PROD) = %q, %v", got, err)
	}
	data, err := LoadTestData(filepath.Join("..", "..", "configs", "login_data.json"))
	if err != nil {
		t.Fatalf("LoadTestData: %v", err)
	}
	if data.Modal.Title != "Login or Signup" {
		t.Fatalf("Modal.Title = %q", data.Modal.Title)
	}
}
