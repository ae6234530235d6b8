package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverCDP       = "cdp"
	DriverWebDriver = "webdriver"
)

// Config holds all configuration for an e2e run.
type Config struct {
	Env    string
	Driver string

	// Browser settings
	Headless      bool
	CDPAddress    string
	CDPPort       int
	LaunchBrowser bool
	ProfileDir    string
	WebDriverURL  string
	WebDriverName string
	DownloadDir   string

	// Input files
	SiteConfigPath  string
	TestDataPath    string
	CredentialsPath string

	// Timing
	MailDelay   time.Duration
	OTPSettle   time.Duration
	StepTimeout time.Duration
	WaitTimeout time.Duration

	// Output
	ReportDir   string
	SnapshotDir string
	LogLevel    string
	LogFile     string
	NotifyURL   string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		Env:             strings.ToLower(getEnvOrDefault("E2E_ENV", "prod")),
		Driver:          strings.ToLower(getEnvOrDefault("E2E_DRIVER", DriverCDP)),
		Headless:        getEnvBoolOrDefault("E2E_HEADLESS", false),
		CDPAddress:      getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:         getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		LaunchBrowser:   getEnvBoolOrDefault("E2E_LAUNCH_BROWSER", true),
		ProfileDir:      getEnvOrDefault("E2E_PROFILE_DIR", "./.e2e/profile"),
		WebDriverURL:    getEnvOrDefault("WEBDRIVER_URL", "http://127.0.0.1:4444/wd/hub"),
		WebDriverName:   getEnvOrDefault("WEBDRIVER_BROWSER", "chrome"),
		DownloadDir:     getEnvOrDefault("E2E_DOWNLOAD_DIR", "./tempDownloads"),
		SiteConfigPath:  getEnvOrDefault("E2E_SITE_CONFIG", "configs/site.yaml"),
		TestDataPath:    getEnvOrDefault("E2E_TEST_DATA", "configs/login_data.json"),
		CredentialsPath: getEnvOrDefault("GMAIL_CREDENTIALS_FILE", "configs/credentials.json"),
		MailDelay:       getEnvDurationOrDefault("OTP_MAIL_DELAY", 8*time.Second),
		OTPSettle:       getEnvDurationOrDefault("E2E_OTP_SETTLE", 5*time.Second),
		StepTimeout:     getEnvDurationOrDefault("E2E_STEP_TIMEOUT", 120*time.Second),
		WaitTimeout:     getEnvDurationOrDefault("E2E_WAIT_TIMEOUT", 10*time.Second),
		ReportDir:       getEnvOrDefault("E2E_REPORT_DIR", "./reports"),
		SnapshotDir:     getEnvOrDefault("E2E_SNAPSHOT_DIR", "./reports/screenshots"),
		LogLevel:        strings.ToLower(getEnvOrDefault("E2E_LOG_LEVEL", "debug")),
		LogFile:         getEnvOrDefault("E2E_LOG_FILE", "logs/e2e.log"),
		NotifyURL:       os.Getenv("E2E_NOTIFY_URL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverCDP, DriverWebDriver:
	default:
		return fmt.Errorf("unsupported E2E_DRIVER %q (want %s or %s)", c.Driver, DriverCDP, DriverWebDriver)
	}
	if c.StepTimeout < time.Second {
		c.StepTimeout = time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 10 * time.Second
	}
	if c.MailDelay < 0 {
		c.MailDelay = 0
	}
	if c.OTPSettle < 0 {
		c.OTPSettle = 0
	}
	return nil
}

// CDPURL returns the full CDP HTTP endpoint used by chromedp remote allocator.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDurationOrDefault accepts Go durations ("8s") or plain seconds ("8").
func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
