package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dgnsrekt/storefront_e2e/internal/browser"
	"github.com/dgnsrekt/storefront_e2e/internal/config"
	"github.com/dgnsrekt/storefront_e2e/internal/gmail"
	"github.com/dgnsrekt/storefront_e2e/internal/logging"
	"github.com/dgnsrekt/storefront_e2e/internal/notify"
	"github.com/dgnsrekt/storefront_e2e/internal/pages"
	"github.com/dgnsrekt/storefront_e2e/internal/runlog"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
	"github.com/dgnsrekt/storefront_e2e/internal/session/cdpsession"
	"github.com/dgnsrekt/storefront_e2e/internal/session/wdsession"
	"github.com/dgnsrekt/storefront_e2e/internal/snapshot"
	"github.com/dgnsrekt/storefront_e2e/internal/steps"
)

const suiteName = "storefront"

type runOptions struct {
	env      string
	logLevel string
	headless bool
	driver   string
	tags     string
	godog    godog.Options
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{
		godog: godog.Options{
			Format:      "pretty",
			Paths:       []string{"features"},
			Concurrency: 1,
			Strict:      true,
		},
	}
	godog.BindCommandLineFlags("godog.", &opts.godog)

	cmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Run the feature files",
		RunE: func(c *cobra.Command, args []string) error {
			return runSuite(c, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.env, "env", "", "target environment from the site config (overrides E2E_ENV)")
	cmd.Flags().StringVar(&opts.logLevel, "log", "", "log level: debug, info, audit, warn, error (overrides E2E_LOG_LEVEL)")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "run the browser headless (overrides E2E_HEADLESS)")
	cmd.Flags().StringVar(&opts.driver, "driver", "", "browser driver: cdp or webdriver (overrides E2E_DRIVER)")
	cmd.Flags().StringVar(&opts.tags, "tags", "", "tag expression selecting scenarios, e.g. @smoke")
	cmd.Flags().AddFlagSet(pflag.CommandLine)
	return cmd
}

func applyOverrides(c *cobra.Command, opts *runOptions, cfg *config.Config) error {
	if opts.env != "" {
		cfg.Env = opts.env
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if c.Flags().Changed("headless") {
		cfg.Headless = opts.headless
	}
	if opts.driver != "" {
		cfg.Driver = opts.driver
	}
	return cfg.Validate()
}

// reportFormat writes pretty output to the console plus cucumber JSON and
// JUnit files under the report directory.
func reportFormat(reportDir string) (string, error) {
	jsonPath := filepath.Join(reportDir, "json", "run.json")
	junitPath := filepath.Join(reportDir, "junit", "report.xml")
	for _, p := range []string{jsonPath, junitPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", fmt.Errorf("create report dir: %w", err)
		}
	}
	return fmt.Sprintf("pretty,cucumber:%s,junit:%s", jsonPath, junitPath), nil
}

// sequential pins godog to one scenario at a time: every scenario drives
// the same browser session.
func sequential(o *godog.Options) error {
	if o.Concurrency > 1 {
		return fmt.Errorf("--godog.concurrency=%d is not supported: scenarios share one browser session", o.Concurrency)
	}
	o.Concurrency = 1
	return nil
}

func runSuite(c *cobra.Command, opts *runOptions, args []string) error {
	if err := sequential(&opts.godog); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyOverrides(c, opts, cfg); err != nil {
		return err
	}

	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}
	defer closer.Close()

	runID := uuid.NewString()
	slog.Info("e2e config loaded",
		"run_id", runID,
		"env", cfg.Env,
		"driver", cfg.Driver,
		"headless", cfg.Headless,
		"cdp_url", cfg.CDPURL(),
		"webdriver_url", cfg.WebDriverURL,
		"mail_delay", cfg.MailDelay,
		"step_timeout", cfg.StepTimeout,
		"report_dir", cfg.ReportDir,
		"log_level", cfg.LogLevel,
	)

	site, err := config.LoadSite(cfg.SiteConfigPath)
	if err != nil {
		return err
	}
	baseURL, err := site.BaseURL(cfg.Env)
	if err != nil {
		return err
	}
	data, err := config.LoadTestData(cfg.TestDataPath)
	if err != nil {
		return err
	}
	creds, err := gmail.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, cleanup, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	snapStore, err := snapshot.NewStore(cfg.SnapshotDir)
	if err != nil {
		return fmt.Errorf("create snapshot store: %w", err)
	}
	runLog := runlog.NewWriter(filepath.Join(cfg.ReportDir, "runs"), runID, 256, 25)
	defer func() {
		if err := runLog.Close(); err != nil {
			slog.Warn("run log close failed", "error", err)
		}
	}()

	suite := steps.NewSuite(suiteName, steps.Deps{
		Env:          cfg.Env,
		BaseURL:      baseURL,
		Session:      sess,
		Data:         data,
		Credentials:  creds,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Snapshots:    snapStore,
		RunLog:       runLog,
		RunID:        runID,
		Timings:      pages.DefaultTimings(),
		MailDelay:    cfg.MailDelay,
		OTPSettle:    cfg.OTPSettle,
		WaitTimeout:  cfg.WaitTimeout,
		StepTimeout:  cfg.StepTimeout,
		PollInterval: browser.DefaultPollInterval,
		DownloadDir:  cfg.DownloadDir,
	})

	godogOpts := opts.godog
	godogOpts.DefaultContext = ctx
	godogOpts.Output = colors.Colored(os.Stdout)
	if len(args) > 0 {
		godogOpts.Paths = args
	}
	if opts.tags != "" {
		godogOpts.Tags = opts.tags
	}
	if !c.Flags().Changed("godog.format") {
		format, err := reportFormat(cfg.ReportDir)
		if err != nil {
			return err
		}
		godogOpts.Format = format
	}

	status := godog.TestSuite{
		Name:                 suiteName,
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &godogOpts,
	}.Run()

	notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := notify.SendSummary(notifyCtx, nil, cfg.NotifyURL, suite.Summary()); err != nil {
		slog.Warn("run summary notification failed", "error", err)
	}

	if status != 0 {
		return exitError{code: status}
	}
	return nil
}

// openSession connects the configured driver. The cleanup closes the
// session and stops a browser this process launched.
func openSession(ctx context.Context, cfg *config.Config) (session.Session, func(), error) {
	switch cfg.Driver {
	case config.DriverWebDriver:
		var args []string
		if cfg.Headless {
			args = browser.HeadlessArgs
		}
		sess, err := wdsession.Open(wdsession.Config{
			URL:         cfg.WebDriverURL,
			BrowserName: cfg.WebDriverName,
			ChromeArgs:  args,
			DownloadDir: cfg.DownloadDir,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open webdriver session: %w", err)
		}
		return sess, func() { closeSession(sess) }, nil

	default:
		var launcher *browser.Launcher
		if cfg.LaunchBrowser {
			launcher = browser.NewLauncher(browser.LaunchConfig{
				CDPAddress:  cfg.CDPAddress,
				CDPPort:     cfg.CDPPort,
				ProfileDir:  cfg.ProfileDir,
				DownloadDir: cfg.DownloadDir,
				Headless:    cfg.Headless,
			})
			if err := launcher.Launch(ctx); err != nil {
				return nil, nil, err
			}
		}
		sess, err := cdpsession.Connect(ctx, cfg.CDPURL())
		if err != nil {
			if launcher != nil {
				launcher.Stop()
			}
			return nil, nil, err
		}
		return sess, func() {
			closeSession(sess)
			if launcher != nil {
				launcher.Stop()
			}
		}, nil
	}
}

func closeSession(sess session.Session) {
	if err := sess.Close(); err != nil {
		slog.Debug("session close failed", "error", err)
	}
}
