package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/config"
	"github.com/dgnsrekt/storefront_e2e/internal/logging"
	"github.com/dgnsrekt/storefront_e2e/internal/mailstub"
	"github.com/dgnsrekt/storefront_e2e/internal/netutil"
)

func main() {
	cfg, err := config.LoadMailStub()
	if err != nil {
		slog.Error("failed to load mail stub config", "error", err)
		os.Exit(1)
	}

	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}
	defer closer.Close()

	slog.Info("mailstub config loaded",
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
		"client_id", cfg.ClientID,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	stub := mailstub.New(mailstub.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
		AccessToken:  cfg.AccessToken,
	})
	srv := &http.Server{Addr: bindAddr, Handler: stub.Handler()}

	go func() {
		slog.Info("mailstub listening",
			"addr", bindAddr,
			"docs", "http://"+bindAddr+"/docs",
			"token_uri", "http://"+bindAddr+mailstub.TokenPath,
			"mail_list_url", "http://"+bindAddr+mailstub.MessagesPath,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mailstub server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("mailstub shutdown failed", "error", err)
	}
}
