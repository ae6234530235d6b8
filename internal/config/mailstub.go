package config

import (
	"strings"

	"github.com/dgnsrekt/storefront_e2e/internal/netutil"
)

// MailStubConfig holds configuration for the local mail provider stub.
type MailStubConfig struct {
	BindAddr         string
	PortAutoFallback bool
	PortCandidates   []string
	LogLevel         string
	LogFile          string
	ClientID         string
	ClientSecret     string
	RefreshToken     string
	AccessToken      string
}

// LoadMailStub reads mail stub configuration from environment variables.
// Without MAILSTUB_PORT_CANDIDATES the next five ports after BindAddr are
// tried when the preferred address is taken.
func LoadMailStub() (*MailStubConfig, error) {
	cfg := &MailStubConfig{
		BindAddr:         getEnvOrDefault("MAILSTUB_BIND_ADDR", "127.0.0.1:8290"),
		PortAutoFallback: getEnvBoolOrDefault("MAILSTUB_PORT_AUTO_FALLBACK", true),
		PortCandidates:   splitList(getEnvOrDefault("MAILSTUB_PORT_CANDIDATES", "")),
		LogLevel:         strings.ToLower(getEnvOrDefault("MAILSTUB_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("MAILSTUB_LOG_FILE", "logs/mailstub.log"),
		ClientID:         getEnvOrDefault("MAILSTUB_CLIENT_ID", "stub-client"),
		ClientSecret:     getEnvOrDefault("MAILSTUB_CLIENT_SECRET", "stub-secret"),
		RefreshToken:     getEnvOrDefault("MAILSTUB_REFRESH_TOKEN", "stub-refresh"),
		AccessToken:      getEnvOrDefault("MAILSTUB_ACCESS_TOKEN", "stub-access-token"),
	}
	if len(cfg.PortCandidates) == 0 {
		next, err := netutil.NextPorts(cfg.BindAddr, 5)
		if err != nil {
			return nil, err
		}
		cfg.PortCandidates = next
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
