// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the signaling server reads at boot. Field
// names and env var names mirror the original filecoffee service so an
// operator migrating a deployment doesn't have to relearn the knobs.
type Config struct {
	// Server
	Port           int
	AllowedOrigins []string

	// Room
	RoomTTL         time.Duration
	RoomMaxPeers    int
	SlugMaxAttempts int

	// WebSocket
	WSHeartbeatInterval time.Duration
	WSHeartbeatTimeout  time.Duration
	WSMaxMessageSize    int64

	// TURN
	TURNURL           string
	TURNSecret        string
	TURNRealm         string
	TURNCredentialTTL time.Duration

	// Rate limiting
	RateLimitRPM int

	// Ambient
	LogLevel     string
	MetricsRoute string
}

// FromEnv loads configuration from the process environment, applying the
// defaults in SPEC_FULL.md §6.
func FromEnv() Config {
	return Config{
		Port:           getenvInt("PORT", 3030),
		AllowedOrigins: splitCSV(getenv("ALLOWED_ORIGINS", "*")),

		RoomTTL:         time.Duration(getenvInt("ROOM_TTL_SECONDS", 3600)) * time.Second,
		RoomMaxPeers:    getenvInt("ROOM_MAX_PEERS", 2),
		SlugMaxAttempts: getenvInt("SLUG_MAX_ATTEMPTS", 5),

		WSHeartbeatInterval: time.Duration(getenvInt("WS_HEARTBEAT_INTERVAL_SECS", 30)) * time.Second,
		WSHeartbeatTimeout:  time.Duration(getenvInt("WS_HEARTBEAT_TIMEOUT_SECS", 10)) * time.Second,
		WSMaxMessageSize:    int64(getenvInt("WS_MAX_MESSAGE_SIZE", 64*1024)),

		TURNURL:           getenv("TURN_URL", ""),
		TURNSecret:        getenv("TURN_SECRET", ""),
		TURNRealm:         getenv("TURN_REALM", "localhost"),
		TURNCredentialTTL: time.Duration(getenvInt("TURN_CREDENTIAL_TTL_SECS", 7200)) * time.Second,

		RateLimitRPM: getenvInt("RATE_LIMIT_RPM", 10),

		LogLevel:     getenv("LOG_LEVEL", "info"),
		MetricsRoute: getenv("METRICS_ROUTE", "/metrics"),
	}
}

// BindAddr returns the address main should listen on.
func (c Config) BindAddr() string { return fmt.Sprintf(":%d", c.Port) }

// TURNConfigured reports whether ephemeral TURN credentials can be issued.
func (c Config) TURNConfigured() bool { return c.TURNURL != "" && c.TURNSecret != "" }

// Validate rejects configurations that would make the process unusable.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.WSMaxMessageSize <= 1024 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE too small: %d", c.WSMaxMessageSize)
	}
	if c.WSHeartbeatInterval <= 0 {
		return fmt.Errorf("WS_HEARTBEAT_INTERVAL_SECS must be > 0")
	}
	if c.WSHeartbeatTimeout <= 0 {
		return fmt.Errorf("WS_HEARTBEAT_TIMEOUT_SECS must be > 0")
	}
	if c.RoomMaxPeers <= 0 {
		return fmt.Errorf("ROOM_MAX_PEERS must be > 0")
	}
	if c.SlugMaxAttempts <= 0 {
		return fmt.Errorf("SLUG_MAX_ATTEMPTS must be > 0")
	}
	if (c.TURNURL == "") != (c.TURNSecret == "") {
		return fmt.Errorf("both TURN_URL and TURN_SECRET must be set, or neither")
	}
	return nil
}

func splitCSV(v string) []string {
	if v == "" || v == "*" {
		return []string{"*"}
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
