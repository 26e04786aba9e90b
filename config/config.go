package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/buslinehq/realtime/socket"
)

// Config holds every runtime setting for the realtime client.
type Config struct {
	ServerURL string
	UserID    string
	Token     string

	ReconnectAttempts     int
	ReconnectDelay        time.Duration
	ServerDisconnectDelay time.Duration
	HeartbeatInterval     time.Duration
	DialTimeout           time.Duration

	// StatePath is where notification read/deleted state is persisted.
	StatePath string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func Load() Config {
	// Ignore the error: a missing .env file is the common case.
	_ = godotenv.Load()

	return Config{
		ServerURL: getEnvOrDefault("REALTIME_SERVER_URL", "ws://localhost:3001/socket"),
		UserID:    getEnvOrDefault("REALTIME_USER_ID", ""),
		Token:     getEnvOrDefault("REALTIME_TOKEN", ""),

		ReconnectAttempts:     getIntOrDefault("REALTIME_RECONNECT_ATTEMPTS", 3),
		ReconnectDelay:        getDurationOrDefault("REALTIME_RECONNECT_DELAY", 2*time.Second),
		ServerDisconnectDelay: getDurationOrDefault("REALTIME_SERVER_DISCONNECT_DELAY", 3*time.Second),
		HeartbeatInterval:     getDurationOrDefault("REALTIME_HEARTBEAT_INTERVAL", 60*time.Second),
		DialTimeout:           getDurationOrDefault("REALTIME_DIAL_TIMEOUT", 20*time.Second),

		StatePath: getEnvOrDefault("REALTIME_STATE_PATH", "state/notifications.json"),
	}
}

// Socket maps the loaded settings onto a connection manager config.
func (c Config) Socket() socket.Config {
	return socket.Config{
		ServerURL: c.ServerURL,
		Credentials: socket.Credentials{
			UserID: c.UserID,
			Token:  c.Token,
		},
		ReconnectAttempts:     c.ReconnectAttempts,
		ReconnectDelay:        c.ReconnectDelay,
		ServerDisconnectDelay: c.ServerDisconnectDelay,
		HeartbeatInterval:     c.HeartbeatInterval,
		DialTimeout:           c.DialTimeout,
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
