// Package config loads runtime settings for the realtime client.
//
// Settings come from environment variables, optionally seeded from a
// .env file in the working directory. Every knob has a sensible
// default so a bare environment still produces a usable configuration.
//
// Usage:
//
//	cfg := config.Load()
//	mgr := socket.NewManager(cfg.Socket(), transport, br)
package config
