package api

import "time"

// Config holds server configuration.
type Config struct {
	Addr            string        // Listen address, e.g. ":8750"
	Version         string        // Reported by / and /healthz
	AllowedOrigins  []string      // CORS allowed origins (empty = allow all)
	ShutdownTimeout time.Duration // Drain window for in-flight requests on shutdown
}

// ServerConfig is the active server configuration.
var ServerConfig Config
