package config

import "time"

// Gateway controls the read-only query API.
type Gateway struct {
	// RequestsPerSecond is the sustained rate granted to each client address.
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
	// MaxClients bounds the number of tracked limiter entries.
	MaxClients   int `toml:"MaxClients"`
	ReadTimeout  int `toml:"ReadTimeoutSeconds"`
	WriteTimeout int `toml:"WriteTimeoutSeconds"`
	// EventPageLimit caps the number of events one request may list.
	EventPageLimit int `toml:"EventPageLimit"`
}

// DefaultGateway returns the gateway limits used when none are configured.
func DefaultGateway() Gateway {
	return Gateway{
		RequestsPerSecond: 20,
		Burst:             40,
		MaxClients:        4096,
		ReadTimeout:       10,
		WriteTimeout:      10,
		EventPageLimit:    500,
	}
}

func (g *Gateway) applyDefaults() {
	defaults := DefaultGateway()
	if g.RequestsPerSecond == 0 {
		g.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if g.Burst == 0 {
		g.Burst = defaults.Burst
	}
	if g.MaxClients == 0 {
		g.MaxClients = defaults.MaxClients
	}
	if g.ReadTimeout == 0 {
		g.ReadTimeout = defaults.ReadTimeout
	}
	if g.WriteTimeout == 0 {
		g.WriteTimeout = defaults.WriteTimeout
	}
	if g.EventPageLimit == 0 {
		g.EventPageLimit = defaults.EventPageLimit
	}
}

// ReadTimeoutDuration returns the HTTP read timeout.
func (g Gateway) ReadTimeoutDuration() time.Duration {
	return time.Duration(g.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the HTTP write timeout.
func (g Gateway) WriteTimeoutDuration() time.Duration {
	return time.Duration(g.WriteTimeout) * time.Second
}
