package config

import (
	"fmt"
	"strings"
)

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendLevelDB, BackendBolt:
	default:
		return fmt.Errorf("backend: unsupported value %q", c.Backend)
	}
	if c.Backend != BackendMemory && strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir: required for %s backend", c.Backend)
	}
	if c.InstanceTTL == 0 || c.PersistentTTL == 0 {
		return fmt.Errorf("ttl: lifetimes must be positive")
	}
	if c.TTLThreshold > c.InstanceTTL {
		return fmt.Errorf("ttl: threshold %d exceeds instance ttl %d", c.TTLThreshold, c.InstanceTTL)
	}
	if c.OTLPMetrics && strings.TrimSpace(c.OTLPEndpoint) == "" {
		return fmt.Errorf("otlp: metrics export requires an endpoint")
	}
	if c.Gateway.RequestsPerSecond < 0 {
		return fmt.Errorf("gateway: requests_per_second < 0")
	}
	if c.Gateway.Burst < 1 {
		return fmt.Errorf("gateway: burst must be positive")
	}
	if c.Gateway.MaxClients < 1 {
		return fmt.Errorf("gateway: max_clients must be positive")
	}
	if c.Gateway.EventPageLimit < 1 {
		return fmt.Errorf("gateway: event_page_limit must be positive")
	}
	return nil
}
