package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"voucherchain/core/host"
)

const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

type Config struct {
	DataDir        string `toml:"DataDir"`
	Backend        string `toml:"Backend"`
	GenesisFile    string `toml:"GenesisFile"`
	GatewayAddress string `toml:"GatewayAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	IndexerPath    string `toml:"IndexerPath"`
	Environment    string `toml:"Environment"`
	LogFile        string `toml:"LogFile"`
	OTLPEndpoint   string `toml:"OTLPEndpoint"`
	OTLPInsecure   bool   `toml:"OTLPInsecure"`
	OTLPHeaders    string `toml:"OTLPHeaders,omitempty"`
	OTLPMetrics    bool   `toml:"OTLPMetrics"`

	// Lifetimes in ledgers. Zero selects the host default.
	InstanceTTL   uint32 `toml:"InstanceTTL"`
	PersistentTTL uint32 `toml:"PersistentTTL"`
	TTLThreshold  uint32 `toml:"TTLThreshold"`

	Gateway Gateway `toml:"gateway"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written when no file exists.
func Default() *Config {
	hostDefaults := host.DefaultConfig()
	return &Config{
		DataDir:        "./voucher-data",
		Backend:        BackendLevelDB,
		GenesisFile:    "",
		GatewayAddress: ":8080",
		MetricsAddress: ":9090",
		IndexerPath:    "",
		Environment:    "dev",
		InstanceTTL:    hostDefaults.InstanceTTL,
		PersistentTTL:  hostDefaults.PersistentMinTTL,
		TTLThreshold:   hostDefaults.InstanceThreshold,
		Gateway:        DefaultGateway(),
	}
}

// Host converts the lifetime knobs into the host configuration.
func (c *Config) Host() host.Config {
	return host.Config{
		InstanceTTL:       c.InstanceTTL,
		InstanceThreshold: c.TTLThreshold,
		PersistentMinTTL:  c.PersistentTTL,
	}
}

// DatabasePath returns the on-disk location of the selected backend.
func (c *Config) DatabasePath() string {
	switch c.Backend {
	case BackendBolt:
		return filepath.Join(c.DataDir, "state.bolt")
	case BackendLevelDB:
		return filepath.Join(c.DataDir, "state")
	default:
		return ""
	}
}

func (c *Config) applyDefaults() {
	defaults := Default()
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaults.DataDir
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = defaults.Environment
	}
	if c.InstanceTTL == 0 {
		c.InstanceTTL = defaults.InstanceTTL
	}
	if c.PersistentTTL == 0 {
		c.PersistentTTL = defaults.PersistentTTL
	}
	if c.TTLThreshold == 0 {
		c.TTLThreshold = defaults.TTLThreshold
	}
	c.Gateway.applyDefaults()
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
