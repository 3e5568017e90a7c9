package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration
type Config struct {
	LogLevel     string             `yaml:"log_level"`
	Backend      BackendConfig      `yaml:"backend"`
	Race         RaceConfig         `yaml:"race"`
	Server       ServerConfig       `yaml:"server"`
	Monitor      MonitorConfig      `yaml:"monitor"`
	NATS         NATSConfig         `yaml:"nats"`
	Commissioner CommissionerConfig `yaml:"commissioner"`
}

// BackendConfig selects the backend deployment and tunes the wake cycle
type BackendConfig struct {
	Profile        clients.BackendProfile            `yaml:"profile"`
	URLs           map[clients.BackendProfile]string `yaml:"urls"`
	RequestTimeout time.Duration                     `yaml:"request_timeout"`
	WakeDelay      time.Duration                     `yaml:"wake_delay"`
	ProbeTimeout   time.Duration                     `yaml:"probe_timeout"`
	StaticCacheTTL time.Duration                     `yaml:"static_cache_ttl"`
	WakeOnStart    bool                              `yaml:"wake_on_start"`
}

// RaceConfig tunes the draft order race
type RaceConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval"`
	AnimationDuration time.Duration `yaml:"animation_duration"`
	JitterInterval    time.Duration `yaml:"jitter_interval"`
	FrameInterval     time.Duration `yaml:"frame_interval"`
	Contestants       int           `yaml:"contestants"`
}

// ServerConfig holds the view server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// MonitorConfig holds the sweep intervals of the backend monitor
type MonitorConfig struct {
	WatchInterval time.Duration `yaml:"watch_interval"`
	DraftInterval time.Duration `yaml:"draft_interval"`
	RequestGap    time.Duration `yaml:"request_gap"`
	Timeout       time.Duration `yaml:"timeout"`
}

// NATSConfig enables publishing race events. An empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream_name"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// CommissionerConfig gates the admin actions
type CommissionerConfig struct {
	PIN string `yaml:"pin"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		LogLevel: "info",
		Backend: BackendConfig{
			Profile:        clients.BackendProfileProduction,
			URLs:           map[clients.BackendProfile]string{},
			RequestTimeout: clients.DefaultRequestTimeout,
			WakeDelay:      clients.DefaultWakeDelay,
			ProbeTimeout:   clients.DefaultProbeTimeout,
			StaticCacheTTL: 5 * time.Minute,
			WakeOnStart:    true,
		},
		Race: RaceConfig{
			PollInterval:      time.Second,
			AnimationDuration: 4 * time.Second,
			JitterInterval:    2 * time.Second,
			FrameInterval:     250 * time.Millisecond,
			Contestants:       10,
		},
		Server: ServerConfig{
			Port: "8090",
		},
		Monitor: MonitorConfig{
			WatchInterval: 5 * time.Minute,
			DraftInterval: 2 * time.Minute,
			RequestGap:    500 * time.Millisecond,
			Timeout:       30 * time.Second,
		},
		NATS: NATSConfig{
			StreamName:    "DRAFT_RACE_EVENTS",
			SubjectPrefix: "draftrace.events",
		},
	}
}

// Load reads .env, then the YAML file at path (missing file is fine), then
// environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Backend.Profile = clients.BackendProfile(getEnv("R2R_BACKEND_PROFILE", string(c.Backend.Profile)))
	if url := os.Getenv("R2R_BACKEND_URL"); url != "" {
		if c.Backend.URLs == nil {
			c.Backend.URLs = map[clients.BackendProfile]string{}
		}
		c.Backend.URLs[c.Backend.Profile] = url
	}
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Commissioner.PIN = getEnv("R2R_COMMISSIONER_PIN", c.Commissioner.PIN)
	c.Race.Contestants = getEnvAsInt("R2R_RACE_CONTESTANTS", c.Race.Contestants)

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"R2R_REQUEST_TIMEOUT", &c.Backend.RequestTimeout},
		{"R2R_WAKE_DELAY", &c.Backend.WakeDelay},
		{"R2R_PROBE_TIMEOUT", &c.Backend.ProbeTimeout},
		{"R2R_STATIC_CACHE_TTL", &c.Backend.StaticCacheTTL},
		{"R2R_POLL_INTERVAL", &c.Race.PollInterval},
		{"R2R_RACE_DURATION", &c.Race.AnimationDuration},
		{"R2R_JITTER_INTERVAL", &c.Race.JitterInterval},
		{"R2R_MONITOR_WATCH_INTERVAL", &c.Monitor.WatchInterval},
		{"R2R_MONITOR_DRAFT_INTERVAL", &c.Monitor.DraftInterval},
		{"R2R_MONITOR_REQUEST_GAP", &c.Monitor.RequestGap},
		{"R2R_MONITOR_TIMEOUT", &c.Monitor.Timeout},
	}
	for _, d := range durations {
		if *d.dst, err = getEnvAsDuration(d.key, *d.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects configurations the race cannot run with
func (c *Config) Validate() error {
	if !clients.ValidateBackendProfile(c.Backend.Profile) {
		return fmt.Errorf("unknown backend profile %q", c.Backend.Profile)
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend.request_timeout must be positive")
	}
	if c.Backend.ProbeTimeout <= 0 {
		return fmt.Errorf("backend.probe_timeout must be positive")
	}
	if c.Backend.WakeDelay < 0 {
		return fmt.Errorf("backend.wake_delay must not be negative")
	}
	if c.Monitor.Timeout <= 0 {
		return fmt.Errorf("monitor.timeout must be positive")
	}
	if c.Race.PollInterval <= 0 {
		return fmt.Errorf("race.poll_interval must be positive")
	}
	if c.Race.AnimationDuration <= 0 {
		return fmt.Errorf("race.animation_duration must be positive")
	}
	if c.Race.Contestants <= 0 {
		return fmt.Errorf("race.contestants must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// BackendProfile resolves the active backend deployment
func (c *Config) BackendProfile() (clients.BackendProfileConfig, error) {
	return clients.ResolveBackend(c.Backend.Profile, c.Backend.URLs)
}

// ClientOptions returns the fetch client options derived from the config
func (c *Config) ClientOptions() []clients.Option {
	return []clients.Option{
		clients.WithTimeout(c.Backend.RequestTimeout),
		clients.WithWakeDelay(c.Backend.WakeDelay),
		clients.WithProbeTimeout(c.Backend.ProbeTimeout),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
