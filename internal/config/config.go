package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type StoreConfig struct {
	Path          string `yaml:"path"`
	Table         string `yaml:"table"` // translations or session_transcripts
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type WatcherConfig struct {
	Enabled        bool `yaml:"enabled"`
	PollIntervalMS int  `yaml:"poll_interval_ms"`
}

type SpeechConfig struct {
	Style         string  `yaml:"style"` // neutral, breathy, dramatic, natural
	Mode          string  `yaml:"mode"`  // sentence or paragraph
	MarkerEvery   int     `yaml:"marker_every"`
	Damping       float64 `yaml:"damping"`
	DelayCapMS    int     `yaml:"delay_cap_ms"`
	JitterMS      int     `yaml:"jitter_ms"`
	MarkerDelayMS int     `yaml:"marker_delay_ms"`
}

type VoiceConfig struct {
	SessionID string `yaml:"session_id"`
	Mode      string `yaml:"mode"` // nats or mock
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Store       StoreConfig     `yaml:"store"`
	Watcher     WatcherConfig   `yaml:"watcher"`
	Speech      SpeechConfig    `yaml:"speech"`
	Voice       VoiceConfig     `yaml:"voice"`
}

func Default() Config {
	return Config{
		RuntimeName: "orbit-bridge",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Store: StoreConfig{
			Path:  "./data/orbit-source.db",
			Table: "translations",
		},
		Watcher: WatcherConfig{
			Enabled:        true,
			PollIntervalMS: 5000,
		},
		Speech: SpeechConfig{
			Style:         "natural",
			Mode:          "paragraph",
			MarkerEvery:   3,
			Damping:       0.6,
			DelayCapMS:    8000,
			JitterMS:      250,
			MarkerDelayMS: 600,
		},
		Voice: VoiceConfig{
			SessionID: "orbit-session-1",
			Mode:      "nats",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "ORBIT_RUNTIME_NAME")
	overrideString(&cfg.Environment, "ORBIT_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "ORBIT_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "ORBIT_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "ORBIT_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "ORBIT_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "ORBIT_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "ORBIT_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "ORBIT_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "ORBIT_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "ORBIT_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "ORBIT_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "ORBIT_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "ORBIT_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "ORBIT_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Store.Path, "ORBIT_STORE_PATH")
	overrideString(&cfg.Store.Table, "ORBIT_STORE_TABLE")
	overrideBool(&cfg.Store.VacuumOnStart, "ORBIT_STORE_VACUUM_ON_START")
	overrideBool(&cfg.Watcher.Enabled, "ORBIT_WATCHER_ENABLED")
	overrideInt(&cfg.Watcher.PollIntervalMS, "ORBIT_WATCHER_POLL_INTERVAL_MS")
	overrideString(&cfg.Speech.Style, "ORBIT_SPEECH_STYLE")
	overrideString(&cfg.Speech.Mode, "ORBIT_SPEECH_MODE")
	overrideInt(&cfg.Speech.MarkerEvery, "ORBIT_SPEECH_MARKER_EVERY")
	overrideFloat(&cfg.Speech.Damping, "ORBIT_SPEECH_DAMPING")
	overrideInt(&cfg.Speech.DelayCapMS, "ORBIT_SPEECH_DELAY_CAP_MS")
	overrideInt(&cfg.Speech.JitterMS, "ORBIT_SPEECH_JITTER_MS")
	overrideInt(&cfg.Speech.MarkerDelayMS, "ORBIT_SPEECH_MARKER_DELAY_MS")
	overrideString(&cfg.Voice.SessionID, "ORBIT_VOICE_SESSION_ID")
	overrideString(&cfg.Voice.Mode, "ORBIT_VOICE_MODE")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}
	switch cfg.Store.Table {
	case "translations", "session_transcripts":
		// ok
	default:
		return errors.New("store.table must be one of translations|session_transcripts")
	}
	if cfg.Watcher.Enabled && cfg.Watcher.PollIntervalMS <= 0 {
		return errors.New("watcher.poll_interval_ms must be positive when the watcher is enabled")
	}
	switch cfg.Speech.Style {
	case "neutral", "breathy", "dramatic", "natural":
		// ok
	default:
		return errors.New("speech.style must be one of neutral|breathy|dramatic|natural")
	}
	switch cfg.Speech.Mode {
	case "sentence", "paragraph":
		// ok
	default:
		return errors.New("speech.mode must be one of sentence|paragraph")
	}
	if cfg.Speech.MarkerEvery < 0 {
		return errors.New("speech.marker_every must be >= 0")
	}
	if cfg.Speech.Damping <= 0 || cfg.Speech.Damping > 1 {
		return errors.New("speech.damping must be in (0, 1]")
	}
	if cfg.Speech.DelayCapMS <= 0 {
		return errors.New("speech.delay_cap_ms must be positive")
	}
	if cfg.Speech.JitterMS < 0 {
		return errors.New("speech.jitter_ms must be >= 0")
	}
	if cfg.Speech.MarkerDelayMS < 0 {
		return errors.New("speech.marker_delay_ms must be >= 0")
	}
	switch cfg.Voice.Mode {
	case "nats", "mock":
		// ok
	default:
		return errors.New("voice.mode must be one of nats|mock")
	}
	if cfg.Voice.SessionID == "" {
		return errors.New("voice.session_id must not be empty")
	}
	return nil
}
