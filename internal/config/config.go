package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	Metrics      bool   `yaml:"metrics"`
}

type HTTPConfig struct {
	Bind           string   `yaml:"bind"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RequestTimeout int      `yaml:"request_timeout_ms"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	LLM         LLMConfig       `yaml:"llm"`
	Speech      SpeechConfig    `yaml:"speech"`
	Session     SessionConfig   `yaml:"session"`
	Client      ClientConfig    `yaml:"client"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type LLMConfig struct {
	Mode        string  `yaml:"mode"` // mock, openai, ollama, exec
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Command     string  `yaml:"command"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMS   int     `yaml:"timeout_ms"`
}

type SpeechConfig struct {
	Mode     string `yaml:"mode"` // auto, exec, none
	Command  string `yaml:"command"`
	Language string `yaml:"language"`
	Interim  bool   `yaml:"interim"`
}

type SessionConfig struct {
	AutoAdvanceMS int `yaml:"auto_advance_ms"`
}

type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	TimeoutMS int    `yaml:"timeout_ms"`
	LogFile   string `yaml:"log_file"`
}

func Default() Config {
	return Config{
		RuntimeName: "loqa-interview",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind:           "0.0.0.0",
			Port:           3000,
			AllowedOrigins: []string{"http://localhost:3000"},
			RequestTimeout: 60000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
			Metrics:      true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		LLM: LLMConfig{
			Mode:        "openai",
			Endpoint:    "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			MaxTokens:   1024,
			Temperature: 0.1,
			TimeoutMS:   30000,
		},
		Speech: SpeechConfig{
			Mode:     "auto",
			Language: "en-US",
			Interim:  true,
		},
		Session: SessionConfig{
			AutoAdvanceMS: 10000,
		},
		Client: ClientConfig{
			ServerURL: "http://localhost:3000",
			TimeoutMS: 60000,
			LogFile:   "interview.log",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file next to the working directory and the environment.
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

	if err := loadDotEnv(); err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotEnv reads .env when present. Variables already set in the process
// environment win.
func loadDotEnv() error {
	path := os.Getenv("INTERVIEW_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "INTERVIEW_RUNTIME_NAME")
	overrideString(&cfg.Environment, "INTERVIEW_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "INTERVIEW_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "INTERVIEW_HTTP_PORT")
	overrideStringSlice(&cfg.HTTP.AllowedOrigins, "INTERVIEW_HTTP_ALLOWED_ORIGINS")
	overrideInt(&cfg.HTTP.RequestTimeout, "INTERVIEW_HTTP_REQUEST_TIMEOUT_MS")
	overrideString(&cfg.Telemetry.LogLevel, "INTERVIEW_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "INTERVIEW_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "INTERVIEW_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Telemetry.Metrics, "INTERVIEW_TELEMETRY_METRICS")
	overrideBool(&cfg.Bus.Enabled, "INTERVIEW_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "INTERVIEW_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "INTERVIEW_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "INTERVIEW_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "INTERVIEW_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "INTERVIEW_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "INTERVIEW_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "INTERVIEW_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "INTERVIEW_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "INTERVIEW_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.LLM.Mode, "INTERVIEW_LLM_MODE")
	overrideString(&cfg.LLM.Endpoint, "INTERVIEW_LLM_ENDPOINT")
	overrideString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.LLM.APIKey, "GROQ_API_KEY")
	overrideString(&cfg.LLM.APIKey, "INTERVIEW_LLM_API_KEY")
	overrideString(&cfg.LLM.Command, "INTERVIEW_LLM_COMMAND")
	overrideString(&cfg.LLM.Model, "INTERVIEW_LLM_MODEL")
	overrideInt(&cfg.LLM.MaxTokens, "INTERVIEW_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "INTERVIEW_LLM_TEMPERATURE")
	overrideInt(&cfg.LLM.TimeoutMS, "INTERVIEW_LLM_TIMEOUT_MS")
	overrideString(&cfg.Speech.Mode, "INTERVIEW_SPEECH_MODE")
	overrideString(&cfg.Speech.Command, "INTERVIEW_SPEECH_COMMAND")
	overrideString(&cfg.Speech.Language, "INTERVIEW_SPEECH_LANGUAGE")
	overrideBool(&cfg.Speech.Interim, "INTERVIEW_SPEECH_INTERIM")
	overrideInt(&cfg.Session.AutoAdvanceMS, "INTERVIEW_SESSION_AUTO_ADVANCE_MS")
	overrideString(&cfg.Client.ServerURL, "INTERVIEW_CLIENT_SERVER_URL")
	overrideInt(&cfg.Client.TimeoutMS, "INTERVIEW_CLIENT_TIMEOUT_MS")
	overrideString(&cfg.Client.LogFile, "INTERVIEW_CLIENT_LOG_FILE")
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

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
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
	if cfg.HTTP.RequestTimeout < 0 {
		return errors.New("http.request_timeout_ms must be >= 0")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.LLM.Mode {
	case "mock", "openai", "ollama", "exec":
	default:
		return errors.New("llm.mode must be one of mock|openai|ollama|exec")
	}
	if (cfg.LLM.Mode == "openai" || cfg.LLM.Mode == "ollama") && cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint must be set when mode=%s", cfg.LLM.Mode)
	}
	if cfg.LLM.Mode == "exec" && cfg.LLM.Command == "" {
		return errors.New("llm.command must be set when mode=exec")
	}
	if cfg.LLM.Mode != "mock" && cfg.LLM.Model == "" {
		return errors.New("llm.model must not be empty")
	}
	if cfg.LLM.MaxTokens < 0 {
		return errors.New("llm.max_tokens must be >= 0")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.TimeoutMS <= 0 {
		return errors.New("llm.timeout_ms must be positive")
	}
	switch cfg.Speech.Mode {
	case "auto", "exec", "none":
	default:
		return errors.New("speech.mode must be one of auto|exec|none")
	}
	if cfg.Speech.Mode == "exec" && cfg.Speech.Command == "" {
		return errors.New("speech.command must be set when mode=exec")
	}
	if cfg.Speech.Language == "" {
		return errors.New("speech.language must not be empty")
	}
	if cfg.Session.AutoAdvanceMS <= 0 {
		return errors.New("session.auto_advance_ms must be positive")
	}
	if cfg.Client.ServerURL == "" {
		return errors.New("client.server_url must not be empty")
	}
	return nil
}
