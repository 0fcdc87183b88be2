package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envOverrides holds values that may override the YAML config from the
// environment. Variables are prefixed with TENVOY_, e.g. TENVOY_LLM_API_KEY.
// Secrets in particular belong here rather than in the config file.
type envOverrides struct {
	LogLevel           string `envconfig:"LOG_LEVEL"`
	OCIProfile         string `envconfig:"OCI_PROFILE"`
	LLMProvider        string `envconfig:"LLM_PROVIDER"`
	LLMModel           string `envconfig:"LLM_MODEL"`
	LLMEndpoint        string `envconfig:"LLM_ENDPOINT"`
	LLMCompartment     string `envconfig:"LLM_COMPARTMENT_OCID"`
	LLMAPIKey          string `envconfig:"LLM_API_KEY"`
	SnapshotPostgreDSN string `envconfig:"SNAPSHOT_POSTGRES_DSN"`
}

// Load reads the YAML configuration file at path, applies environment
// overrides, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// environment overrides, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays TENVOY_-prefixed environment variables onto cfg.
func applyEnv(cfg *Config) error {
	var ov envOverrides
	if err := envconfig.Process("tenvoy", &ov); err != nil {
		return fmt.Errorf("config: read environment: %w", err)
	}

	if ov.LogLevel != "" {
		cfg.LogLevel = LogLevel(ov.LogLevel)
	}
	if ov.OCIProfile != "" {
		cfg.OCI.Profile = ov.OCIProfile
	}
	if ov.LLMProvider != "" {
		cfg.LLM.Provider = ov.LLMProvider
	}
	if ov.LLMModel != "" {
		cfg.LLM.Model = ov.LLMModel
	}
	if ov.LLMEndpoint != "" {
		cfg.LLM.Endpoint = ov.LLMEndpoint
	}
	if ov.LLMCompartment != "" {
		cfg.LLM.CompartmentOCID = ov.LLMCompartment
	}
	if ov.LLMAPIKey != "" {
		cfg.LLM.APIKey = ov.LLMAPIKey
	}
	if ov.SnapshotPostgreDSN != "" {
		cfg.Snapshot.PostgresDSN = ov.SnapshotPostgreDSN
	}
	return nil
}

// applyDefaults fills unset fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.OCI.ConfigFile == "" {
		cfg.OCI.ConfigFile = "~/.oci/config"
	}
	if cfg.OCI.Profile == "" {
		cfg.OCI.Profile = "DEFAULT"
	}
	if cfg.Tools.TimeoutSeconds == 0 {
		cfg.Tools.TimeoutSeconds = 600
	}
	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = SnapshotMemory
	}
	if cfg.Snapshot.TTLMinutes == 0 {
		cfg.Snapshot.TTLMinutes = 30
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.LLM.Provider == "" {
		errs = append(errs, errors.New("llm.provider must be set"))
	}
	if cfg.LLM.Provider == "ocigenai" {
		if cfg.LLM.Model == "" {
			errs = append(errs, errors.New("llm.model must be set for the ocigenai provider"))
		}
		if cfg.LLM.CompartmentOCID == "" {
			errs = append(errs, errors.New("llm.compartment_ocid must be set for the ocigenai provider"))
		}
	}

	if cfg.Tools.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("tools.timeout_seconds must not be negative, got %d", cfg.Tools.TimeoutSeconds))
	}

	if !cfg.Snapshot.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("snapshot.backend %q is invalid; valid values: memory, postgres", cfg.Snapshot.Backend))
	}
	if cfg.Snapshot.Backend == SnapshotPostgres && cfg.Snapshot.PostgresDSN == "" {
		errs = append(errs, errors.New("snapshot.postgres_dsn must be set for the postgres backend"))
	}
	if cfg.Snapshot.TTLMinutes < 0 {
		errs = append(errs, fmt.Errorf("snapshot.ttl_minutes must not be negative, got %d", cfg.Snapshot.TTLMinutes))
	}

	return errors.Join(errs...)
}
