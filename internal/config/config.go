// Package config provides the configuration schema, loader, and LLM provider
// registry for the Tenvoy tenancy assistant.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SnapshotBackend selects where warmed tool results are stored.
type SnapshotBackend string

const (
	// SnapshotMemory keeps snapshots in process memory. They do not survive
	// a restart; use it for single-shot sessions.
	SnapshotMemory SnapshotBackend = "memory"

	// SnapshotPostgres persists snapshots in PostgreSQL so a warm job and
	// the assistant can run as separate processes.
	SnapshotPostgres SnapshotBackend = "postgres"
)

// IsValid reports whether b is a recognised snapshot backend.
func (b SnapshotBackend) IsValid() bool {
	return b == SnapshotMemory || b == SnapshotPostgres
}

// Config is the root configuration structure for Tenvoy. It is typically
// loaded from a YAML file using [Load] or [LoadFromReader], with environment
// overrides applied on top.
type Config struct {
	// LogLevel controls verbosity. Defaults to "info".
	LogLevel LogLevel `yaml:"log_level"`

	OCI      OCIConfig      `yaml:"oci"`
	LLM      LLMConfig      `yaml:"llm"`
	Tools    ToolsConfig    `yaml:"tools"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// OCIConfig selects the OCI credentials used by the tool server.
type OCIConfig struct {
	// ConfigFile is the path to the OCI SDK config file. Defaults to
	// "~/.oci/config".
	ConfigFile string `yaml:"config_file"`

	// Profile is the profile name within the config file. Defaults to
	// "DEFAULT".
	Profile string `yaml:"profile"`
}

// LLMConfig selects and configures the LLM backend used for routing and
// answer composition.
type LLMConfig struct {
	// Provider selects the registered provider implementation, e.g.
	// "ocigenai", "openai", or an any-llm backend like "ollama".
	Provider string `yaml:"provider"`

	// Model is the model identifier. For ocigenai this is the model OCID.
	Model string `yaml:"model"`

	// Endpoint overrides the provider's default API endpoint. Required for
	// ocigenai, where the inference endpoint is region-specific.
	Endpoint string `yaml:"endpoint"`

	// CompartmentOCID is the compartment the GenAI requests are billed to.
	// Only used by ocigenai.
	CompartmentOCID string `yaml:"compartment_ocid"`

	// APIKey authenticates against providers that use bearer keys.
	APIKey string `yaml:"api_key"`
}

// ToolsConfig configures how tools are executed.
type ToolsConfig struct {
	// Command is the argv of the tool server subprocess the bridge spawns
	// per call. Defaults to re-invoking this binary's "tools" command.
	Command []string `yaml:"command"`

	// TimeoutSeconds bounds a single tool call. Defaults to 600.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// SnapshotConfig configures the cached-result store.
type SnapshotConfig struct {
	// Backend selects the store implementation. Defaults to "memory".
	Backend SnapshotBackend `yaml:"backend"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`

	// TTLMinutes is how long a snapshot stays usable. Defaults to 30.
	TTLMinutes int `yaml:"ttl_minutes"`
}
