// Command tenvoy is the OCI tenancy assistant: an LLM-routed question
// answerer backed by a line-delimited JSON-RPC tool server over the OCI
// APIs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/spf13/cobra"

	"github.com/tenvoy/tenvoy/internal/assistant"
	"github.com/tenvoy/tenvoy/internal/bridge"
	"github.com/tenvoy/tenvoy/internal/catalog"
	"github.com/tenvoy/tenvoy/internal/config"
	"github.com/tenvoy/tenvoy/internal/mcpserver"
	"github.com/tenvoy/tenvoy/internal/observe"
	"github.com/tenvoy/tenvoy/internal/snapshot"
	"github.com/tenvoy/tenvoy/internal/tenancy"
	"github.com/tenvoy/tenvoy/internal/tenancy/ocicloud"
	"github.com/tenvoy/tenvoy/internal/toolserver"
	"github.com/tenvoy/tenvoy/pkg/provider/llm"
	"github.com/tenvoy/tenvoy/pkg/provider/llm/anyllm"
	"github.com/tenvoy/tenvoy/pkg/provider/llm/ocigenai"
	"github.com/tenvoy/tenvoy/pkg/provider/llm/openai"
)

// version is injected via ldflags at release build time.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tenvoy: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tenvoy",
		Short:         "OCI tenancy assistant",
		Long:          "Tenvoy answers questions about an OCI tenancy by routing them to live tenancy tools through an LLM.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")

	root.AddCommand(
		newAskCommand(&configPath),
		newToolsCommand(&configPath),
		newMCPCommand(&configPath),
		newWarmCommand(&configPath),
	)
	return root
}

func newAskCommand(configPath *string) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the tenancy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
			if err != nil {
				return err
			}
			defer shutdown(context.Background())

			orch, err := buildOrchestrator(cfg, *configPath)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")

			var answer string
			if cached {
				store, closeStore, err := newSnapshotStore(ctx, cfg)
				if err != nil {
					return err
				}
				defer closeStore()
				ttl := time.Duration(cfg.Snapshot.TTLMinutes) * time.Minute
				answer, err = orch.AnswerFromStore(ctx, question, store, ttl)
				if err != nil {
					return err
				}
			} else {
				answer, err = orch.Answer(ctx, question)
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "prefer snapshots over live tool execution")
	return cmd
}

func newToolsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Run the JSON-RPC tool server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			tools, err := buildTenancyTools(cfg)
			if err != nil {
				return err
			}
			return toolserver.New(tools).Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newMCPCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			tools, err := buildTenancyTools(cfg)
			if err != nil {
				return err
			}
			return mcpserver.Run(ctx, tools, version)
		},
	}
}

func newWarmCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "warm [tool]",
		Short: "Execute tools and store their results as snapshots",
		Long:  "Executes every registered tool, or just the named one, and stores the results as snapshots for `ask --cached`.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			if cfg.Snapshot.Backend == config.SnapshotMemory {
				slog.Warn("warming an in-memory store; snapshots will not outlive this process")
			}

			store, closeStore, err := newSnapshotStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			client, err := newBridge(cfg, *configPath)
			if err != nil {
				return err
			}

			targets := catalog.Tools()
			if len(args) == 1 {
				descriptor, err := catalog.Lookup(args[0])
				if err != nil {
					return err
				}
				targets = []catalog.Descriptor{descriptor}
			}

			for _, tool := range targets {
				slog.Info("warming snapshot", "tool", tool.Name)
				result, err := client.Call(ctx, tool.Name, nil)
				if err != nil {
					return fmt.Errorf("warm %s: %w", tool.Name, err)
				}
				snap := snapshot.Snapshot{Tool: tool.Name, Result: result, TakenAt: time.Now()}
				if err := store.Put(ctx, snap); err != nil {
					return fmt.Errorf("store %s: %w", tool.Name, err)
				}
			}
			slog.Info("snapshots warmed", "count", len(targets))
			return nil
		},
	}
}

// setup loads configuration and installs the default logger.
func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found", configPath)
		}
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.LogLevel))
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ociConfigProvider builds the SDK configuration provider from the config
// file and profile the user selected.
func ociConfigProvider(cfg *config.Config) common.ConfigurationProvider {
	path := cfg.OCI.ConfigFile
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return common.CustomProfileConfigProvider(path, cfg.OCI.Profile)
}

func buildTenancyTools(cfg *config.Config) (*tenancy.Tools, error) {
	return ocicloud.NewTools(ociConfigProvider(cfg))
}

// newBridge builds the subprocess tool client. By default it re-invokes this
// binary's "tools" command with the same config file.
func newBridge(cfg *config.Config, configPath string) (*bridge.Client, error) {
	command := cfg.Tools.Command
	if len(command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve own executable: %w", err)
		}
		command = []string{exe, "tools", "--config", configPath}
	}
	timeout := time.Duration(cfg.Tools.TimeoutSeconds) * time.Second
	return bridge.New(command, bridge.WithTimeout(timeout))
}

func buildOrchestrator(cfg *config.Config, configPath string) (*assistant.Orchestrator, error) {
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	provider, err := reg.CreateLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}

	client, err := newBridge(cfg, configPath)
	if err != nil {
		return nil, err
	}

	router := assistant.NewRouter(provider, nil)
	composer := assistant.NewComposer(provider, nil)
	return assistant.NewOrchestrator(router, composer, client, nil), nil
}

func newSnapshotStore(ctx context.Context, cfg *config.Config) (snapshot.Store, func(), error) {
	switch cfg.Snapshot.Backend {
	case config.SnapshotPostgres:
		store, err := snapshot.NewPostgresStore(ctx, cfg.Snapshot.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return snapshot.NewMemStore(), func() {}, nil
	}
}

// registerBuiltinProviders wires all built-in LLM provider factories into
// reg. The ocigenai provider authenticates with the same OCI profile as the
// tool server.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	reg.RegisterLLM("ocigenai", func(entry config.LLMConfig) (llm.Provider, error) {
		var opts []ocigenai.Option
		if entry.Endpoint != "" {
			opts = append(opts, ocigenai.WithEndpoint(entry.Endpoint))
		}
		return ocigenai.New(ociConfigProvider(cfg), entry.Model, entry.CompartmentOCID, opts...)
	})

	reg.RegisterLLM("openai", func(entry config.LLMConfig) (llm.Provider, error) {
		var opts []openai.Option
		if entry.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(entry.Endpoint))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// Everything any-llm supports shares one pattern: optional APIKey plus
	// optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "ollama",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.LLMConfig) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.Endpoint != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.Endpoint))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}
}
