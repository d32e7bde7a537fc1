package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/mokiat/gog"
	"github.com/prashantdagar001/automation-api/config"
	"github.com/prashantdagar001/automation-api/dispatch"
	"github.com/prashantdagar001/automation-api/embedding"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/extract"
	"github.com/prashantdagar001/automation-api/functions"
	"github.com/prashantdagar001/automation-api/index"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"github.com/prashantdagar001/automation-api/internal/tracing"
	"github.com/prashantdagar001/automation-api/registry"
	"github.com/prashantdagar001/automation-api/server"
	"github.com/prashantdagar001/automation-api/session"
	"github.com/spf13/cobra"
)

func newCmd() *cobra.Command {
	var modulesFile string

	cmd := &cobra.Command{
		Use:   "automation-api",
		Short: "Start the automation function API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			serverConf, err := config.NewServerConfig()
			if err != nil {
				return err
			}
			logger := mylog.NewLogger(serverConf.LogLevel, serverConf.LogHandler)

			embedConf, err := config.NewEmbeddingConfig()
			if err != nil {
				return err
			}
			sessionConf, err := config.NewSessionConfig()
			if err != nil {
				return err
			}
			dispatchConf, err := config.NewDispatchConfig()
			if err != nil {
				return err
			}

			provider, err := newEmbeddingProvider(embedConf)
			if err != nil {
				return err
			}

			idx, err := newIndex(embedConf, provider)
			if err != nil {
				return err
			}
			defer func() {
				if err := idx.Close(); err != nil {
					logger.Warn("failed to close index", "err", err)
				}
			}()

			sessions, err := session.NewManager(sessionConf, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := sessions.Close(); err != nil {
					logger.Warn("failed to close session store", "err", err)
				}
			}()

			manifest, err := loadManifest(modulesFile)
			if err != nil {
				return err
			}

			resolve, moduleNames, err := buildResolver(ctx, manifest, logger)
			if err != nil {
				return err
			}

			reg := registry.NewService(logger, idx, resolve)
			summaries, err := reg.RegisterModules(ctx, moduleNames)
			if err != nil && len(summaries) == 0 {
				return errors.Wrapf(err, "failed to register any module")
			}
			logger.Info("registry initialized", "modules", len(summaries), "functions", reg.Status().Count)

			extractor, err := newExtractor(dispatchConf)
			if err != nil {
				return err
			}

			tracer, tracerProvider := tracing.NewTracer(logger, serverConf.LogLevel == "debug")
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					logger.Warn("failed to shut down tracer", "err", err)
				}
			}()

			dispatcher := dispatch.NewService(logger, dispatchConf, reg, idx, sessions, extractor, tracer)
			srv := server.New(logger, serverConf, dispatcher, reg, sessions, sessionConf)

			go session.RunSweeper(ctx, sessions, sessionConf, logger)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("failed to shut down server", "err", err)
				}
			}()

			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&modulesFile, "modules", "modules.yaml", "module manifest file")

	return cmd
}

func newEmbeddingProvider(conf *config.EmbeddingConfig) (embedding.Provider, error) {
	switch conf.Provider {
	case "", "openai":
		if conf.OpenAIApiKey == "" {
			return nil, errors.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
		return embedding.NewOpenAIProvider(conf.OpenAIApiKey), nil
	case "nomic":
		if conf.NomicApiKey == "" {
			return nil, errors.Errorf("NOMIC_API_KEY is required for the nomic embedding provider")
		}
		return embedding.NewNomicProvider(conf.NomicApiKey, embedding.TaskTypeDocument), nil
	default:
		return nil, errors.Errorf("unknown embedding provider %q", conf.Provider)
	}
}

// newExtractor builds the LLM parameter extractor from the configured
// provider/model pair, nil when LLM extraction is disabled.
func newExtractor(conf *config.DispatchConfig) (extract.LLMExtractor, error) {
	if conf.ExtractionModel == "" {
		return nil, nil
	}

	providerName, model, ok := strings.Cut(conf.ExtractionModel, "/")
	if !ok {
		return nil, errors.Errorf("extraction model %q must be <provider>/<model>", conf.ExtractionModel)
	}

	switch providerName {
	case "openai":
		openaiConf, err := config.NewOpenAIConfig()
		if err != nil {
			return nil, err
		}
		if openaiConf.OpenAIApiKey == "" {
			return nil, errors.Errorf("OPENAI_API_KEY is required for openai extraction")
		}
		return extract.NewOpenAIExtractor(openaiConf.OpenAIApiKey, model), nil
	case "anthropic":
		anthropicConf, err := config.NewAnthropicConfig()
		if err != nil {
			return nil, err
		}
		if anthropicConf.AnthropicApiKey == "" {
			return nil, errors.Errorf("ANTHROPIC_API_KEY is required for anthropic extraction")
		}
		return extract.NewAnthropicExtractor(anthropicConf.AnthropicApiKey, model), nil
	default:
		return nil, errors.Errorf("unknown extraction provider %q", providerName)
	}
}

func newIndex(conf *config.EmbeddingConfig, provider embedding.Provider) (index.Index, error) {
	if conf.SqlitePath != "" {
		return index.NewSqliteIndex(conf.SqlitePath, provider)
	}
	return index.NewInMemoryIndex(provider), nil
}

// loadManifest reads the module manifest. A missing file with the default
// name is not an error; every builtin module registers in that case.
func loadManifest(file string) (*config.ModulesConfig, error) {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return &config.ModulesConfig{}, nil
	}
	return config.LoadModulesFromFile(file)
}

// buildResolver layers MCP-backed modules over the builtin set and returns
// the full list of module names to register at startup.
func buildResolver(ctx context.Context, manifest *config.ModulesConfig, logger *mylog.Logger) (registry.ModuleResolver, []string, error) {
	mcpModules := make(map[string]registry.Module, len(manifest.MCPServers))
	for name, serverConf := range manifest.MCPServers {
		module, err := registry.NewMCPModule(ctx, name, serverConf, logger)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to connect mcp server %q", name)
		}
		mcpModules[name] = module
	}

	resolve := func(name string) (registry.Module, bool) {
		if module, ok := functions.Lookup(name); ok {
			return module, true
		}
		module, ok := mcpModules[name]
		return module, ok
	}

	names := manifest.Modules
	if len(names) == 0 {
		names = gog.Map(functions.Builtins(), func(module registry.Module) string {
			return module.Name()
		})
	}
	for name := range mcpModules {
		names = append(names, name)
	}

	return resolve, names, nil
}
