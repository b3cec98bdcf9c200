// Command gateway is the CLI for the agricultural query gateway.
//
// Usage:
//
//	gateway serve
//	gateway serve --listen-addr :9090
//	gateway version
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/agriquery/gateway/pkg/auth"
	"github.com/agriquery/gateway/pkg/config"
	"github.com/agriquery/gateway/pkg/formatter"
	"github.com/agriquery/gateway/pkg/logger"
	"github.com/agriquery/gateway/pkg/observability"
	"github.com/agriquery/gateway/pkg/predictors"
	"github.com/agriquery/gateway/pkg/reactagent"
	"github.com/agriquery/gateway/pkg/registry"
	"github.com/agriquery/gateway/pkg/server"
	"github.com/agriquery/gateway/pkg/session"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tools"
	"github.com/agriquery/gateway/pkg/vector"
	"github.com/agriquery/gateway/pkg/weather"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the gateway HTTP server."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("agriquery gateway version %s\n", version)
	return nil
}

// ServeCmd starts the gateway HTTP server.
type ServeCmd struct {
	ListenAddr string `name:"listen-addr" help:"Override the configured HTTP listen address."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.ListenAddr != "" {
		cfg.ListenAddr = c.ListenAddr
	}

	logger.Init(logger.ParseLevel(cfg.LogLevel), os.Stderr, cfg.LogFormat)

	go func() {
		err := config.WatchRegistry(ctx, cfg, func(data []byte) {
			slog.Warn("registry file changed on disk; its contents are not loaded by the gateway",
				"path", cfg.RegistryFile, "bytes", len(data))
		})
		if err != nil && ctx.Err() == nil {
			slog.Warn("registry watcher stopped", "error", err)
		}
	}()

	obsManager, err := observability.NewManager(ctx, &observability.Config{
		Tracing: observability.TracingConfig{
			Enabled:     cfg.TracingEnabled,
			Endpoint:    cfg.TracingEndpoint,
			ServiceName: cfg.ServiceName,
		},
		Metrics: observability.MetricsConfig{
			Enabled:   cfg.MetricsEnabled,
			Namespace: "gateway",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		if err := obsManager.Shutdown(context.Background()); err != nil {
			slog.Warn("observability shutdown failed", "error", err)
		}
	}()

	userStore, err := auth.OpenStore(cfg.UserStoreDSN, cfg.SuperAdminEmail, cfg.SuperAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}

	tokenIssuer, err := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenLifetime)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	authSvc := auth.NewService(userStore, tokenIssuer)

	sessionStore, err := session.OpenStore(cfg.SessionStoreDSN)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer sessionStore.Close()

	var vectorCfg *vector.ProviderConfig
	if cfg.VectorPersistPath != "" {
		vectorCfg = &vector.ProviderConfig{PersistPath: cfg.VectorPersistPath}
	}
	vectorProvider, err := vector.NewProvider(vectorCfg)
	if err != nil {
		return fmt.Errorf("failed to create vector provider: %w", err)
	}

	weatherSvc := weather.NewService(cfg.WeatherEndpoint, cfg.CacheTTL, obsManager.Metrics())

	reg := registry.NewToolRegistry()
	if err := registerTools(reg, vectorProvider, weatherSvc, cfg); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	answerFormatter := formatter.New(reg.Lookup, "generation", "translate")

	agent := reactagent.NewAgent(cfg.MaxAgentIterations, cfg.ToolTimeout, answerFormatter, obsManager.Metrics(), obsManager.Tracer())
	registerExtractors(agent)

	srv := server.New(server.Deps{
		Config:    cfg,
		Registry:  reg,
		Agent:     agent,
		Formatter: answerFormatter,
		Auth:      authSvc,
		Issuer:    tokenIssuer,
		Sessions:  sessionStore,
		Weather:   weatherSvc,
		Metrics:   obsManager.Metrics(),
		Tracer:    obsManager.Tracer(),
	})

	fmt.Printf("\nagriquery gateway listening on %s\n", srv.Address())
	fmt.Printf("   health:  http://%s/health\n", srv.Address())
	if obsManager.MetricsEnabled() {
		fmt.Printf("   metrics: http://%s%s\n", srv.Address(), obsManager.MetricsEndpoint())
	}
	fmt.Println("\npress Ctrl+C to stop")

	return srv.Start(ctx)
}

// registerTools builds and registers every tool named in §4.1/§4.7's
// roster: the six structured predictors, retrieval, external search,
// translation, generation, and weather.
func registerTools(reg *registry.ToolRegistry, vectorProvider vector.Provider, weatherSvc *weather.Service, cfg *config.GatewayConfig) error {
	builders := []func() (*tool.Tool, error){
		predictors.NewYieldPredictor,
		predictors.NewPestPredictor,
		predictors.NewMoisturePredictor,
		predictors.NewNutrientsPredictor,
		predictors.NewClimatePredictor,
		predictors.NewFertilityPredictor,
		func() (*tool.Tool, error) { return tools.NewRetrievalTool(vectorProvider) },
		func() (*tool.Tool, error) { return tools.NewExternalSearchTool(cfg.SearchEndpoint) },
		func() (*tool.Tool, error) { return tools.NewTranslationTool(cfg.TranslationEndpoint) },
		func() (*tool.Tool, error) { return tools.NewGenerationTool(cfg.GenerationEndpoint) },
		func() (*tool.Tool, error) { return tools.NewWeatherTool(weatherSvc) },
	}

	for _, build := range builders {
		t, err := build()
		if err != nil {
			return err
		}
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// registerExtractors installs each structured predictor's per-tool
// action-input extractor, per §4.4: PLAN→ACT shapes a tool's input from
// the query (and, for detect_pest, the request's attachment) rather than
// passing the raw query straight through.
func registerExtractors(agent *reactagent.Agent) {
	agent.RegisterExtractor("predict_yield", func(query string, _ []reactagent.Observation, _ *reactagent.Attachment) map[string]any {
		return predictors.ExtractYieldArgs(query)
	})
	agent.RegisterExtractor("predict_soil_moisture", func(query string, _ []reactagent.Observation, _ *reactagent.Attachment) map[string]any {
		return predictors.ExtractMoistureArgs(query)
	})
	agent.RegisterExtractor("recommend_crop_by_nutrients", func(query string, _ []reactagent.Observation, _ *reactagent.Attachment) map[string]any {
		return predictors.ExtractNutrientsArgs(query)
	})
	agent.RegisterExtractor("recommend_crop_by_climate", func(query string, _ []reactagent.Observation, _ *reactagent.Attachment) map[string]any {
		return predictors.ExtractClimateArgs(query)
	})
	agent.RegisterExtractor("predict_soil_fertility", func(query string, _ []reactagent.Observation, _ *reactagent.Attachment) map[string]any {
		return predictors.ExtractFertilityArgs(query)
	})
	agent.RegisterExtractor("detect_pest", func(query string, _ []reactagent.Observation, attachment *reactagent.Attachment) map[string]any {
		if attachment == nil {
			return map[string]any{}
		}
		return predictors.ExtractPestArgs(base64.StdEncoding.EncodeToString(attachment.Data))
	})
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("gateway"),
		kong.Description("Agricultural query gateway"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
