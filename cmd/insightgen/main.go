// Command insightgen is the InsightGen client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/custodia-labs/insightgen-cli/internal/adapters/driven/api"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/services"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.ExecuteContext(ctx)
	stop()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap wires the adapters and core services for one invocation.
func bootstrap(opts cli.Options) (*cli.Services, error) {
	store := openConfigStore(opts.ConfigDir)
	settingsService := services.NewSettingsService(store)

	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("stored settings are invalid, using defaults: %v", err)
		defaults := domain.DefaultClientSettings()
		settings = &defaults
	}
	if u := strings.TrimSpace(opts.APIURL); u != "" {
		settings.APIURL = strings.TrimRight(u, "/")
	}

	if err := logger.SetFile(settings.LogFile); err != nil {
		logger.Warn("log file disabled: %v", err)
	}

	client, err := api.NewClient(api.Config{
		BaseURL:           settings.APIURL,
		Timeout:           settings.APITimeout,
		RequestsPerSecond: settings.RequestsPerSecond,
		UserAgent:         "insightgen-cli/" + version,
	})
	if err != nil {
		return nil, err
	}

	sessions := services.NewSessionManager(client)
	intake := services.NewFileIntake()
	inspection := services.NewInspectionService(client, sessions, intake)

	return &cli.Services{
		Sessions:   sessions,
		Intake:     intake,
		Inspection: inspection,
		Catalog:    services.NewGeneratorCatalog(client, sessions),
		Jobs: services.NewJobOrchestrator(client, sessions, intake, inspection,
			services.OrchestratorConfig{JobTimeout: settings.JobTimeout}),
		Settings: settingsService,
		Status:   services.NewStatusService(client, client.BaseURL()),
	}, nil
}

// openConfigStore returns the TOML store, or an in-memory one when the
// config directory is unusable.
func openConfigStore(dir string) driven.ConfigStore {
	store, err := file.NewConfigStore(dir)
	if err != nil {
		logger.Warn("config unavailable, settings will not be saved: %v", err)
		return memory.NewConfigStore()
	}
	return store
}
