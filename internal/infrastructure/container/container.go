// Package container provides dependency injection for the application.
package container

import (
	"log/slog"

	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/application/services"
	"github.com/bicep-tools/modrestore/internal/infrastructure/cache"
	"github.com/bicep-tools/modrestore/internal/infrastructure/config"
	"github.com/bicep-tools/modrestore/internal/infrastructure/filesystem"
	"github.com/bicep-tools/modrestore/internal/infrastructure/registry"
)

// Container holds all application dependencies, wired once at startup.
type Container struct {
	runtimeConfig   *config.RuntimeConfig
	moduleCache     ports.ModuleCache
	artifactManager *services.ArtifactManager
	registrySet     *services.RegistrySet
	dispatcher      *services.ModuleDispatcher
	scheduler       *services.ModuleRestoreScheduler
	logger          *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger     *slog.Logger
	ConfigPath string
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	runtimeConfig, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	moduleCache, err := cache.NewFSModuleCache(runtimeConfig.CacheRoot)
	if err != nil {
		return nil, err
	}

	credential := registry.NewEnvTokenCredential("")
	clientFactory := registry.NewContainerRegistryClientFactory()

	artifactManager := services.NewArtifactManager(clientFactory, moduleCache, credential, opts.Logger)

	fileResolver := filesystem.NewLocalFileResolver()
	localRegistry := services.NewLocalRegistry(fileResolver)
	ociRegistry := services.NewOciRegistry(artifactManager, moduleCache)
	registrySet := services.NewRegistrySet(localRegistry, ociRegistry)

	dispatcher := services.NewModuleDispatcher(registrySet, runtimeConfig.RegistryEnabled, opts.Logger)
	scheduler := services.NewModuleRestoreScheduler(dispatcher, opts.Logger)

	return &Container{
		runtimeConfig:   runtimeConfig,
		moduleCache:     moduleCache,
		artifactManager: artifactManager,
		registrySet:     registrySet,
		dispatcher:      dispatcher,
		scheduler:       scheduler,
		logger:          opts.Logger,
	}, nil
}

// RuntimeConfig returns the engine's loaded configuration.
func (c *Container) RuntimeConfig() *config.RuntimeConfig {
	return c.runtimeConfig
}

// ModuleCache returns the content-addressed module cache.
func (c *Container) ModuleCache() ports.ModuleCache {
	return c.moduleCache
}

// ArtifactManager returns the OCI pull/push orchestrator.
func (c *Container) ArtifactManager() *services.ArtifactManager {
	return c.artifactManager
}

// Dispatcher returns the batch restore dispatcher used by one-shot CLI
// commands.
func (c *Container) Dispatcher() *services.ModuleDispatcher {
	return c.dispatcher
}

// Scheduler returns the long-running restore scheduler used by editor
// integrations that enqueue restores as documents change; one-shot CLI
// commands use Dispatcher directly instead.
func (c *Container) Scheduler() *services.ModuleRestoreScheduler {
	return c.scheduler
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
