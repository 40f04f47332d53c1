package cli

import (
	"fmt"

	"github.com/mapgrab/mapgrab/internal/api"
	"github.com/mapgrab/mapgrab/internal/config"
	"github.com/mapgrab/mapgrab/internal/constants"
	"github.com/mapgrab/mapgrab/internal/controller"
	"github.com/mapgrab/mapgrab/internal/events"
	"github.com/mapgrab/mapgrab/internal/notify"
)

// loadConfig resolves the effective configuration: file, then environment,
// then command-line flags.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	cfg.MergeWithFlags(serverURL, pollSeconds)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getAPIClient loads configuration and creates an API client.
// This is the standard way to get an API client in CLI commands.
func getAPIClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return client, nil
}

// newController builds a controller with its event bus and notifier, wired
// to the effective configuration. The bus is returned so commands can
// subscribe before anything starts publishing.
func newController() (*controller.Controller, *events.Bus, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}

	bus := events.NewBus(constants.EventBusDefaultBuffer)
	notifier := notify.NewNotifier(notify.DefaultConfig(), GetLogger(), bus)
	if noNotify {
		notifier.SetEnabled(false)
	}

	ctrlCfg := controller.DefaultConfig()
	ctrlCfg.PollInterval = cfg.PollInterval()
	ctrlCfg.Backoff.Base = cfg.PollInterval()

	ctrl := controller.New(client, bus, notifier, GetLogger(), ctrlCfg)
	return ctrl, bus, cfg, nil
}
