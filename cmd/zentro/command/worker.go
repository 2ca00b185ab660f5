package command

import (
	"context"
	"fmt"

	"github.com/nzcve71300/zentro-zones/internal/driver"
	"github.com/nzcve71300/zentro-zones/internal/messaging"
	"github.com/nzcve71300/zentro-zones/internal/zones"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Open the store first: the registry is rebuilt from it before any
	// scheduler loop runs.
	store, err := cfg.Storage.BuildStore()
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	manager := zones.NewManager(store, zones.WithPublisher(nats))

	fallback, err := cfg.Zones.Defaults()
	if err != nil {
		return nil, fmt.Errorf("resolving zone defaults: %w", err)
	}

	for i, sc := range cfg.Servers {
		client, err := sc.BuildClient()
		if err != nil {
			return nil, fmt.Errorf("creating client for server %d: %w", i, err)
		}
		if err := manager.AddServer(context.Background(), sc.ID, client, fallback); err != nil {
			return nil, fmt.Errorf("registering server %q: %w", sc.ID, err)
		}
	}

	refreshEvery, err := cfg.refreshInterval()
	if err != nil {
		return nil, fmt.Errorf("parsing refresh_interval: %w", err)
	}
	cleanupEvery, err := cfg.cleanupInterval()
	if err != nil {
		return nil, fmt.Errorf("parsing cleanup_interval: %w", err)
	}

	return service.WorkerList{
		"nats":     nats,
		"requests": messaging.NewRequestHandler(nats, manager),
		"refresh": driver.New("refresh", driver.ManagerFunc(manager.Refresh),
			driver.WithInterval(refreshEvery)),
		"cleanup": driver.New("cleanup", driver.ManagerFunc(manager.Cleanup),
			driver.WithInterval(cleanupEvery)),
	}, nil
}
