package builder

import (
	"fmt"

	"github.com/futig/rag-console/internal/config"
	"github.com/futig/rag-console/internal/console"
	"github.com/futig/rag-console/internal/pkg/logger"
	pkghttp "github.com/futig/rag-console/pkg/http"
)

// ConsoleConnector connects console commands to the API server configured in the environment.
func ConsoleConnector() console.Connector {
	return func(env, client string, notifier pkghttp.Notifier) (console.API, error) {
		cfg, err := config.LoadConsoleConfig(env)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}

		log, err := logger.NewConsole(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("setup logger: %w", err)
		}

		if client == "" {
			client = cfg.Client
		}

		api, err := NewAPIClient(cfg, client, notifier, log)
		if err != nil {
			return nil, err
		}
		return api, nil
	}
}
