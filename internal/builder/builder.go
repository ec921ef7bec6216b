package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/rag-console/internal/api"
	chatapi "github.com/futig/rag-console/internal/api/chat"
	databaseapi "github.com/futig/rag-console/internal/api/database"
	"github.com/futig/rag-console/internal/api/probe"
	promptapi "github.com/futig/rag-console/internal/api/prompt"
	settingsapi "github.com/futig/rag-console/internal/api/settings"
	"github.com/futig/rag-console/internal/config"
	"github.com/futig/rag-console/internal/integration/llm"
	"github.com/futig/rag-console/internal/pkg/logger"
	"github.com/futig/rag-console/internal/pkg/validator"
	"github.com/futig/rag-console/internal/repository"
	"github.com/futig/rag-console/internal/telegram"
	"github.com/futig/rag-console/internal/telegram/handlers"
	"github.com/futig/rag-console/internal/usecase/chat"
	"github.com/futig/rag-console/internal/usecase/database"
	"github.com/futig/rag-console/internal/usecase/prompt"
	"github.com/futig/rag-console/internal/usecase/settings"
	pkghttp "github.com/futig/rag-console/pkg/http"
	"go.uber.org/zap"
)

type languageModel interface {
	chat.LLMConnector
	database.Embedder
}

// Build assembles the API server from the environment.
func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	db, err := setupDatabase(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	log.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully")

	settingsRepo := repository.NewSettingsPostgres(db)
	promptRepo := repository.NewPromptPostgres(db)
	databaseRepo := repository.NewDatabasePostgres(db)
	vectorStores := repository.NewVectorStorePostgres()

	var model languageModel
	if cfg.EnableMocks {
		log.Info("Using mock language model")
		model = llm.NewMockConnector(log)
	} else {
		log.Info("Using OpenAI-compatible language model",
			zap.String("base_url", cfg.LLMCfg.BaseURL),
			zap.String("chat_model", cfg.LLMCfg.ChatModel),
		)
		model = llm.NewConnector(cfg.LLMCfg, log)
	}

	settingsUC := settings.NewUsecase(settingsRepo)
	promptUC := prompt.NewUsecase(promptRepo)
	databaseUC := database.NewUsecase(databaseRepo, vectorStores, model)
	chatUC := chat.NewUsecase(model, settingsUC, promptUC, databaseUC, cfg.HistoryTTL)

	if err := settingsUC.EnsureDefault(ctx); err != nil {
		vectorStores.Close()
		db.Close()
		return nil, fmt.Errorf("seed default settings: %w", err)
	}
	if err := databaseUC.EnsureDefault(ctx, cfg.DatabaseURL); err != nil {
		vectorStores.Close()
		db.Close()
		return nil, fmt.Errorf("seed default database: %w", err)
	}
	log.Info("Use cases initialized")

	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)

	router := api.SetupRouter(api.Handlers{
		Probe:    probe.NewHandler(db),
		Settings: settingsapi.NewHandler(settingsUC),
		Prompt:   promptapi.NewHandler(promptUC),
		Chat:     chatapi.NewHandler(chatUC),
		Database: databaseapi.NewHandler(databaseUC, fileValidator),
	}, cfg.APIServerKey, log)
	log.Info("HTTP router configured")

	// No WriteTimeout: chat streams stay open for as long as the model writes.
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("Application built successfully", zap.String("environment", cfg.Environment))

	return &App{
		server:  server,
		db:      db,
		closers: []func(){vectorStores.Close},
		logger:  log,
	}, nil
}

// NewAPIClient builds an API client for one client id from the console configuration.
func NewAPIClient(cfg *config.ConsoleConfig, clientID string, notifier pkghttp.Notifier, log *zap.Logger) (*pkghttp.Client, error) {
	baseURL, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}

	retryCfg := cfg.Retry
	transport := cfg.Transport
	return pkghttp.NewClient(&pkghttp.ClientConfig{
		Session: pkghttp.Session{
			BaseURL:  baseURL,
			Token:    cfg.APIServerKey,
			ClientID: clientID,
		},
		Logger:   log,
		Notifier: notifier,
		Retry:    &retryCfg,
	},
		pkghttp.WithResponseHeaderTimeout(cfg.Timeout),
		pkghttp.WithConnClientTimeout(transport.DialTimeout),
		pkghttp.WithClientKeepAlive(transport.KeepAlive),
		pkghttp.WithTLSHandshakeTimeout(transport.TLSHandshakeTimeout),
		pkghttp.WithIdleConnTimeout(transport.IdleConnTimeout),
		pkghttp.WithMaxIdleConns(transport.MaxIdleConns),
		pkghttp.WithMaxIdleConnsPerHost(transport.MaxIdleConnsPerHost),
		pkghttp.WithInsecureSkipVerify(transport.InsecureSkipVerify),
	)
}

// BuildTelegramBot creates the Telegram chat frontend
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	cfg, err := config.LoadBotConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building Telegram bot", zap.String("environment", cfg.Environment))

	clients := func(clientID string, notifier pkghttp.Notifier) (handlers.APIClient, error) {
		client, err := NewAPIClient(&cfg.ConsoleConfig, clientID, notifier, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	bot, err := telegram.NewBot(cfg, clients, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	log.Info("Telegram bot built successfully")
	return bot, log, nil
}
