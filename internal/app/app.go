package app

import (
	"context"
	"fmt"

	"github.com/andy/invoicedesk/internal/config"
	"github.com/andy/invoicedesk/internal/crypto"
	"github.com/andy/invoicedesk/internal/export"
	"github.com/andy/invoicedesk/internal/httpclient"
	"github.com/andy/invoicedesk/internal/logger"
	"github.com/andy/invoicedesk/internal/repository"
	"github.com/andy/invoicedesk/internal/service"
	"github.com/andy/invoicedesk/internal/store"
)

// App is the dependency injection container for all application components
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Keyring crypto.Keyring

	HTTPClient     httpclient.Client
	InvoiceRepo    repository.InvoiceRepository
	InvoiceService service.InvoiceService
	Exporter       *export.Exporter
}

// New loads the default config and wires the application
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg, crypto.NewKeyring())
}

// NewWithConfig creates an App with a provided config and keyring (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config, kr crypto.Keyring) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	// An env token wins; otherwise use the stored one. No token is fine for
	// servers without auth.
	if cfg.API.Token == "" && kr != nil {
		if token, err := kr.GetToken(); err == nil {
			cfg.API.Token = token
		} else {
			log.Debugw("no stored api token", "error", err)
		}
	}

	a := &App{
		Config:  cfg,
		Logger:  log,
		Keyring: kr,
	}
	a.wire()

	log.Infow("invoicedesk started", "base_url", cfg.API.BaseURL, "delete_prefix", cfg.API.DeletePrefix)
	return a, nil
}

// wire (re)builds the remote stack from the current config
func (a *App) wire() {
	cfg := a.Config
	a.HTTPClient = httpclient.NewDefaultClient(httpclient.ClientConfig{
		Timeout:  cfg.API.Timeout,
		RetryMax: cfg.API.RetryMax,
		Token:    cfg.API.Token,
	}, a.Logger)
	a.InvoiceRepo = repository.NewInvoiceRepo(a.HTTPClient, cfg.API.BaseURL, cfg.API.DeletePrefix)
	a.InvoiceService = service.NewInvoiceService(a.InvoiceRepo, a.Logger, cfg.API.PageSize)
	a.Exporter = export.NewExporter(cfg.Export.OutputDir, a.Logger)
}

// NewStore creates a store backed by the invoice service
func (a *App) NewStore() *store.Store {
	return store.New(a.InvoiceService, a.Logger, store.Options{
		PageSize:          a.Config.API.PageSize,
		ResetPageOnFilter: a.Config.UI.ResetPageOnFilter,
	})
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.Logger != nil {
		return a.Logger.Close()
	}
	return nil
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}

// ApplyConfig validates and adopts cfg, rebuilding the HTTP stack so the new
// API settings take effect on the next request.
func (a *App) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.API.Token = a.Config.API.Token
	a.Config = cfg
	a.wire()
	a.Logger.Infow("config applied", "base_url", cfg.API.BaseURL, "delete_prefix", cfg.API.DeletePrefix, "theme", cfg.UI.Theme)
	return nil
}
