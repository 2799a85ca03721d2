package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	accountssvc "github.com/nekoko-ai/platform/internal/app/services/accounts"
	apikeyssvc "github.com/nekoko-ai/platform/internal/app/services/apikeys"
	auditlogsvc "github.com/nekoko-ai/platform/internal/app/services/auditlog"
	catalogsvc "github.com/nekoko-ai/platform/internal/app/services/catalog"
	generationsvc "github.com/nekoko-ai/platform/internal/app/services/generation"
	ledgersvc "github.com/nekoko-ai/platform/internal/app/services/ledger"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/app/storage/memory"
	"github.com/nekoko-ai/platform/internal/app/system"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Accounts storage.AccountStore
	Catalog  storage.CatalogStore
	APIKeys  storage.APIKeyStore
	CallLogs storage.CallLogStore
	Settings storage.SettingsStore
}

// Config carries application-level policy.
type Config struct {
	// GenerationDefaultPrice is charged for models without a configured
	// price. Zero disables the fallback.
	GenerationDefaultPrice float64
	// ProviderClient performs upstream generation calls. Nil uses a
	// default client with a 60s timeout.
	ProviderClient *http.Client
	// StatsInterval controls how often call-log aggregates are published
	// as metrics. Zero uses the collector default.
	StatsInterval time.Duration
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Accounts   *accountssvc.Service
	Catalog    *catalogsvc.Service
	APIKeys    *apikeyssvc.Service
	Ledger     *ledgersvc.Service
	AuditLog   *auditlogsvc.Service
	Generation *generationsvc.Service
	Settings   storage.SettingsStore
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, cfg Config, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Accounts == nil {
		stores.Accounts = mem
	}
	if stores.Catalog == nil {
		stores.Catalog = mem
	}
	if stores.APIKeys == nil {
		stores.APIKeys = mem
	}
	if stores.CallLogs == nil {
		stores.CallLogs = mem
	}
	if stores.Settings == nil {
		stores.Settings = mem
	}

	manager := system.NewManager()

	acctService := accountssvc.New(stores.Accounts, stores.Settings, log)
	catalogService := catalogsvc.New(stores.Catalog, log)
	keyService := apikeyssvc.New(stores.APIKeys, stores.Accounts, log)
	ledgerService := ledgersvc.New(stores.Accounts, log)
	auditService := auditlogsvc.New(stores.CallLogs, log)

	generator := generationsvc.NewHTTPGenerator(cfg.ProviderClient, log)
	genService := generationsvc.New(stores.Accounts, stores.Catalog, stores.CallLogs,
		ledgerService, generator, generationsvc.Config{DefaultPricePerCall: cfg.GenerationDefaultPrice}, log)
	genService.AttachUsageRecorder(keyService)

	for _, name := range []string{"accounts", "catalog", "apikeys", "ledger", "generation"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	collector := auditlogsvc.NewStatsCollector(auditService, cfg.StatsInterval, log)
	if err := manager.Register(collector); err != nil {
		return nil, fmt.Errorf("register %s: %w", collector.Name(), err)
	}

	return &Application{
		manager:    manager,
		log:        log,
		Accounts:   acctService,
		Catalog:    catalogService,
		APIKeys:    keyService,
		Ledger:     ledgerService,
		AuditLog:   auditService,
		Generation: genService,
		Settings:   stores.Settings,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
