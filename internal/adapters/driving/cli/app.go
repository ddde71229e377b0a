package cli

import (
	"fmt"
	"sync"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/address"
	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/config/file"
	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/events"
	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/export/xlsx"
	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/storage/memory"
	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/storage/sqlite"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/services"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
	"github.com/wbattistetti/AILawyer-sub000/internal/scanner"
)

// AppOptions are the global flags that shape the service graph.
type AppOptions struct {
	// ConfigDir overrides ~/.ailawyer.
	ConfigDir string

	// DataDir overrides the configured index directory.
	DataDir string

	// Memory forces the in-memory index.
	Memory bool
}

// App wires adapters to services. The index is opened on first use so that
// commands such as config and version never touch the data directory.
type App struct {
	settings *services.SettingsService
	opts     AppOptions

	mu    sync.Mutex
	index driven.EntityIndex
	store *sqlite.Store
}

// NewApp loads the configuration. If the configuration directory cannot be
// used the defaults apply for this run.
func NewApp(opts AppOptions) *App {
	var cfg driven.ConfigStore
	fileCfg, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		logger.Warn("configuration unavailable, using defaults: %v", err)
		cfg = memory.NewConfigStore(nil)
	} else {
		cfg = fileCfg
	}
	return &App{settings: services.NewSettingsService(cfg), opts: opts}
}

// newAppWithIndex builds an App around an existing config store and index.
func newAppWithIndex(cfg driven.ConfigStore, index driven.EntityIndex) *App {
	return &App{settings: services.NewSettingsService(cfg), index: index}
}

// Settings returns the settings service.
func (a *App) Settings() *services.SettingsService {
	return a.settings
}

// Index opens the configured entity index.
func (a *App) Index() (driven.EntityIndex, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.index != nil {
		return a.index, nil
	}

	s := a.settings.Get()
	if a.opts.Memory || s.Storage.Backend == domain.StorageMemory {
		logger.Debug("Using in-memory entity index")
		a.index = memory.NewEntityIndex()
		return a.index, nil
	}

	dir := a.opts.DataDir
	if dir == "" {
		dir = s.Storage.DataDir
	}
	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	logger.Debug("Using entity index at %s", store.Path())
	a.store = store
	a.index = store.EntityIndex()
	return a.index, nil
}

// Entities returns the entity service over the index.
func (a *App) Entities() (*services.EntityService, error) {
	index, err := a.Index()
	if err != nil {
		return nil, err
	}
	return services.NewEntityService(index), nil
}

// Exports returns the xlsx export service.
func (a *App) Exports() (*services.ExportService, error) {
	index, err := a.Index()
	if err != nil {
		return nil, err
	}
	return services.NewExportService(index, xlsx.New()), nil
}

// Extraction builds an extraction service. Enrichment clients are created
// only for configured services; withAddress false skips address enrichment.
func (a *App) Extraction(withAddress bool) (*services.ExtractionService, error) {
	index, err := a.Index()
	if err != nil {
		return nil, err
	}
	s := a.settings.Get()
	sc := scanner.New(scanner.Config{ExtraBlacklist: s.Extract.ExtraBlacklist})

	var addr driven.AddressNormaliser
	if withAddress && s.Address.URL != "" {
		addr = address.NewClient(address.Config{BaseURL: s.Address.URL, Timeout: s.Address.Timeout})
	}
	var ev driven.EventExtractor
	if s.Events.URL != "" {
		ev = events.NewClient(events.Config{BaseURL: s.Events.URL, Timeout: s.Events.Timeout})
	}
	return services.NewExtractionService(index, sc, addr, ev), nil
}

// Close releases the index.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.index = nil, nil
	if err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	return nil
}
