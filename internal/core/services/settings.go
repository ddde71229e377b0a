package services

import (
	"fmt"
	"time"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService is the typed, validated view over a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the effective settings. Invalid stored values fall back to defaults.
func (s *SettingsService) Get() domain.AppSettings {
	d := domain.DefaultAppSettings()

	backend := domain.StorageBackend(s.configStore.GetString(domain.KeyStorageBackend))
	if !backend.IsValid() {
		backend = d.Storage.Backend
	}

	return domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend: backend,
			DataDir: s.configStore.GetString(domain.KeyStorageDataDir),
		},
		Address: domain.ServiceSettings{
			URL:     s.getString(domain.KeyAddressURL, d.Address.URL),
			Timeout: s.getMillis(domain.KeyAddressTimeout, d.Address.Timeout),
		},
		Events: domain.ServiceSettings{
			URL:     s.getString(domain.KeyEventsURL, d.Events.URL),
			Timeout: s.getMillis(domain.KeyEventsTimeout, d.Events.Timeout),
		},
		Extract: domain.ExtractSettings{
			Lenient:        s.configStore.GetBool(domain.KeyExtractLenient),
			ExtraBlacklist: s.configStore.GetStringSlice(domain.KeyExtraBlacklist),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(domain.KeyServerAddr, d.Server.Addr),
		},
	}
}

// Value returns the effective value of one key.
func (s *SettingsService) Value(key string) (driving.SettingEntry, error) {
	def, ok := domain.LookupSetting(key)
	if !ok {
		return driving.SettingEntry{}, fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
	return s.entry(def), nil
}

// Set validates raw against the key's type and persists it.
func (s *SettingsService) Set(key, raw string) error {
	def, ok := domain.LookupSetting(key)
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
	v, err := def.Parse(raw)
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// List returns every known key in display order.
func (s *SettingsService) List() []driving.SettingEntry {
	out := make([]driving.SettingEntry, 0, len(domain.SettingDefs))
	for _, def := range domain.SettingDefs {
		out = append(out, s.entry(def))
	}
	return out
}

func (s *SettingsService) entry(def domain.SettingDef) driving.SettingEntry {
	v, ok := s.configStore.Get(def.Key)
	if !ok {
		v = def.Default
	}
	return driving.SettingEntry{
		Key:         def.Key,
		Value:       def.Format(v),
		IsDefault:   !ok,
		Description: def.Description,
	}
}

// getString treats a key that is present but empty as set: an empty service
// URL disables that service.
func (s *SettingsService) getString(key, defaultVal string) string {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	ms := s.configStore.GetInt(key)
	if ms <= 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}
