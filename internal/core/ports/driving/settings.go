package driving

import "github.com/wbattistetti/AILawyer-sub000/internal/core/domain"

// SettingEntry is one configuration key with its effective value.
type SettingEntry struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	IsDefault   bool   `json:"is_default"`
	Description string `json:"description"`
}

// SettingsService reads and writes the configuration file.
type SettingsService interface {
	// Get returns the effective settings, defaults included.
	Get() domain.AppSettings

	// Value returns the effective value of one key.
	Value(key string) (SettingEntry, error)

	// Set parses raw according to the key's type and persists it.
	Set(key, raw string) error

	// List returns every known key in display order.
	List() []SettingEntry
}
