package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// StorageBackend selects where the entity index lives.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite persists the index under the data directory.
	StorageSQLite StorageBackend = "sqlite"

	// StorageMemory keeps the index for the lifetime of the process.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageMemory
}

// AppSettings is the typed view of the configuration file.
type AppSettings struct {
	Storage StorageSettings
	Address ServiceSettings
	Events  ServiceSettings
	Extract ExtractSettings
	Server  ServerSettings
}

// StorageSettings configures the entity index.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir overrides ~/.ailawyer/data. Empty means the default.
	DataDir string
}

// ServiceSettings configures an external HTTP collaborator.
type ServiceSettings struct {
	URL     string
	Timeout time.Duration
}

// ExtractSettings holds extraction defaults.
type ExtractSettings struct {
	Lenient bool

	// ExtraBlacklist adds words the scanner never accepts as part of a name.
	ExtraBlacklist []string
}

// ServerSettings configures `ailawyer serve`.
type ServerSettings struct {
	Addr string
}

// SettingKind is the value type of a setting.
type SettingKind string

// Setting kinds.
const (
	SettingString SettingKind = "string"
	SettingInt    SettingKind = "int"
	SettingBool   SettingKind = "bool"
	SettingList   SettingKind = "list"
)

// SettingDef describes one configuration key.
type SettingDef struct {
	Key         string
	Kind        SettingKind
	Default     any
	Description string
}

// Setting keys.
const (
	KeyStorageBackend = "storage.backend"
	KeyStorageDataDir = "storage.data_dir"
	KeyAddressURL     = "address.url"
	KeyAddressTimeout = "address.timeout_ms"
	KeyEventsURL      = "events.url"
	KeyEventsTimeout  = "events.timeout_ms"
	KeyExtractLenient = "extract.lenient"
	KeyExtraBlacklist = "scanner.extra_blacklist"
	KeyServerAddr     = "server.addr"
)

const (
	defaultAddressURL     = "http://127.0.0.1:8099"
	defaultEventsURL      = "http://127.0.0.1:8098"
	defaultServerAddr     = "127.0.0.1:8787"
	defaultAddressTimeout = 150
	defaultEventsTimeout  = 800
)

// SettingDefs lists every configuration key in display order.
var SettingDefs = []SettingDef{
	{KeyStorageBackend, SettingString, string(StorageSQLite), "entity index backend: sqlite or memory"},
	{KeyStorageDataDir, SettingString, "", "directory of the sqlite index (default ~/.ailawyer/data)"},
	{KeyAddressURL, SettingString, defaultAddressURL, "address normalisation service; empty disables enrichment"},
	{KeyAddressTimeout, SettingInt, defaultAddressTimeout, "address request timeout in milliseconds"},
	{KeyEventsURL, SettingString, defaultEventsURL, "event extraction service; empty disables events"},
	{KeyEventsTimeout, SettingInt, defaultEventsTimeout, "event request timeout in milliseconds"},
	{KeyExtractLenient, SettingBool, false, "enable the lenient rule for every document"},
	{KeyExtraBlacklist, SettingList, []string{}, "comma separated words never accepted in a name"},
	{KeyServerAddr, SettingString, defaultServerAddr, "listen address of ailawyer serve"},
}

// LookupSetting returns the definition of key.
func LookupSetting(key string) (SettingDef, bool) {
	i := slices.IndexFunc(SettingDefs, func(d SettingDef) bool { return d.Key == key })
	if i < 0 {
		return SettingDef{}, false
	}
	return SettingDefs[i], true
}

// Parse converts a command line value to the setting's type.
func (d SettingDef) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch d.Kind {
	case SettingInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: want a non-negative integer, got %q: %w", d.Key, raw, ErrInvalidInput)
		}
		return n, nil
	case SettingBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: want true or false, got %q: %w", d.Key, raw, ErrInvalidInput)
		}
		return b, nil
	case SettingList:
		out := []string{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	if d.Key == KeyStorageBackend && !StorageBackend(raw).IsValid() {
		return nil, fmt.Errorf("%s: want sqlite or memory, got %q: %w", d.Key, raw, ErrInvalidInput)
	}
	return raw, nil
}

// Format renders a setting value for display.
func (d SettingDef) Format(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ",")
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// DefaultAppSettings returns the settings used when the file sets nothing.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{Backend: StorageSQLite},
		Address: ServiceSettings{URL: defaultAddressURL, Timeout: defaultAddressTimeout * time.Millisecond},
		Events:  ServiceSettings{URL: defaultEventsURL, Timeout: defaultEventsTimeout * time.Millisecond},
		Server:  ServerSettings{Addr: defaultServerAddr},
	}
}
