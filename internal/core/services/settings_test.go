package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/storage/memory"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil))

	assert.Equal(t, domain.DefaultAppSettings(), service.Get())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"storage.backend":         "memory",
		"address.url":             "http://addr:1",
		"address.timeout_ms":      int64(300),
		"events.url":              "",
		"extract.lenient":         true,
		"scanner.extra_blacklist": []any{"Cancelleria"},
		"server.addr":             ":9000",
	})

	got := NewSettingsService(store).Get()

	assert.Equal(t, domain.StorageMemory, got.Storage.Backend)
	assert.Equal(t, "http://addr:1", got.Address.URL)
	assert.Equal(t, 300*time.Millisecond, got.Address.Timeout)
	assert.Empty(t, got.Events.URL, "an empty url disables the service")
	assert.Equal(t, 800*time.Millisecond, got.Events.Timeout)
	assert.True(t, got.Extract.Lenient)
	assert.Equal(t, []string{"Cancelleria"}, got.Extract.ExtraBlacklist)
	assert.Equal(t, ":9000", got.Server.Addr)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"storage.backend":    "postgres",
		"address.timeout_ms": -5,
	})

	got := NewSettingsService(store).Get()

	assert.Equal(t, domain.StorageSQLite, got.Storage.Backend)
	assert.Equal(t, 150*time.Millisecond, got.Address.Timeout)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		raw     string
		want    any
		wantErr bool
	}{
		{name: "int", key: "address.timeout_ms", raw: "250", want: 250},
		{name: "bool", key: "extract.lenient", raw: "true", want: true},
		{name: "list", key: "scanner.extra_blacklist", raw: "Procura, Questura,", want: []string{"Procura", "Questura"}},
		{name: "string", key: "server.addr", raw: ":8080", want: ":8080"},
		{name: "backend", key: "storage.backend", raw: "memory", want: "memory"},
		{name: "bad backend", key: "storage.backend", raw: "mysql", wantErr: true},
		{name: "bad int", key: "events.timeout_ms", raw: "fast", wantErr: true},
		{name: "negative int", key: "events.timeout_ms", raw: "-1", wantErr: true},
		{name: "bad bool", key: "extract.lenient", raw: "maybe", wantErr: true},
		{name: "unknown key", key: "llm.provider", raw: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore(nil)
			service := NewSettingsService(store)

			err := service.Set(tt.key, tt.raw)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				_, ok := store.Get(tt.key)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			v, _ := store.Get(tt.key)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestSettingsService_ValueAndList(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"extract.lenient": true})
	service := NewSettingsService(store)

	entry, err := service.Value("extract.lenient")
	require.NoError(t, err)
	assert.Equal(t, "true", entry.Value)
	assert.False(t, entry.IsDefault)

	entry, err = service.Value("address.timeout_ms")
	require.NoError(t, err)
	assert.Equal(t, "150", entry.Value)
	assert.True(t, entry.IsDefault)

	_, err = service.Value("nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list := service.List()
	require.Len(t, list, len(domain.SettingDefs))
	assert.Equal(t, "storage.backend", list[0].Key)
	assert.Equal(t, "sqlite", list[0].Value)
	for _, e := range list {
		assert.NotEmpty(t, e.Description, e.Key)
	}
}
