package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigStore_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"address.url": "http://a"}
	store := NewConfigStore(seed)
	seed["address.url"] = "http://changed"

	assert.Equal(t, "http://a", store.GetString("address.url"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(nil)
	_ = store.Set("s", "v")
	_ = store.Set("i", int64(150))
	_ = store.Set("b", true)
	_ = store.Set("l", []any{"Cancelleria", "Tribunale"})

	assert.Equal(t, "v", store.GetString("s"))
	assert.Equal(t, 150, store.GetInt("i"))
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"Cancelleria", "Tribunale"}, store.GetStringSlice("l"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("s"))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore(nil)
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrent(t *testing.T) {
	store := NewConfigStore(nil)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("k", i)
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()
	_, ok := store.Get("k")
	assert.True(t, ok)
}
