package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/storage/memory"
)

func TestApp_MemoryIndex(t *testing.T) {
	a := NewApp(AppOptions{ConfigDir: t.TempDir(), Memory: true})

	index, err := a.Index()
	require.NoError(t, err)
	assert.IsType(t, &memory.EntityIndex{}, index)

	again, err := a.Index()
	require.NoError(t, err)
	assert.Same(t, index, again)
	assert.NoError(t, a.Close())
}

func TestApp_SQLiteIndex(t *testing.T) {
	dataDir := t.TempDir()
	a := NewApp(AppOptions{ConfigDir: t.TempDir(), DataDir: dataDir})

	index, err := a.Index()
	require.NoError(t, err)
	assert.NotNil(t, index)
	require.NoError(t, a.Close())

	_, err = os.Stat(filepath.Join(dataDir, "entities.db"))
	assert.NoError(t, err)
}

func TestApp_IndexNotOpenedForSettings(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "never")
	a := NewApp(AppOptions{ConfigDir: t.TempDir(), DataDir: dataDir})

	_ = a.Settings().List()
	require.NoError(t, a.Close())

	_, err := os.Stat(dataDir)
	assert.True(t, os.IsNotExist(err))
}

func TestApp_ExtractionWithoutServices(t *testing.T) {
	useTestApp(t)

	svc, err := app.Extraction(true)

	require.NoError(t, err)
	assert.NotNil(t, svc)
}
