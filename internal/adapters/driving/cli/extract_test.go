package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

const extractSample = "Indagato: Mario Rossi nato a Roma il 1 febbraio 1970\n"

func writeCaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "verbale.txt"), []byte(extractSample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))
	return dir
}

func TestExtractCmd_Flags(t *testing.T) {
	for name, def := range map[string]string{
		"persist": "true",
		"await":   "true",
		"lenient": "false",
		"watch":   "false",
	} {
		flag := extractCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestExtractCmd_RequiresInput(t *testing.T) {
	useTestApp(t)

	_, err := execute(t, "extract")

	assert.Error(t, err)
}

func TestExtractCmd_NoSupportedFiles(t *testing.T) {
	useTestApp(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644))

	_, err := execute(t, "extract", dir)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractCmd_EventsNeedService(t *testing.T) {
	useTestApp(t)

	_, err := execute(t, "extract", writeCaseDir(t), "--events")

	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestExtractCmd_PersistsAndSkips(t *testing.T) {
	index := useTestApp(t)
	dir := writeCaseDir(t)

	out, err := execute(t, "extract", dir, "--case", "c9", "--json")
	require.NoError(t, err)

	var result struct {
		Persons   []domain.Person      `json:"persons"`
		Snapshots []domain.DocSnapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Snapshots, 1)
	var names []string
	for _, p := range result.Persons {
		names = append(names, p.FullName)
	}
	assert.Contains(t, names, "Mario Rossi")

	snaps, err := index.ListSnapshots(context.Background(), "c9")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	resetFlags(rootCmd)
	out, err = execute(t, "extract", dir, "--case", "c9", "--skip-extracted")
	require.NoError(t, err)
	assert.Contains(t, out, "already extracted")
}

func TestExtractCmd_NoPersist(t *testing.T) {
	index := useTestApp(t)
	dir := writeCaseDir(t)

	_, err := execute(t, "extract", dir, "--case", "c9", "--persist=false")
	require.NoError(t, err)

	snaps, err := index.ListSnapshots(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestCollectFiles_DeduplicatesRoots(t *testing.T) {
	dir := writeCaseDir(t)

	files, err := collectFiles(context.Background(), []string{dir, filepath.Join(dir, "verbale.txt")})

	require.NoError(t, err)
	assert.Len(t, files, 1)
}
