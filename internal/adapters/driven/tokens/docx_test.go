package tokens

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>TRIBUNALE DI ROMA</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Ricorrente: </w:t></w:r><w:r><w:t>Mario Rossi</w:t></w:r><w:r><w:tab/><w:t>avv.</w:t></w:r></w:p>
<w:p><w:r><w:br w:type="page"/></w:r></w:p>
<w:p><w:r><w:t>Resistente: Anna Bianchi</w:t></w:r></w:p>
</w:body>
</w:document>`

const docxCore = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Ricorso ex art. 700</dc:title></cp:coreProperties>`

func writeDocx(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ricorso_urgente.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDocx_PagesAndTitle(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": docxBody,
		"docProps/core.xml": docxCore,
	})
	d, err := Open(path, Options{CaseID: "c1"})
	require.NoError(t, err)

	meta, err := d.Meta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ricorso ex art. 700", meta.Title)
	assert.Equal(t, 2, meta.PageCount)
	assert.Equal(t, "c1", meta.CaseID)

	pages, err := collect(t, d)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, []string{"TRIBUNALE", "DI", "ROMA", "Ricorrente:", "Mario", "Rossi", "avv."}, texts(pages[0].Tokens))
	assert.Equal(t, []string{"Resistente:", "Anna", "Bianchi"}, texts(pages[1].Tokens))
	assert.Equal(t, 2, pages[1].Page)

	rossi := pages[0].Tokens[5]
	ricorrente := pages[0].Tokens[3]
	assert.Equal(t, ricorrente.Box.Y0, rossi.Box.Y0, "same paragraph, same row")
	assert.Greater(t, rossi.Box.Y0, pages[0].Tokens[0].Box.Y0)
}

func TestDocx_TitleFallsBackToFileName(t *testing.T) {
	path := writeDocx(t, map[string]string{"word/document.xml": docxBody})
	d, err := Open(path, Options{})
	require.NoError(t, err)

	meta, err := d.Meta(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ricorso urgente", meta.Title)
}

func TestDocx_Invalid(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		d, err := Open(write(t, "a.docx", "plain text"), Options{})
		require.NoError(t, err)
		_, err = d.Meta(context.Background())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no document part", func(t *testing.T) {
		d, err := Open(writeDocx(t, map[string]string{"docProps/core.xml": docxCore}), Options{})
		require.NoError(t, err)
		_, err = collect(t, d)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestParseDocumentPages_RenderedBreaks(t *testing.T) {
	body := `<w:document xmlns:w="w"><w:body>
<w:p><w:r><w:lastRenderedPageBreak/><w:t>uno</w:t></w:r></w:p>
<w:p><w:r><w:lastRenderedPageBreak/><w:t>due</w:t></w:r></w:p>
</w:body></w:document>`

	pages, err := parseDocumentPages(strings.NewReader(body))

	require.NoError(t, err)
	assert.Equal(t, []string{"uno", "due"}, pages)
}
