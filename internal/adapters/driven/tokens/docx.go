package tokens

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

var _ driven.DocAdapter = (*Docx)(nil)

// Docx reads Word documents. Paragraphs become grid lines; a hard page break
// or a page break rendered by Word starts a new page.
type Docx struct {
	fileBase
}

// Meta implements driven.DocAdapter. The title comes from the document
// properties when set.
func (d *Docx) Meta(_ context.Context) (domain.DocMeta, error) {
	content, err := d.read()
	if err != nil {
		return domain.DocMeta{}, err
	}
	m, err := d.meta(len(content.pages))
	if err != nil {
		return domain.DocMeta{}, err
	}
	if content.title != "" {
		m.Title = content.title
	}
	return m, nil
}

// StreamPages implements driven.DocAdapter.
func (d *Docx) StreamPages(ctx context.Context) (<-chan domain.PageTokens, <-chan error) {
	content, err := d.read()
	if err != nil {
		return failed(err)
	}
	return streamSlice(ctx, gridPages(content.pages))
}

type docxContent struct {
	title string
	pages []string
}

func (d *Docx) read() (*docxContent, error) {
	name := filepath.Base(d.path)
	zr, err := zip.OpenReader(d.path)
	if err != nil {
		return nil, fmt.Errorf("%s: not a docx archive: %w", name, domain.ErrInvalidInput)
	}
	defer zr.Close()

	var content docxContent
	found := false
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			found = true
			if content.pages, err = readZipXML(f, parseDocumentPages); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		case "docProps/core.xml":
			// A broken core.xml only costs the title.
			content.title, _ = readZipXML(f, parseCoreTitle)
		}
	}
	if !found {
		return nil, fmt.Errorf("%s: word/document.xml missing: %w", name, domain.ErrInvalidInput)
	}
	if len(content.pages) == 0 {
		content.pages = []string{""}
	}
	return &content, nil
}

func readZipXML[T any](f *zip.File, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := f.Open()
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return parse(rc)
}

// parseDocumentPages walks word/document.xml. Only the element local names
// matter: w:p ends a line, w:t carries text, w:tab is a space and
// w:br type="page" or w:lastRenderedPageBreak starts a page.
func parseDocumentPages(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		pages  []string
		page   strings.Builder
		inText bool
	)
	breakPage := func() {
		pages = append(pages, strings.TrimRight(page.String(), "\n"))
		page.Reset()
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", domain.ErrInvalidInput)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				page.WriteByte(' ')
			case "br":
				if attr(t, "type") == "page" {
					breakPage()
				} else {
					page.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				if page.Len() > 0 {
					breakPage()
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				page.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				page.Write(t)
			}
		}
	}
	if page.Len() > 0 || len(pages) == 0 {
		breakPage()
	}
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func parseCoreTitle(r io.Reader) (string, error) {
	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.NewDecoder(r).Decode(&core); err != nil {
		return "", err
	}
	return strings.TrimSpace(core.Title), nil
}
