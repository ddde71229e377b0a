package tokens

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

var _ driven.DocAdapter = (*JSON)(nil)

//go:embed schema.json
var schemaJSON []byte

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("tokens.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile("tokens.schema.json")
})

// tokenFile is the on-disk layout of a JSON token file.
type tokenFile struct {
	ID     string              `json:"id"`
	Title  string              `json:"title"`
	CaseID string              `json:"case_id"`
	Pages  []domain.PageTokens `json:"pages"`
}

// JSON reads token files produced by an external layout or OCR step.
// Fields set in the file override the ones derived from the path, except
// the case id given to Open, which wins over the file's.
type JSON struct {
	fileBase
}

// Meta implements driven.DocAdapter.
func (d *JSON) Meta(_ context.Context) (domain.DocMeta, error) {
	tf, err := d.load()
	if err != nil {
		return domain.DocMeta{}, err
	}
	meta, err := d.meta(len(tf.Pages))
	if err != nil {
		return domain.DocMeta{}, err
	}
	if tf.ID != "" {
		meta.ID = tf.ID
	}
	if tf.Title != "" {
		meta.Title = tf.Title
	}
	if meta.CaseID == "" {
		meta.CaseID = tf.CaseID
	}
	return meta, nil
}

// StreamPages implements driven.DocAdapter. Pages are sent in page order.
func (d *JSON) StreamPages(ctx context.Context) (<-chan domain.PageTokens, <-chan error) {
	tf, err := d.load()
	if err != nil {
		return failed(err)
	}
	return streamSlice(ctx, tf.Pages)
}

func (d *JSON) load() (*tokenFile, error) {
	name := filepath.Base(d.path)
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := validateTokens(data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	for _, p := range tf.Pages {
		for _, t := range p.Tokens {
			if !t.Box.Valid() {
				return nil, fmt.Errorf("%s: page %d token %q: inverted box: %w", name, p.Page, t.Text, domain.ErrInvalidInput)
			}
		}
	}
	sort.SliceStable(tf.Pages, func(i, j int) bool { return tf.Pages[i].Page < tf.Pages[j].Page })
	return &tf, nil
}

// validateTokens checks a token file against the embedded schema.
func validateTokens(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile token schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: token file does not match schema: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
