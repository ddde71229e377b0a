package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

// Options configures adapters created by Open.
type Options struct {
	// CaseID is reported in the document metadata.
	CaseID string
}

// Open returns the adapter matching the file extension.
func Open(path string, opts Options) (driven.DocAdapter, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	base := fileBase{path: abs, caseID: opts.CaseID}
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".pdf":
		return &PDF{fileBase: base}, nil
	case ".json":
		return &JSON{fileBase: base}, nil
	case ".txt", ".text":
		return &Text{fileBase: base}, nil
	case ".docx":
		return &Docx{fileBase: base}, nil
	case ".eml":
		return &Email{fileBase: base}, nil
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(abs), domain.ErrUnsupportedType)
	}
}

// Supported reports whether Open can read the file.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".json", ".txt", ".text", ".docx", ".eml":
		return true
	}
	return false
}

// fileBase holds what every file adapter shares: the path, the case and the content hash.
type fileBase struct {
	path   string
	caseID string
}

func (b fileBase) meta(pageCount int) (domain.DocMeta, error) {
	hash, err := hashFile(b.path)
	if err != nil {
		return domain.DocMeta{}, err
	}
	return domain.DocMeta{
		ID:          b.path,
		Title:       titleFromPath(b.path),
		PageCount:   pageCount,
		ContentHash: hash,
		CaseID:      b.caseID,
	}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// titleFromPath turns a file name into a readable title.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}

// streamSlice sends already loaded pages following the DocAdapter channel contract.
func streamSlice(ctx context.Context, pages []domain.PageTokens) (<-chan domain.PageTokens, <-chan error) {
	out := make(chan domain.PageTokens)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, p := range pages {
			select {
			case out <- p:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return out, errs
}

// failed returns a stream that reports err and ends.
func failed(err error) (<-chan domain.PageTokens, <-chan error) {
	out := make(chan domain.PageTokens)
	errs := make(chan error, 1)
	errs <- err
	close(out)
	close(errs)
	return out, errs
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
