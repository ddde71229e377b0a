package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

// ChangeType is the kind of change seen on a watched file.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is one file change reported by Watch.
type Change struct {
	Type ChangeType
	Path string
}

// Connector lists and watches the documents below a root path.
// The root may also be a single file.
type Connector struct {
	rootPath string
	accept   func(path string) bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector for rootPath. accept filters the files reported;
// nil accepts every regular file. Hidden files are always skipped.
func New(rootPath string, accept func(path string) bool) *Connector {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Connector{rootPath: rootPath, accept: accept}
}

// Files returns the accepted files below the root in lexical order.
func (c *Connector) Files(ctx context.Context) ([]string, error) {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		if c.accept(c.rootPath) {
			return []string{c.rootPath}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != c.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && c.accept(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", c.rootPath, err)
	}
	sort.Strings(files)
	return files, nil
}

// Watch reports changes to accepted files until ctx is done or the
// connector is closed. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("connector closed")
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if info.IsDir() {
		err = c.addTree(w, c.rootPath)
	} else {
		err = w.Add(filepath.Dir(c.rootPath))
	}
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}
	c.watcher = w

	changes := make(chan Change)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) && isDir(ev.Name) && !isHidden(filepath.Base(ev.Name)) {
					if err := c.addTree(w, ev.Name); err != nil {
						logger.Warn("watch %s: %v", ev.Name, err)
					}
					continue
				}
				change := c.handleFsEvent(ev)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher: %v", err)
			}
		}
	}()
	return changes, nil
}

// Close stops the watcher. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

func (c *Connector) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// handleFsEvent maps an fsnotify event to a change, or nil when the event is
// not about an accepted file.
func (c *Connector) handleFsEvent(ev fsnotify.Event) *Change {
	if c.hidden(ev.Name) || !c.accept(ev.Name) || !c.underRoot(ev.Name) {
		return nil
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: ev.Name}
	case ev.Has(fsnotify.Create):
		if isDir(ev.Name) {
			return nil
		}
		return &Change{Type: ChangeCreated, Path: ev.Name}
	case ev.Has(fsnotify.Write):
		if isDir(ev.Name) {
			return nil
		}
		return &Change{Type: ChangeUpdated, Path: ev.Name}
	}
	return nil
}

// underRoot filters sibling events when the root is a single file.
func (c *Connector) underRoot(path string) bool {
	if info, err := os.Stat(c.rootPath); err == nil && !info.IsDir() {
		return filepath.Clean(path) == filepath.Clean(c.rootPath)
	}
	return true
}

// hidden checks the path below the watched directory, so that a root
// inside a dot directory still reports its files.
func (c *Connector) hidden(path string) bool {
	base := c.rootPath
	if !isDir(base) {
		base = filepath.Dir(base)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	return isHidden(rel)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
