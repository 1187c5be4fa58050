package pdf

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Catalog defaults
const (
	DefaultCatalogTTL      = 5 * time.Minute
	DefaultCatalogDepth    = 5
	DefaultCatalogLimit    = 100
	DefaultCatalogDuration = 3 * time.Second
)

// FileInfo describes a PDF found in the document directory
type FileInfo struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Listing is the result of a catalog scan
type Listing struct {
	Files     []FileInfo
	FromCache bool
	Truncated bool
	ScanTime  time.Duration
}

// CatalogOptions bounds a directory scan. Zero values disable a limit.
type CatalogOptions struct {
	TTL       time.Duration
	MaxDepth  int
	FileLimit int
	TimeLimit time.Duration
}

// DefaultCatalogOptions returns the limits used by the MCP server
func DefaultCatalogOptions() CatalogOptions {
	return CatalogOptions{
		TTL:       DefaultCatalogTTL,
		MaxDepth:  DefaultCatalogDepth,
		FileLimit: DefaultCatalogLimit,
		TimeLimit: DefaultCatalogDuration,
	}
}

// Catalog lists the PDFs below a directory. Results are cached for TTL;
// hidden entries and symlinks are skipped.
type Catalog struct {
	root string
	opts CatalogOptions
	now  func() time.Time

	mu      sync.Mutex
	cached  *Listing
	scanned time.Time
}

// NewCatalog creates a catalog of root
func NewCatalog(root string, opts CatalogOptions) *Catalog {
	return &Catalog{
		root: root,
		opts: opts,
		now:  time.Now,
	}
}

// List returns the PDFs in the directory, sorted by path. A cached listing
// younger than TTL is returned as is.
func (c *Catalog) List(ctx context.Context) (*Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.opts.TTL > 0 && c.now().Sub(c.scanned) <= c.opts.TTL {
		cached := *c.cached
		cached.FromCache = true
		return &cached, nil
	}

	listing, err := c.scan(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = listing
	c.scanned = c.now()
	return listing, nil
}

// Invalidate drops the cached listing
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

type scanState struct {
	start     time.Time
	visited   map[string]bool
	files     []FileInfo
	truncated bool
}

func (c *Catalog) scan(ctx context.Context) (*Listing, error) {
	st := &scanState{start: c.now(), visited: make(map[string]bool)}
	if err := c.walk(ctx, st, c.root, 0); err != nil {
		return nil, err
	}

	sort.Slice(st.files, func(i, j int) bool { return st.files[i].Path < st.files[j].Path })
	return &Listing{
		Files:     st.files,
		Truncated: st.truncated,
		ScanTime:  c.now().Sub(st.start),
	}, nil
}

func (c *Catalog) walk(ctx context.Context, st *scanState, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.opts.MaxDepth > 0 && depth >= c.opts.MaxDepth {
		return nil
	}
	if c.full(st) {
		return nil
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil || st.visited[resolved] {
		return nil
	}
	st.visited[resolved] = true

	// unreadable directories are skipped
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := c.walk(ctx, st, path, depth+1); err != nil {
				return err
			}
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		st.files = append(st.files, FileInfo{
			Path:     path,
			Name:     name,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		if c.full(st) {
			return nil
		}
	}
	return nil
}

func (c *Catalog) full(st *scanState) bool {
	if c.opts.FileLimit > 0 && len(st.files) >= c.opts.FileLimit {
		st.truncated = true
	}
	if c.opts.TimeLimit > 0 && c.now().Sub(st.start) > c.opts.TimeLimit {
		st.truncated = true
	}
	return st.truncated
}
