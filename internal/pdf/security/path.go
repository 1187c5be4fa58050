package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file access to a document directory
type PathValidator struct {
	root       string
	extensions []string
}

// NewPathValidator creates a validator for files below root. When
// extensions are given, only files with one of them (case-insensitive,
// including the leading dot) are accepted.
func NewPathValidator(root string, extensions ...string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("document directory cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document directory: %w", err)
	}

	normalized := make([]string, len(extensions))
	for i, ext := range extensions {
		normalized[i] = strings.ToLower(ext)
	}

	return &PathValidator{
		root:       filepath.Clean(abs),
		extensions: normalized,
	}, nil
}

// Root returns the absolute document directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns path into an absolute path of an existing regular file
// inside the document directory. Relative paths are taken relative to the
// directory. Symlinks are followed before the containment check.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	path = filepath.Clean(path)

	if !v.allowedExtension(path) {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	realRoot, err := filepath.EvalSymlinks(v.root)
	if err != nil {
		return "", fmt.Errorf("document directory is not accessible: %w", err)
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !within(realPath, realRoot) {
		return "", fmt.Errorf("path is outside the document directory: %s", path)
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path is not a regular file: %s", path)
	}

	return realPath, nil
}

func (v *PathValidator) allowedExtension(path string) bool {
	if len(v.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range v.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// within reports whether path equals dir or lies below it
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
