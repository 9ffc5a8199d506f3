package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsafePath is returned for targets that would escape the project root.
var ErrUnsafePath = errors.New("unsafe path")

// PathResolver maps model-supplied relative paths to absolute paths inside a root.
type PathResolver struct {
	root string
}

// NewPathResolver creates a resolver rooted at root, or at the working directory when empty.
func NewPathResolver(root string) (*PathResolver, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory '%s': %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory '%s': %w", root, err)
	}
	return &PathResolver{root: resolved}, nil
}

// Root returns the absolute root directory.
func (r *PathResolver) Root() string {
	return r.root
}

// Resolve returns the absolute path for relativePath. Absolute paths and any ".."
// segment are rejected before cleaning, so "a/../b" is refused too. The deepest
// existing part of the result must also stay inside the root once symlinks are followed.
func (r *PathResolver) Resolve(relativePath string) (string, error) {
	p := strings.TrimSpace(relativePath)
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafePath)
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) || filepath.VolumeName(p) != "" {
		return "", fmt.Errorf("%w: absolute path %q", ErrUnsafePath, relativePath)
	}
	for _, seg := range strings.FieldsFunc(p, func(c rune) bool { return c == '/' || c == '\\' }) {
		if seg == ".." {
			return "", fmt.Errorf("%w: parent directory segment in %q", ErrUnsafePath, relativePath)
		}
	}
	target := filepath.Join(r.root, filepath.Clean(p))
	if err := r.checkSymlinks(target); err != nil {
		return "", err
	}
	return target, nil
}

// checkSymlinks follows the longest existing prefix of target and rejects it
// when it lands outside the root.
func (r *PathResolver) checkSymlinks(target string) error {
	existing := target
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return nil
		}
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve %q: %v", ErrUnsafePath, existing, err)
	}
	rel, err := filepath.Rel(r.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %q resolves outside the root", ErrUnsafePath, target)
	}
	return nil
}

// FileAction reports whether writing to path creates a new file or modifies one.
func FileAction(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "create"
	}
	return "modify"
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "/" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// IsText reports whether b looks like UTF-8 text rather than binary data.
func IsText(b []byte) bool {
	n := len(b)
	if n > 8000 {
		n = 8000
	}
	if bytes.IndexByte(b[:n], 0) >= 0 {
		return false
	}
	return utf8.Valid(b)
}
