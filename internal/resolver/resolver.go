// Package resolver converts between document URIs and file paths and
// decides which files are eligible for scanning.
package resolver

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// URIToPath converts a file URI to an absolute, cleaned path.
func URIToPath(uri protocol.DocumentUri) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	path := u.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
	}
	return filepath.Clean(filepath.FromSlash(path)), nil
}

// PathToURI converts a path to a file URI.
func PathToURI(path string) protocol.DocumentUri {
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return u.String()
}

// Resolver matches paths below a project root against include and exclude
// globs. Patterns are matched against the slash-separated path relative to
// the root; paths outside the root are matched without their leading slash.
type Resolver struct {
	root    string
	include []string
	exclude []string
}

func New(root string, include, exclude []string) *Resolver {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Resolver{root: filepath.Clean(root), include: include, exclude: exclude}
}

func (r *Resolver) Root() string {
	return r.root
}

// Rel returns the slash-separated path of path relative to the root, or the
// absolute slash path when path lies outside it.
func (r *Resolver) Rel(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return strings.TrimPrefix(filepath.ToSlash(path), "/")
	}
	return filepath.ToSlash(rel)
}

// Matches reports whether path is included and not excluded. An empty
// include list includes everything.
func (r *Resolver) Matches(path string) bool {
	rel := r.Rel(path)
	for _, pattern := range r.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(r.include) == 0 {
		return true
	}
	for _, pattern := range r.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// MatchesURI is Matches for a document URI. Non-file URIs never match.
func (r *Resolver) MatchesURI(uri protocol.DocumentUri) bool {
	path, err := URIToPath(uri)
	if err != nil {
		return false
	}
	return r.Matches(path)
}

// SkipDir reports whether a directory can be pruned from a walk because
// every path below it is excluded.
func (r *Resolver) SkipDir(path string) bool {
	rel := r.Rel(path)
	if rel == "." {
		return false
	}
	for _, pattern := range r.exclude {
		if ok, _ := doublestar.Match(pattern, rel+"/x"); ok && strings.HasSuffix(pattern, "/**") {
			return true
		}
	}
	return false
}
