// Package resolve implements the Path Resolver: it turns a user-typed
// target string into zero, one, or many model.UnifiedTarget values,
// per spec §4.3.1 and the grammar in §6.2.
package resolve

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rhizome-lab/moss/model"
)

// SymbolSearcher is the subset of index.Index the resolver needs for the
// bare-symbol-search fallback, kept as an interface so resolve does not
// import index directly (avoids a dependency cycle risk and keeps the
// resolver testable with a fake).
type SymbolSearcher interface {
	FindSymbols(name string, kindFilter model.Kind, caseInsensitive bool, limit int) ([]model.SymbolRow, error)
}

// Resolve maps target against root (an absolute or working-directory-
// relative repository root) using searcher for the bare-symbol fallback.
// It never panics: every target string yields a (possibly empty) slice.
func Resolve(root, target string, searcher SymbolSearcher) ([]model.UnifiedTarget, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil
	}

	if target == "." {
		return []model.UnifiedTarget{{FilePath: ".", IsDirectory: true}}, nil
	}

	trailingSlash := strings.HasSuffix(target, "/")
	trimmed := strings.TrimSuffix(target, "/")

	if hasGlobMeta(trimmed) {
		return resolveGlob(root, trimmed, trailingSlash)
	}

	pathPart, lineSpec, hasLineSpec := splitLineSpec(trimmed)

	if trailingSlash {
		if info, err := os.Stat(filepath.Join(root, pathPart)); err == nil && info.IsDir() {
			return []model.UnifiedTarget{{FilePath: filepath.ToSlash(pathPart), IsDirectory: true}}, nil
		}
		return nil, nil
	}

	if info, err := os.Stat(filepath.Join(root, pathPart)); err == nil {
		if info.IsDir() {
			return []model.UnifiedTarget{{FilePath: filepath.ToSlash(pathPart), IsDirectory: true}}, nil
		}
		t := model.UnifiedTarget{FilePath: filepath.ToSlash(pathPart)}
		if hasLineSpec {
			start, end, ok := parseLineSpec(lineSpec)
			if ok {
				t.LineStart, t.LineEnd = start, end
			}
		}
		return []model.UnifiedTarget{t}, nil
	}

	if file, symbolPath, ok := resolveFilePrefix(root, pathPart); ok {
		return []model.UnifiedTarget{{FilePath: filepath.ToSlash(file), SymbolPath: symbolPath}}, nil
	}

	if looksDotted(pathPart) {
		return nil, nil
	}

	return resolveBareSymbol(target, searcher)
}

// hasGlobMeta reports whether s contains glob metacharacters anywhere in
// any path segment.
func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// resolveGlob evaluates a glob target against files under root using
// doublestar, mirroring the teacher's PathMatch-based glob matching.
func resolveGlob(root, pattern string, dirOnly bool) ([]model.UnifiedTarget, error) {
	var out []model.UnifiedTarget
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if dirOnly && !d.IsDir() {
			return nil
		}
		matched, _ := doublestar.Match(pattern, rel)
		if matched {
			out = append(out, model.UnifiedTarget{FilePath: rel, IsDirectory: d.IsDir()})
		}
		return nil
	})
	return out, err
}

// splitLineSpec pulls a trailing ":N" or ":A-B" suffix off path, if
// present. It only treats the final colon-delimited segment as a line spec
// when what follows parses as a line spec.
func splitLineSpec(path string) (string, string, bool) {
	idx := strings.LastIndex(path, ":")
	if idx < 0 {
		return path, "", false
	}
	suffix := path[idx+1:]
	if _, _, ok := parseLineSpec(suffix); !ok {
		return path, "", false
	}
	return path[:idx], suffix, true
}

func parseLineSpec(spec string) (int, int, bool) {
	if spec == "" {
		return 0, 0, false
	}
	if dash := strings.Index(spec, "-"); dash > 0 {
		a, errA := strconv.Atoi(spec[:dash])
		b, errB := strconv.Atoi(spec[dash+1:])
		if errA != nil || errB != nil || a <= 0 || b < a {
			return 0, 0, false
		}
		return a, b, true
	}
	n, err := strconv.Atoi(spec)
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	return n, n, true
}

// resolveFilePrefix walks path's segments looking for the longest existing
// file prefix, treating the remaining segments as a symbol path.
func resolveFilePrefix(root, path string) (string, []string, bool) {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i > 0; i-- {
		candidate := strings.Join(segments[:i], "/")
		info, err := os.Stat(filepath.Join(root, candidate))
		if err == nil && !info.IsDir() {
			return candidate, segments[i:], true
		}
	}
	return "", nil, false
}

// looksDotted reports whether the rightmost path segment contains a ".",
// the "assume it's a file, don't fall back to symbol search" rule.
func looksDotted(path string) bool {
	base := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		base = path[idx+1:]
	}
	return strings.Contains(base, ".")
}

// resolveBareSymbol runs the global symbol search fallback: "Name" or
// "Parent/method" with no real path prefix.
func resolveBareSymbol(target string, searcher SymbolSearcher) ([]model.UnifiedTarget, error) {
	if searcher == nil {
		return nil, nil
	}
	segments := strings.Split(target, "/")
	name := segments[len(segments)-1]

	rows, err := searcher.FindSymbols(name, "", false, 0)
	if err != nil {
		return nil, err
	}

	var out []model.UnifiedTarget
	for _, row := range rows {
		if len(segments) > 1 {
			parentHint := segments[len(segments)-2]
			if !strings.EqualFold(row.Parent, parentHint) {
				continue
			}
		}
		out = append(out, model.UnifiedTarget{
			FilePath:   row.File,
			SymbolPath: []string{row.Name},
		})
	}
	return out, nil
}
