// Package ignore combines .gitignore, .git/info/exclude, and a built-in
// global exclude list into one matcher, the ignore-rule stack spec.md's
// refresh semantics require.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// globalExcludes mirrors the conventional global gitignore defaults: VCS
// directories and the index's own data directory are never walked.
var globalExcludes = []string{
	".git/",
	".hg/",
	".svn/",
	".moss/",
	"node_modules/",
}

// Matcher answers whether a repository-relative path should be skipped
// during a walk.
type Matcher struct {
	compiled *gitignore.GitIgnore
}

// Load builds a Matcher for root by walking up from root collecting
// .gitignore files (outermost-first compile order, so files in ancestor
// directories are overridden by root's own — matching git's own
// precedence), plus root's .git/info/exclude, plus the built-in global
// exclude list.
func Load(root string) *Matcher {
	var lines []string
	lines = append(lines, globalExcludes...)

	if excl, err := os.ReadFile(filepath.Join(root, ".git", "info", "exclude")); err == nil {
		lines = append(lines, strings.Split(string(excl), "\n")...)
	}

	var gitignoreFiles []string
	dir := root
	for {
		path := filepath.Join(dir, ".gitignore")
		if _, err := os.Stat(path); err == nil {
			gitignoreFiles = append(gitignoreFiles, path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// gitignoreFiles was collected root-outward (repo root first, since we
	// only ascend from root). Ancestors above root may still apply, so
	// keep them, and reverse the list so they compile first and root's own
	// file last (closest wins).
	for i, j := 0, len(gitignoreFiles)-1; i < j; i, j = i+1, j-1 {
		gitignoreFiles[i], gitignoreFiles[j] = gitignoreFiles[j], gitignoreFiles[i]
	}

	for _, f := range gitignoreFiles {
		if content, err := os.ReadFile(f); err == nil {
			lines = append(lines, strings.Split(string(content), "\n")...)
		}
	}

	return &Matcher{compiled: gitignore.CompileIgnoreLines(lines...)}
}

// Ignored reports whether relPath (repository-root-relative, POSIX
// separators) should be excluded from a refresh.
func (m *Matcher) Ignored(relPath string) bool {
	if m == nil || m.compiled == nil {
		return false
	}
	return m.compiled.MatchesPath(relPath)
}
