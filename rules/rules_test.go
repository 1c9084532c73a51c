package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSingleRule(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "no-panic.scm", `id = "no-panic"
severity = "error"
message = "avoid panic()"
languages = ["go"]
enabled = true
# ---
(call_expression function: (identifier) @fn (#eq? @fn "panic"))
`)
	loaded, err := Load(Source{Dir: dir})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "no-panic", loaded[0].ID)
	require.Equal(t, SeverityError, loaded[0].Severity)
	require.Contains(t, loaded[0].Query, "call_expression")
}

func TestLoadDefaultsEnabledWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "r.scm", `id = "r"
# ---
(query)
`)
	loaded, err := Load(Source{Dir: dir})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.True(t, loaded[0].Enabled)
	require.Equal(t, SeverityWarning, loaded[0].Severity, "severity defaults to warning when omitted")
}

func TestLaterSourceOverridesByID(t *testing.T) {
	builtins := t.TempDir()
	project := t.TempDir()
	writeRule(t, builtins, "r.scm", `id = "shared"
message = "builtin version"
# ---
(a)
`)
	writeRule(t, project, "r.scm", `id = "shared"
message = "project override"
# ---
(b)
`)
	loaded, err := Load(Source{Dir: builtins}, Source{Dir: project})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "project override", loaded[0].Message)
}

func TestApplicableChecksLanguageAndAllow(t *testing.T) {
	r := Rule{Enabled: true, Languages: []string{"go"}, Allow: []string{"*.go"}}
	require.True(t, r.Applicable("go", "main.go"))
	require.False(t, r.Applicable("python", "main.py"))
	require.False(t, r.Applicable("go", "main.txt"))
}

func TestLoadGeneratesIDWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "anon.scm", `severity = "info"
# ---
(query)
`)
	loaded, err := Load(Source{Dir: dir})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.NotEmpty(t, loaded[0].ID)
}

func TestLoadMissingDirectoryIsNotAnError(t *testing.T) {
	loaded, err := Load(Source{Dir: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)
	require.Empty(t, loaded)
}
