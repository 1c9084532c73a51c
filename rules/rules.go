// Package rules loads .moss/rules/*.scm files: a TOML frontmatter block
// describing a CST query rule, followed by raw query text the core only
// stores and never executes (query execution is out of scope — see
// DESIGN.md).
package rules

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/rhizome-lab/moss/model"
)

// Severity is a rule's reported level.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rule is one loaded .scm rule: its frontmatter metadata plus the raw CST
// query body that follows the frontmatter delimiter.
type Rule struct {
	ID        string   `toml:"id"`
	Severity  Severity `toml:"severity"`
	Message   string   `toml:"message"`
	Allow     []string `toml:"allow"`
	Languages []string `toml:"languages"`
	Enabled   bool     `toml:"enabled"`

	Query      string
	SourcePath string
}

// frontmatterFields is the raw TOML shape, with Enabled as a pointer so absence
// can be distinguished from an explicit "enabled = false" (Open Question
// decision: rules default to enabled when the key is omitted — see
// DESIGN.md).
type frontmatterFields struct {
	ID        string   `toml:"id"`
	Severity  Severity `toml:"severity"`
	Message   string   `toml:"message"`
	Allow     []string `toml:"allow"`
	Languages []string `toml:"languages"`
	Enabled   *bool    `toml:"enabled"`
}

// frontmatterDelimiter is the literal line separating a rule's TOML
// frontmatter from its CST query body.
const frontmatterDelimiter = "# ---"

// Source is one directory of rule files, loaded in precedence order:
// builtins, then user-global, then project. Later sources override an
// earlier rule with the same ID.
type Source struct {
	Dir string
}

// Load reads every *.scm file across sources in order (builtins -> user
// global -> project), merging by ID so a later source overrides an
// earlier one, and returns the merged rule set sorted by ID.
func Load(sources ...Source) ([]Rule, error) {
	byID := make(map[string]Rule)
	var order []string

	for _, src := range sources {
		entries, err := os.ReadDir(src.Dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, model.NewError(model.ErrIo, src.Dir, "reading rules directory", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".scm") {
				continue
			}
			path := filepath.Join(src.Dir, e.Name())
			rule, err := loadFile(path)
			if err != nil {
				return nil, err
			}
			if _, exists := byID[rule.ID]; !exists {
				order = append(order, rule.ID)
			}
			byID[rule.ID] = rule
		}
	}

	out := make([]Rule, 0, len(byID))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func loadFile(path string) (Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rule{}, model.NewError(model.ErrIo, path, "reading rule file", err)
	}

	frontmatterText, query := splitFrontmatter(string(raw))

	var fields frontmatterFields
	if err := toml.Unmarshal([]byte(frontmatterText), &fields); err != nil {
		return Rule{}, model.NewError(model.ErrInvalidOperation, path, "parsing rule frontmatter", err)
	}

	id := fields.ID
	if id == "" {
		// A rule file with no declared id still needs a stable map key;
		// derive one rather than reject the file outright.
		id = uuid.NewSHA1(uuid.Nil, []byte(path)).String()
	}

	rule := Rule{
		ID:        id,
		Severity:  fields.Severity,
		Message:   fields.Message,
		Allow:     fields.Allow,
		Languages: fields.Languages,
		Enabled:   fields.Enabled == nil || *fields.Enabled,
		Query:     strings.TrimSpace(query),
		SourcePath: path,
	}
	if rule.Severity == "" {
		rule.Severity = SeverityWarning
	}
	return rule, nil
}

// splitFrontmatter splits content at the first line that is exactly
// frontmatterDelimiter; everything before is TOML, everything after is
// the raw query body.
func splitFrontmatter(content string) (frontmatter, query string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == frontmatterDelimiter {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return content, ""
}

// Applicable reports whether rule applies to the given language key and
// path, honoring Enabled, Languages, and the Allow glob list.
func (r Rule) Applicable(language, path string) bool {
	if !r.Enabled {
		return false
	}
	if len(r.Languages) > 0 && !contains(r.Languages, language) {
		return false
	}
	if len(r.Allow) > 0 {
		matched := false
		for _, pattern := range r.Allow {
			if ok, _ := filepath.Match(pattern, path); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
