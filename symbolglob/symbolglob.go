// Package symbolglob matches glob patterns against the qualified names of
// an in-memory model.ViewNode tree (parent-joined by "/"). It is
// hand-rolled rather than built on doublestar: doublestar's matcher
// operates on filesystem-path strings, and flattening the tree to strings
// per query would discard the parent linkage "**"-depth matching needs —
// see DESIGN.md.
package symbolglob

import (
	"strings"

	"github.com/rhizome-lab/moss/model"
)

// Match walks root's symbol children (the file root itself is never a
// match candidate) and returns every node whose qualified name (its own
// name, joined to its ancestors' names by "/", the file root excluded)
// matches pattern. caseInsensitive folds both pattern and names.
func Match(root *model.ViewNode, pattern string, caseInsensitive bool) []*model.ViewNode {
	segments := strings.Split(pattern, "/")
	if caseInsensitive {
		for i := range segments {
			segments[i] = strings.ToLower(segments[i])
		}
	}

	var out []*model.ViewNode
	var walk func(node *model.ViewNode, qualified []string)
	walk = func(node *model.ViewNode, qualified []string) {
		for _, child := range node.Children {
			path := append(append([]string{}, qualified...), child.Name)
			if matchSegments(segments, nameSegments(path, caseInsensitive)) {
				out = append(out, child)
			}
			walk(child, path)
		}
	}
	walk(root, nil)
	return out
}

func nameSegments(path []string, caseInsensitive bool) []string {
	if !caseInsensitive {
		return path
	}
	out := make([]string, len(path))
	for i, p := range path {
		out[i] = strings.ToLower(p)
	}
	return out
}

// matchSegments matches a glob pattern (split on "/", "**" meaning any
// depth) against a qualified-name path (also split on "/").
func matchSegments(pattern, name []string) bool {
	return matchFrom(pattern, name, 0, 0)
}

func matchFrom(pattern, name []string, pi, ni int) bool {
	for pi < len(pattern) {
		seg := pattern[pi]
		if seg == "**" {
			if pi == len(pattern)-1 {
				return true
			}
			for k := ni; k <= len(name); k++ {
				if matchFrom(pattern, name, pi+1, k) {
					return true
				}
			}
			return false
		}
		if ni >= len(name) {
			return false
		}
		if !matchSegment(seg, name[ni]) {
			return false
		}
		pi++
		ni++
	}
	return ni == len(name)
}

// matchSegment matches one pattern segment against one name segment: "*"
// matches any run of characters, "?" matches exactly one character, all
// other characters match literally.
func matchSegment(pattern, name string) bool {
	return matchRunes([]rune(pattern), []rune(name))
}

func matchRunes(pattern, name []rune) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	switch pattern[0] {
	case '*':
		if len(pattern) == 1 {
			return true
		}
		for k := 0; k <= len(name); k++ {
			if matchRunes(pattern[1:], name[k:]) {
				return true
			}
		}
		return false
	case '?':
		if len(name) == 0 {
			return false
		}
		return matchRunes(pattern[1:], name[1:])
	default:
		if len(name) == 0 || pattern[0] != name[0] {
			return false
		}
		return matchRunes(pattern[1:], name[1:])
	}
}
