package model

import "fmt"

// Validate checks the containment invariant: every child's line range is
// ordered by start line and contained within the parent's range.
func (s *Symbol) Validate() error {
	return validateChildren(s.Name, s.StartLine, s.EndLine, s.Children)
}

func validateChildren(parentName string, parentStart, parentEnd int, children []*Symbol) error {
	prevStart := -1
	for _, c := range children {
		if c.StartLine < prevStart {
			return fmt.Errorf("symbol %q: children not ordered by start_line at %q", parentName, c.Name)
		}
		prevStart = c.StartLine
		if c.StartLine < parentStart || c.EndLine > parentEnd || c.StartLine > c.EndLine {
			return fmt.Errorf("symbol %q: child %q range [%d,%d] not contained in parent range [%d,%d]",
				parentName, c.Name, c.StartLine, c.EndLine, parentStart, parentEnd)
		}
		if err := validateChildren(c.Name, c.StartLine, c.EndLine, c.Children); err != nil {
			return err
		}
	}
	return nil
}
