package filter

import "strings"

// Set holds the exclusion rules for one deployment. Rules protect
// matching remote entries from deletion and skip matching local paths
// during the scan. A rule matches a path that equals it exactly or that
// lives anywhere beneath it (directory-prefix semantics). Matching is
// literal and case-sensitive; there is no glob support.
type Set struct {
	rules []string
}

// Parse builds a Set from a raw comma-separated rule string. Segments
// are trimmed and empty segments dropped, so "a, ,b," parses to {a, b}.
func Parse(raw string) *Set {
	s := &Set{}
	for _, part := range strings.Split(raw, ",") {
		rule := strings.TrimSpace(part)
		if rule == "" {
			continue
		}
		s.rules = append(s.rules, rule)
	}
	return s
}

// New builds a Set from already-split rules. Used by callers that
// assemble rules programmatically.
func New(rules ...string) *Set {
	s := &Set{}
	for _, rule := range rules {
		if rule == "" {
			continue
		}
		s.rules = append(s.rules, rule)
	}
	return s
}

// Excluded reports whether relPath (forward-slash separated, relative)
// is protected by the set: an exact rule match, or a rule that is a
// strict path-prefix of relPath.
func (s *Set) Excluded(relPath string) bool {
	for _, rule := range s.rules {
		if relPath == rule || strings.HasPrefix(relPath, rule+"/") {
			return true
		}
	}
	return false
}

// Empty reports whether the set has no rules.
func (s *Set) Empty() bool {
	return len(s.rules) == 0
}

// Rules returns a copy of the rule list.
func (s *Set) Rules() []string {
	out := make([]string, len(s.rules))
	copy(out, s.rules)
	return out
}
