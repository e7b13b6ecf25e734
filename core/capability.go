package core

import "strings"

// Capability is a short string tag naming a domain of competence, e.g.
// "security-review" or "コード最適化". Matching against free text is a
// deliberately simple case-insensitive substring check; the surrounding
// system relies on its exact tie-break behavior for test stability, so it
// must not be replaced with anything smarter.
type Capability string

// Matches reports whether the capability occurs (case-insensitively) inside
// the given text. An empty capability never matches.
func (c Capability) Matches(text string) bool {
	if c == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(string(c)))
}

// NormalizeCapabilities removes case-insensitive duplicates while preserving
// the first-seen order and original spelling. Empty entries are dropped.
func NormalizeCapabilities(caps []Capability) []Capability {
	seen := make(map[string]struct{}, len(caps))
	out := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if c == "" {
			continue
		}
		key := strings.ToLower(string(c))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ContainsCapability reports whether caps contains c, compared
// case-insensitively.
func ContainsCapability(caps []Capability, c Capability) bool {
	for _, existing := range caps {
		if strings.EqualFold(string(existing), string(c)) {
			return true
		}
	}
	return false
}
