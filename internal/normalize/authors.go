package normalize

import (
	"regexp"
	"strings"
)

var (
	juniorSuffix  = regexp.MustCompile(`(?i)\s*,\s*jr`)
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	conjunction   = regexp.MustCompile(`(?i)\s+and\s+`)

	// honorifics and role markers removed from a single contributor name
	roleMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:with\s+(?:an?\s+)?)?(?:foreword|introduction)(?:\s+by)?\b`),
		regexp.MustCompile(`(?i)-\s*adaptation`),
		regexp.MustCompile(`(?i)\(translator\)`),
		regexp.MustCompile(`(?i)-\s*translator`),
		regexp.MustCompile(`(?i)\(editor\)`),
		regexp.MustCompile(`(?i)-\s*editor`),
		regexp.MustCompile(`(?i)edited by`),
		regexp.MustCompile(`(?i)\bdr\.`),
		regexp.MustCompile(`(?i)\bdr\s`),
		regexp.MustCompile(`(?i)\bprofessor\b`),
		regexp.MustCompile(`(?i)\bprof\.`),
		regexp.MustCompile(`(?i)\bsir\b`),
	}
)

// SplitAuthors turns raw tag values (album artists, artists) into one
// cleaned display name per contributor.
//
// The combined field is diacritic-folded, "Jr" suffixes are pulled onto
// the name, parenthetical notes dropped, then split on commas. Each entry
// is processed off a work queue: an entry that still contains "&" or "and"
// is split again and its parts re-queued. Credential ("PhD") entries are
// dropped. Front matter phrases ("Foreword by", "with an introduction by"),
// honorifics and role markers are stripped, and an entry left without a
// name is dropped. Dotted initials are respaced as "J. R. R.".
func SplitAuthors(fields ...string) []string {
	combined := strings.Join(fields, ",")
	combined = FoldDiacritics(combined)
	combined = juniorSuffix.ReplaceAllString(combined, " Jr")
	combined = parenthetical.ReplaceAllString(combined, "")

	var queue []string
	for _, part := range strings.Split(combined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			queue = append(queue, part)
		}
	}

	result := []string{}
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if parts, ok := splitConjunction(entry); ok {
			queue = append(queue, parts...)
			continue
		}

		if strings.Contains(strings.ToLower(entry), "phd") {
			continue
		}

		for _, marker := range roleMarkers {
			entry = marker.ReplaceAllString(entry, " ")
		}
		if strings.Contains(entry, ".") {
			entry = respaceInitials(entry)
		}

		if entry = CollapseSpaces(entry); entry != "" {
			result = append(result, entry)
		}
	}
	return result
}

// splitConjunction splits on "&" when present, otherwise on the word "and".
func splitConjunction(entry string) ([]string, bool) {
	var raw []string
	switch {
	case strings.Contains(entry, "&"):
		raw = strings.Split(entry, "&")
	case conjunction.MatchString(entry):
		raw = conjunction.Split(entry, -1)
	default:
		return nil, false
	}

	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts, true
}

// respaceInitials makes every "X." followed by exactly one space unless a
// space already follows it.
func respaceInitials(s string) string {
	parts := strings.Split(s, ".")
	var b strings.Builder
	for i := 0; i < len(parts)-1; i++ {
		b.WriteString(parts[i])
		b.WriteString(".")
		next := parts[i+1]
		if next != "" && !strings.HasPrefix(next, " ") {
			b.WriteString(" ")
		}
	}
	b.WriteString(parts[len(parts)-1])
	return b.String()
}
