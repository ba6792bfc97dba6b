package scrape

import (
	"strings"
)

// Candidate is one search hit awaiting scoring.
type Candidate struct {
	Title        string
	SeriesTitle  string
	SeriesVolume string
	Authors      []string
	Link         string
}

// NewCandidate builds a candidate from a raw result title, splitting a
// trailing "(Series, #N)" suffix into series hints.
func NewCandidate(rawTitle string, authors []string, link string) Candidate {
	title, series, volume := splitSeriesSuffix(rawTitle)
	if authors == nil {
		authors = []string{}
	}
	return Candidate{
		Title:        title,
		SeriesTitle:  series,
		SeriesVolume: volume,
		Authors:      authors,
		Link:         link,
	}
}

func splitSeriesSuffix(raw string) (title, series, volume string) {
	raw = strings.TrimSpace(raw)

	// a title wrapped entirely in parentheses is not a series suffix
	if strings.HasPrefix(raw, "(") {
		raw = strings.TrimPrefix(raw, "(")
		if i := strings.Index(raw, ")"); i >= 0 {
			raw = raw[:i] + " " + raw[i+1:]
		}
		raw = strings.TrimSpace(raw)
	}

	open := strings.LastIndex(raw, "(")
	if open < 0 {
		return collapse(raw), "", ""
	}

	title = collapse(raw[:open])
	suffix := strings.ReplaceAll(raw[open+1:], ")", "")
	parts := strings.SplitN(suffix, "#", 2)

	series = strings.TrimSpace(strings.ReplaceAll(parts[0], ",", ""))
	if len(parts) > 1 {
		volume = strings.TrimSpace(parts[1])
	}
	return title, series, volume
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
