// Package match scores search candidates against a local book and picks
// the one worth fetching, or none.
package match

import (
	"context"
	"strings"

	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/normalize"
	"github.com/superversivesf/saga-importer/internal/scrape"
	"github.com/superversivesf/saga-importer/internal/textutil"
)

// RejectScore is the score of a candidate sharing no author with the
// local book. It is below the starting best score, so such a candidate is
// never selected.
const RejectScore = -2

// seriesTitleSimilarity is the similarity above which a candidate's title
// is taken to be just its series name.
const seriesTitleSimilarity = 0.95

// Book is the local side of a match.
type Book struct {
	Title   string
	Authors []string
}

// Score rates how well candidate c describes the local book. Higher is better.
func Score(local Book, c scrape.Candidate) int {
	localAuthors := normalizeAll(local.Authors, normalize.Author)
	remoteAuthors := normalizeAll(c.Authors, normalize.Author)

	authorMatches := textutil.CountSimilarPairs(localAuthors, remoteAuthors, textutil.MatchThreshold)
	if authorMatches == 0 {
		return RejectScore
	}
	score := authorMatches

	localTitle := normalize.Title(local.Title)
	title := normalize.Title(c.Title)
	series := normalize.Title(c.SeriesTitle)

	if title != "" && strings.Contains(localTitle, title) {
		score += 2
	}
	if c.SeriesVolume != "" && strings.Contains(localTitle, "book "+strings.ToLower(c.SeriesVolume)) {
		score++
	}
	if series != "" {
		if strings.Contains(localTitle, series) {
			score++
		}
		if textutil.Similarity(title, series) > seriesTitleSimilarity {
			score -= 2
		}
	}

	localTokens := strings.Fields(localTitle)
	score += textutil.CountSharedTokens(strings.Fields(title), localTokens, textutil.MatchThreshold)
	if series != "" {
		score += textutil.CountSharedTokens(strings.Fields(series), localTokens, textutil.MatchThreshold)
	}
	return score
}

// Best returns the highest scoring candidate, the first one on ties, if it
// passes the acceptance gate: its normalized title and the local normalized
// title must contain one another.
func Best(local Book, candidates []scrape.Candidate) (scrape.Candidate, bool) {
	best := -1
	var winner *scrape.Candidate
	for i := range candidates {
		if s := Score(local, candidates[i]); s > best {
			best = s
			winner = &candidates[i]
		}
	}
	if winner == nil || !Contained(local.Title, winner.Title) {
		return scrape.Candidate{}, false
	}
	return *winner, true
}

// Contained reports whether the normalized titles contain one another.
// Empty titles never qualify.
func Contained(localTitle, candidateTitle string) bool {
	l := normalize.Title(localTitle)
	c := normalize.Title(candidateTitle)
	if l == "" || c == "" {
		return false
	}
	return strings.Contains(l, c) || strings.Contains(c, l)
}

func normalizeAll(in []string, fn func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := fn(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Searcher is the search side the Matcher drives.
type Searcher interface {
	Search(ctx context.Context, c scrape.Criteria) []scrape.Candidate
	SearchPage(ctx context.Context, c scrape.Criteria) []scrape.Candidate
}

// Matcher resolves a local book to a candidate in two passes.
type Matcher struct {
	searcher Searcher
	log      *logger.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(s Searcher, log *logger.Logger) *Matcher {
	if log == nil {
		log = logger.Get()
	}
	return &Matcher{searcher: s, log: log}
}

// Match searches by the book's authors (or its title when no author is
// known) and scores every result. When nothing is accepted, it searches
// once more by normalized title plus authors, one page only.
func (m *Matcher) Match(ctx context.Context, local Book) (scrape.Candidate, bool) {
	first := scrape.Criteria{Authors: local.Authors}
	if len(first.Terms()) == 0 {
		first = scrape.Criteria{Title: local.Title}
	}

	candidates := m.searcher.Search(ctx, first)
	if c, ok := Best(local, candidates); ok {
		m.log.Debug("Matched on author search", map[string]interface{}{
			"title": local.Title,
			"match": c.Title,
			"link":  c.Link,
		})
		return c, true
	}

	if len(first.Authors) == 0 {
		return scrape.Candidate{}, false
	}

	second := scrape.Criteria{Title: normalize.Title(local.Title), Authors: local.Authors}
	candidates = m.searcher.SearchPage(ctx, second)
	if c, ok := Best(local, candidates); ok {
		m.log.Debug("Matched on title and author search", map[string]interface{}{
			"title": local.Title,
			"match": c.Title,
			"link":  c.Link,
		})
		return c, true
	}

	m.log.Debug("No acceptable candidate", map[string]interface{}{
		"title":      local.Title,
		"candidates": len(candidates),
	})
	return scrape.Candidate{}, false
}
