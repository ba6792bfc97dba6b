package scrape

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/superversivesf/saga-importer/internal/logger"
)

// DefaultMaxPages bounds how many result pages one search follows.
const DefaultMaxPages = 5

const searchPath = "/search?utf8=%E2%9C%93&query="

// Criteria are the terms of one search. Title and author terms are joined
// in that order.
type Criteria struct {
	Title   string
	Authors []string
}

// Terms returns the non-empty, whitespace-collapsed search terms.
func (c Criteria) Terms() []string {
	var terms []string
	for _, t := range append([]string{c.Title}, c.Authors...) {
		if t = strings.Join(strings.Fields(t), " "); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Searcher runs catalogue searches and collects candidates.
type Searcher struct {
	q        Querier
	base     *url.URL
	maxPages int
	log      *logger.Logger
}

// NewSearcher creates a Searcher rooted at baseURL.
func NewSearcher(q Querier, baseURL string, maxPages int) (*Searcher, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Searcher{q: q, base: base, maxPages: maxPages, log: logger.Get()}, nil
}

// BaseURL returns the catalogue root.
func (s *Searcher) BaseURL() string {
	return s.base.String()
}

// QueryURL builds the search URL. Each term is whitespace-collapsed and
// escaped, and terms are joined with '+'.
func (s *Searcher) QueryURL(c Criteria) string {
	terms := c.Terms()
	for i, t := range terms {
		terms[i] = url.QueryEscape(t)
	}
	return s.base.String() + searchPath + strings.Join(terms, "+")
}

// Search returns candidates from up to maxPages result pages, following the
// next-page link. A page that cannot be fetched ends the search with the
// candidates gathered so far.
func (s *Searcher) Search(ctx context.Context, c Criteria) []Candidate {
	return s.collect(ctx, s.QueryURL(c), s.maxPages)
}

// SearchPage returns candidates from the first result page only.
func (s *Searcher) SearchPage(ctx context.Context, c Criteria) []Candidate {
	return s.collect(ctx, s.QueryURL(c), 1)
}

func (s *Searcher) collect(ctx context.Context, next string, pages int) []Candidate {
	candidates := []Candidate{}
	for page := 1; page <= pages && next != ""; page++ {
		doc, err := s.q.Query(ctx, next)
		if err != nil {
			s.log.Warn("Search page failed, keeping partial results", map[string]interface{}{
				"url":        next,
				"page":       page,
				"candidates": len(candidates),
				"error":      err.Error(),
			})
			break
		}
		candidates = append(candidates, s.ParseResults(doc)...)
		next = s.nextPage(doc)
	}
	return candidates
}

// ParseResults reads the candidate rows of a result page.
func (s *Searcher) ParseResults(doc *html.Node) []Candidate {
	var out []Candidate
	for _, row := range FindAll(doc, All(Tag("tr"), HasAttr("itemscope"))) {
		titleNode := Find(row, All(Tag("a"), Class("bookTitle")))
		if titleNode == nil {
			continue
		}

		var authors []string
		for _, a := range FindAll(row, All(Tag("a"), Class("authorName"))) {
			if name := CleanText(a); name != "" {
				authors = append(authors, name)
			}
		}

		out = append(out, NewCandidate(CleanText(titleNode), authors, s.Resolve(Attr(titleNode, "href"))))
	}
	return out
}

func (s *Searcher) nextPage(doc *html.Node) string {
	a := Find(doc, All(Tag("a"), Class("next_page")))
	if a == nil {
		return ""
	}
	href := Attr(a, "href")
	if href == "" {
		return ""
	}
	return s.Resolve(href)
}

// Resolve turns a page-relative href into an absolute URL on the catalogue.
func (s *Searcher) Resolve(href string) string {
	return ResolveURL(s.base, href)
}

// ResolveURL resolves href against base; unparsable input is returned as-is.
func ResolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(parsed).String()
}
