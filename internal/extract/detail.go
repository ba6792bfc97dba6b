// Package extract reads structured records out of fetched catalogue pages:
// book details, author profiles and series listings.
package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/superversivesf/saga-importer/internal/scrape"
)

// Credit is one author credited on a book in one role.
type Credit struct {
	Name string
	Link string
	Role Role
}

// Detail is a parsed book page ready to merge.
type Detail struct {
	Title          string
	Description    string
	SeriesTitle    string
	SeriesVolume   string
	SeriesLink     string
	Genres         []string
	Authors        []Credit
	Link           string
	CoverImageLink string
}

// authorEntry is an author node before role classification.
type authorEntry struct {
	name       string
	link       string
	descriptor string
}

// Extract parses a book page fetched from link. It reports false when the
// page lacks either top-level content region.
func Extract(doc *html.Node, link string) (*Detail, bool) {
	left := scrape.Find(doc, scrape.All(scrape.Tag("div"), scrape.Class("leftContainer")))
	right := scrape.Find(doc, scrape.All(scrape.Tag("div"), scrape.Class("rightContainer")))
	if left == nil || right == nil {
		return nil, false
	}

	base, _ := url.Parse(link)
	resolve := func(href string) string {
		if base == nil {
			return href
		}
		return scrape.ResolveURL(base, href)
	}

	meta := scrape.Find(left, scrape.ID("metacol"))
	if meta == nil {
		meta = left
	}

	d := &Detail{
		Link:           strings.TrimSpace(strings.SplitN(link, "?", 2)[0]),
		Title:          scrape.CleanText(scrape.Find(meta, scrape.All(scrape.Tag("h1"), scrape.ID("bookTitle")))),
		CoverImageLink: strings.TrimSpace(scrape.Attr(scrape.Find(doc, scrape.All(scrape.Tag("img"), scrape.ID("coverImage"))), "src")),
		Description:    description(meta),
		Genres:         genres(right),
	}

	if a := scrape.FindPath(meta, scrape.All(scrape.Tag("h2"), scrape.ID("bookSeries")), scrape.Tag("a")); a != nil {
		d.SeriesTitle, d.SeriesVolume = ParseSeriesLabel(scrape.CleanText(a))
		d.SeriesLink = resolve(scrape.Attr(a, "href"))
	}

	for _, e := range authorEntries(meta) {
		for _, role := range Classify(e.descriptor) {
			d.Authors = append(d.Authors, Credit{Name: e.name, Link: resolve(e.link), Role: role})
		}
	}

	return d, true
}

// ParseSeriesLabel splits a label like "(Dune #1)" into name and volume.
// The volume is empty when the label carries none.
func ParseSeriesLabel(label string) (name, volume string) {
	label = strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(label)
	parts := strings.SplitN(label, "#", 2)
	name = strings.Join(strings.Fields(parts[0]), " ")
	if len(parts) > 1 {
		volume = strings.TrimSpace(parts[1])
	}
	return name, volume
}

// description prefers the expanded span over the truncated one.
func description(meta *html.Node) string {
	desc := scrape.FindPath(meta,
		scrape.All(scrape.Tag("div"), scrape.ID("descriptionContainer")),
		scrape.All(scrape.Tag("div"), scrape.ID("description")))
	spans := scrape.Children(desc, scrape.Tag("span"))

	if len(spans) > 1 {
		if s := scrape.InnerHTML(spans[1]); s != "" {
			return s
		}
	}
	if len(spans) > 0 {
		return scrape.InnerHTML(spans[0])
	}
	return ""
}

func genres(right *html.Node) []string {
	var out []string
	seen := make(map[string]bool)
	for _, stacked := range scrape.FindAll(right, scrape.All(scrape.Tag("div"), scrape.Class("stacked"))) {
		for _, list := range scrape.FindAll(stacked, scrape.All(scrape.Tag("div"), scrape.Class("elementList"))) {
			for _, left := range scrape.FindAll(list, scrape.All(scrape.Tag("div"), scrape.Class("left"))) {
				for _, a := range scrape.FindAll(left, scrape.Tag("a")) {
					g := scrape.CleanText(a)
					if g != "" && !seen[g] {
						seen[g] = true
						out = append(out, g)
					}
				}
			}
		}
	}
	return out
}

// authorEntries normalizes the primary author blocks and the overflow
// "more authors" links into one list.
func authorEntries(meta *html.Node) []authorEntry {
	var entries []authorEntry

	for _, div := range scrape.FindAll(meta, scrape.All(scrape.Tag("div"), scrape.AttrContains("class", "authorName"))) {
		text := strings.ReplaceAll(scrape.Text(div), ",", " ")
		name, descriptor := text, ""
		if i := strings.Index(text, "("); i >= 0 {
			name, descriptor = text[:i], text[i:]
		}
		name = strings.Join(strings.Fields(name), " ")
		if name == "" {
			continue
		}
		entries = append(entries, authorEntry{
			name:       name,
			link:       scrape.Attr(scrape.Find(div, scrape.Tag("a")), "href"),
			descriptor: strings.TrimSpace(descriptor),
		})
	}

	for _, toggle := range scrape.FindAll(meta, scrape.All(scrape.Tag("span"), scrape.Class("toggleContent"))) {
		for _, a := range scrape.Children(toggle, scrape.All(scrape.Tag("a"), scrape.Class("authorName"))) {
			name := scrape.CleanText(a)
			if name == "" {
				continue
			}
			var descriptor string
			if next := scrape.NextElement(a); next != nil && next.Data == "span" {
				descriptor = scrape.CleanText(next)
			}
			entries = append(entries, authorEntry{name: name, link: scrape.Attr(a, "href"), descriptor: descriptor})
		}
	}

	return entries
}
