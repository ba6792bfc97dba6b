package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/scrape"
)

// AuthorProfile is the biography block of an author page.
type AuthorProfile struct {
	Description string
	ImageLink   string
	Born        string
	Died        string
	Website     string
	Genre       string
	Influences  string
	Twitter     string
}

// ExtractAuthor parses an author page. It reports false when the page
// carries none of the profile landmarks.
func ExtractAuthor(doc *html.Node) (*AuthorProfile, bool) {
	p := &AuthorProfile{}
	found := false

	if left := scrape.Find(doc, scrape.All(scrape.Tag("div"), scrape.AttrContains("class", "leftContainer"))); left != nil {
		found = true
		p.ImageLink = strings.TrimSpace(scrape.Attr(scrape.Find(left, scrape.Tag("img")), "src"))
	}

	for _, title := range scrape.FindAll(doc, scrape.All(scrape.Tag("div"), scrape.AttrEquals("class", "dataTitle"))) {
		found = true
		value := ""
		if next := scrape.NextElement(title); next != nil && next.Data == "div" {
			value = scrape.CleanText(next)
		}

		switch key := strings.ToLower(scrape.CleanText(title)); key {
		case "born":
			p.Born = value
		case "died":
			p.Died = value
		case "genre":
			p.Genre = value
		case "website":
			p.Website = value
		case "influences":
			p.Influences = value
		case "twitter":
			p.Twitter = value
		case "url", "member since":
		default:
			logger.Get().Debug("Unknown author data row", map[string]interface{}{"title": key})
		}
	}

	about := scrape.FindPath(doc,
		scrape.All(scrape.Tag("div"), scrape.AttrEquals("class", "rightContainer")),
		scrape.All(scrape.Tag("div"), scrape.AttrEquals("class", "aboutAuthorInfo")))
	if about != nil {
		spans := scrape.FindAll(about, scrape.All(scrape.Tag("span"), scrape.AttrContains("id", "freeText")))
		// the second span holds the untruncated text when both are present
		switch {
		case len(spans) > 1:
			p.Description = scrape.InnerHTML(spans[1])
		case len(spans) == 1:
			p.Description = scrape.InnerHTML(spans[0])
		}
		found = found || len(spans) > 0
	}

	if !found {
		return nil, false
	}
	return p, true
}
