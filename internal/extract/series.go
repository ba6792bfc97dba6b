package extract

import (
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/scrape"
)

// SeriesPage is a parsed series listing.
type SeriesPage struct {
	Title       string
	Description string
	Books       []SeriesBook
}

// SeriesBook is one entry of a series listing.
type SeriesBook struct {
	Title     string
	Volume    string
	Link      string
	CoverLink string
}

type seriesHeaderProps struct {
	Title       string `json:"title"`
	Description struct {
		HTML string `json:"html"`
	} `json:"description"`
}

type seriesListProps struct {
	Series []struct {
		Book struct {
			Title    string `json:"title"`
			BookURL  string `json:"bookUrl"`
			ImageURL string `json:"imageUrl"`
		} `json:"book"`
	} `json:"series"`
	SeriesHeaders []*string `json:"seriesHeaders"`
}

const (
	seriesHeaderClass = "ReactComponents.SeriesHeader"
	seriesListClass   = "ReactComponents.SeriesList"
)

// ExtractSeries parses a series page fetched from link. The page embeds
// its data as JSON in data-react-props attributes. It reports false when
// the header component is missing or unreadable.
func ExtractSeries(doc *html.Node, link string) (*SeriesPage, bool) {
	header := scrape.Find(doc, scrape.All(scrape.Tag("div"), scrape.AttrEquals("data-react-class", seriesHeaderClass)))
	if header == nil {
		return nil, false
	}

	var hp seriesHeaderProps
	if err := json.Unmarshal([]byte(scrape.Attr(header, "data-react-props")), &hp); err != nil {
		logger.Get().Debug("Unreadable series header", map[string]interface{}{"link": link, "error": err.Error()})
		return nil, false
	}

	page := &SeriesPage{
		Title:       strings.TrimSpace(hp.Title),
		Description: strings.TrimSpace(hp.Description.HTML),
	}

	base, _ := url.Parse(link)
	for _, list := range scrape.FindAll(doc, scrape.All(scrape.Tag("div"), scrape.AttrEquals("data-react-class", seriesListClass))) {
		var lp seriesListProps
		if err := json.Unmarshal([]byte(scrape.Attr(list, "data-react-props")), &lp); err != nil {
			logger.Get().Debug("Skipping unreadable series list", map[string]interface{}{"link": link, "error": err.Error()})
			continue
		}

		for i, item := range lp.Series {
			parsed := scrape.NewCandidate(item.Book.Title, nil, "")

			volume := parsed.SeriesVolume
			if i < len(lp.SeriesHeaders) && lp.SeriesHeaders[i] != nil {
				volume = strings.TrimSpace(strings.Replace(*lp.SeriesHeaders[i], "Book", " ", 1))
			}

			bookLink := item.Book.BookURL
			if base != nil {
				bookLink = scrape.ResolveURL(base, bookLink)
			}

			page.Books = append(page.Books, SeriesBook{
				Title:     parsed.Title,
				Volume:    volume,
				Link:      bookLink,
				CoverLink: item.Book.ImageURL,
			})
		}
	}

	return page, true
}
