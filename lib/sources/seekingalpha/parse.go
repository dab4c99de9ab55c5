package seekingalpha

// Every selector the scraper depends on lives here. The listing
// contract is: one <article> per entry, an <h3> holding the title, an
// <a> holding the article href, a <span> holding the date. A
// transcript's body is the text of the page's <p> tags. None of this
// is a stable API; when the markup changes, this file is the fix.

import (
	"bytes"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// titleMarker selects earnings calls out of listings that mix in
// other transcript kinds.
const titleMarker = "Earnings Call Transcript"

type listingCard struct {
	title    string
	href     string
	dateText string
}

func parseListing(body []byte) ([]listingCard, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var cards []listingCard
	doc.Find("article").Each(func(_ int, art *goquery.Selection) {
		title := strings.TrimSpace(art.Find("h3").First().Text())
		if !strings.Contains(title, titleMarker) {
			return
		}
		href, ok := art.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}
		cards = append(cards, listingCard{
			title:    title,
			href:     href,
			dateText: strings.TrimSpace(art.Find("span").First().Text()),
		})
	})
	return cards, nil
}

// listingDateLayouts covers the date renderings seen on listing pages.
var listingDateLayouts = []string{
	"Jan. 2, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02",
}

func parseListingDate(s string) (time.Time, bool) {
	// Go's month abbreviations don't include "Sept."
	s = strings.Replace(s, "Sept.", "Sep.", 1)
	for _, layout := range listingDateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func parseTranscript(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var lines []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	return strings.Join(lines, "\n"), nil
}
