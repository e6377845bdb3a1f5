// Package scrape parses itch.io listing and jam detail pages into
// structured fields. It never fetches; bodies come from the fetch package.
package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jamscout/jamscout/internal/jam"
)

// MalformedPageError reports a page that fetched fine but is missing a
// structural element the parser depends on.
type MalformedPageError struct {
	// Reason names the missing or broken element.
	Reason string
}

func (e *MalformedPageError) Error() string { return "malformed page: " + e.Reason }

// JamPage holds the fields extracted from one jam detail page.
type JamPage struct {
	Name         string
	Start        time.Time
	DurationDays int
	Hashtag      string
	Description  string
	Owners       []jam.Owner
}

// Date spans appear in both formats depending on the page template.
var dateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// ParseJamPage extracts the jam fields from a detail page body. Every
// failure is a MalformedPageError naming the element at fault.
func ParseJamPage(body []byte) (*JamPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &MalformedPageError{Reason: fmt.Sprintf("unparsable markup: %v", err)}
	}

	name := strings.TrimSpace(doc.Find("h1.jam_title_header").First().Text())
	if name == "" {
		return nil, &MalformedPageError{Reason: "missing jam title"}
	}

	content := doc.Find("div.jam_content").First()
	if content.Length() == 0 {
		return nil, &MalformedPageError{Reason: "missing jam description"}
	}
	description, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, &MalformedPageError{Reason: fmt.Sprintf("render jam description: %v", err)}
	}

	host := doc.Find("div.jam_host_header").First()
	if host.Length() == 0 {
		return nil, &MalformedPageError{Reason: "missing jam host header"}
	}

	var (
		owners  []jam.Owner
		hashtag string
	)
	host.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if h := u.Hostname(); strings.HasSuffix(h, ".itch.io") {
			owners = append(owners, jam.Owner{
				ID:   strings.TrimSuffix(h, ".itch.io"),
				Name: strings.TrimSpace(a.Text()),
			})
			return
		}
		if hashtag == "" && strings.Contains(href, "twitter.com/hashtag/") {
			hashtag = strings.TrimSpace(a.Text())
		}
	})
	if len(owners) == 0 {
		return nil, &MalformedPageError{Reason: "no owner links in host header"}
	}

	// The first two date spans are the jam's start and end; some pages
	// carry a third for the voting deadline.
	dates := doc.Find("span.date_format")
	if n := dates.Length(); n < 2 {
		return nil, &MalformedPageError{Reason: fmt.Sprintf("expected 2 date markers, found %d", n)}
	}
	start, err := parseDate(dates.Eq(0).Text())
	if err != nil {
		return nil, &MalformedPageError{Reason: fmt.Sprintf("bad start date: %v", err)}
	}
	end, err := parseDate(dates.Eq(1).Text())
	if err != nil {
		return nil, &MalformedPageError{Reason: fmt.Sprintf("bad end date: %v", err)}
	}
	if end.Before(start) {
		return nil, &MalformedPageError{Reason: "end date before start date"}
	}

	return &JamPage{
		Name:         name,
		Start:        start,
		DurationDays: int(end.Sub(start).Hours() / 24),
		Hashtag:      hashtag,
		Description:  description,
		Owners:       owners,
	}, nil
}

// ParseListingPage extracts the jam IDs linked from one listing page, in
// page order. An empty result means the listing has run out of jams.
func ParseListingPage(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &MalformedPageError{Reason: fmt.Sprintf("unparsable markup: %v", err)}
	}
	var ids []string
	doc.Find("div.jam").Each(func(_ int, div *goquery.Selection) {
		href, ok := div.Find("h3 a").First().Attr("href")
		if !ok {
			return
		}
		if id := jamIDFromHref(href); id != "" {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

// jamIDFromHref pulls the ID out of a /jam/<id> link, absolute or relative.
func jamIDFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 || segs[0] != "jam" {
		return ""
	}
	return segs[1]
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
