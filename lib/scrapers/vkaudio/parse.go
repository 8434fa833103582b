package vkaudio

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"

	"audiogate-backend/lib/htmlutil"
)

// Item is one scraped audio track. MediaUrl never leaves the engine;
// callers identify items by Id, a stable hash of the normalized media
// URL rather than anything the site assigns.
type Item struct {
	Id       string `json:"id"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	MediaUrl string `json:"mp3"`
}

const (
	itemSelector       = "div.audio_item"
	artistSelector     = "span.ai_artist"
	titleSelector      = "span.ai_title"
	durationSelector   = "div.ai_dur"
	durationAttr       = "data-dur"
	mediaInputSelector = "input[type=hidden]"
)

func normalizeMediaUrl(raw string) string {
	normalized, err := purell.NormalizeURLString(
		raw,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagSortQuery,
	)
	if err != nil {
		return raw
	}
	return normalized
}

// parseItems extracts audio tracks from a search results page. each
// item's markup is re-parsed in isolation so one malformed container
// cannot poison its siblings, and items with missing sub-elements
// degrade to empty/zero fields instead of failing the page. this keeps
// partial results flowing when the site shuffles its markup.
func (e *Engine) parseItems(doc *goquery.Document) []Item {
	var items []Item
	doc.Find(itemSelector).Each(func(_ int, container *goquery.Selection) {
		fragment, err := goquery.OuterHtml(container)
		if err != nil {
			return
		}
		inner, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err != nil {
			return
		}

		item := Item{
			Artist:   htmlutil.CleanText(inner.Find(artistSelector).Text()),
			Title:    htmlutil.CleanText(inner.Find(titleSelector).Text()),
			MediaUrl: inner.Find(mediaInputSelector).AttrOr("value", ""),
		}
		item.Duration, _ = strconv.Atoi(inner.Find(durationSelector).AttrOr(durationAttr, ""))
		if item.MediaUrl != "" {
			item.Id = e.hash(normalizeMediaUrl(item.MediaUrl))
		}

		items = append(items, item)
	})
	return items
}
