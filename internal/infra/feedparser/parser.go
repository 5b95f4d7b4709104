// Package feedparser decodes RSS and Atom payloads into normalized articles.
//
// The dialect is sniffed once per payload and extraction is dispatched to the
// matching dialect. gofeed's dialect-specific parsers are used instead of the
// universal one so raw date strings reach timeutil.ParseDate untouched.
package feedparser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"

	"threatfeed/internal/domain/entity"
	"threatfeed/internal/usecase/fetch"
	"threatfeed/internal/utils/text"
	"threatfeed/internal/utils/timeutil"
)

// DefaultMaxItems is the number of entries taken from each feed, in feed order.
const DefaultMaxItems = 10

// NoTitle is used for entries without a title.
const NoTitle = "No title"

// Dialect is the closed set of feed formats the parser understands.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectRSS
	DialectAtom
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectRSS:
		return "rss"
	case DialectAtom:
		return "atom"
	default:
		return "unknown"
	}
}

// Detect sniffs the dialect of raw. RSS (2.0 and RDF) is checked before Atom.
func Detect(raw []byte) Dialect {
	switch gofeed.DetectFeedType(bytes.NewReader(raw)) {
	case gofeed.FeedTypeRSS:
		return DialectRSS
	case gofeed.FeedTypeAtom:
		return DialectAtom
	default:
		return DialectUnknown
	}
}

// entry is a dialect-neutral view of one feed item before normalization.
type entry struct {
	title   string
	summary string
	link    string
	date    string
}

// Parser turns feed payloads into articles. The zero value is not usable; call New.
type Parser struct {
	MaxItems int
}

// New returns a Parser with the default item cap.
func New() *Parser {
	return &Parser{MaxItems: DefaultMaxItems}
}

// Parse decodes raw into at most MaxItems articles attributed to sourceName.
// now fills in missing or unparseable dates and anchors PublishedAgo.
// On any failure it returns an empty slice and an error wrapping fetch.ErrMalformedFeed.
func (p *Parser) Parse(raw []byte, sourceName string, now time.Time) ([]entity.Article, error) {
	var (
		entries []entry
		err     error
	)

	if err := checkWellFormed(raw); err != nil {
		return []entity.Article{}, fmt.Errorf("%w: %v", fetch.ErrMalformedFeed, err)
	}

	switch Detect(raw) {
	case DialectRSS:
		entries, err = p.rssEntries(raw)
	case DialectAtom:
		entries, err = p.atomEntries(raw)
	default:
		return []entity.Article{}, fmt.Errorf("%w: unrecognized feed dialect", fetch.ErrMalformedFeed)
	}
	if err != nil {
		return []entity.Article{}, fmt.Errorf("%w: %v", fetch.ErrMalformedFeed, err)
	}

	articles := make([]entity.Article, 0, len(entries))
	for i, e := range entries {
		articles = append(articles, normalize(e, sourceName, i, now))
	}
	return articles, nil
}

// checkWellFormed walks every token of raw with a strict pull parser.
// gofeed's dialect parsers tolerate mismatched end tags and bare ampersands;
// a document rejected here fails the whole source.
func checkWellFormed(raw []byte) error {
	p := xpp.NewXMLPullParser(bytes.NewReader(raw), true, charset.NewReaderLabel)
	for {
		event, err := p.NextToken()
		if err != nil {
			return fmt.Errorf("xml: %w", err)
		}
		if event == xpp.EndDocument {
			if p.Depth != 0 {
				return fmt.Errorf("xml: %d unclosed elements", p.Depth)
			}
			return nil
		}
	}
}

func (p *Parser) limit(n int) int {
	maxItems := p.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return min(n, maxItems)
}

func (p *Parser) rssEntries(raw []byte) ([]entry, error) {
	fp := rss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	items := feed.Items[:p.limit(len(feed.Items))]
	entries := make([]entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, entry{
			title:   item.Title,
			summary: item.Description,
			link:    strings.TrimSpace(item.Link),
			date:    item.PubDate,
		})
	}
	return entries, nil
}

func (p *Parser) atomEntries(raw []byte) ([]entry, error) {
	fp := atom.Parser{}
	feed, err := fp.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse atom: %w", err)
	}

	items := feed.Entries[:p.limit(len(feed.Entries))]
	entries := make([]entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		e := entry{
			title:   item.Title,
			summary: item.Summary,
			date:    item.Published,
		}
		if e.date == "" {
			e.date = item.Updated
		}
		// First link element, as it appears in the entry.
		if len(item.Links) > 0 && item.Links[0] != nil {
			e.link = strings.TrimSpace(item.Links[0].Href)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func normalize(e entry, sourceName string, index int, now time.Time) entity.Article {
	title := text.CleanText(e.title)
	if title == "" {
		title = NoTitle
	}
	published := timeutil.ParseDate(e.date, now)

	return entity.Article{
		ID:           entity.ArticleID(sourceName, index),
		Title:        title,
		Summary:      text.Summarize(e.summary),
		Link:         e.link,
		Source:       sourceName,
		Published:    published,
		PublishedAgo: timeutil.TimeAgo(published, now),
	}
}
