package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
)

const (
	udnBaseURL     = "https://money.udn.com"
	udnListPathFmt = "/rank/newest/1001/5591/%d"
)

// MoneyUDNColumns is the fixed output schema of the MoneyUDN crawler.
var MoneyUDNColumns = []string{"Date", "Time", "Author", "Head", "url", "Content"}

// MoneyUDN scans the Economic Daily newest-article ranking on money.udn.com.
// Listing pages embed a JSON-LD ItemList with full publish datetimes, so
// listing candidates always carry second precision.
type MoneyUDN struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewMoneyUDN returns a fresh session for one crawl.
func NewMoneyUDN(client *http.Client, logger *slog.Logger) *MoneyUDN {
	return &MoneyUDN{client: client, logger: logger, baseURL: udnBaseURL}
}

// udnArticle is one NewsArticle object inside the JSON-LD ItemList. The
// author field varies between an object, a list and a bare string.
type udnArticle struct {
	Type          string          `json:"@type"`
	Name          string          `json:"name"`
	Headline      string          `json:"headline"`
	URL           string          `json:"url"`
	DatePublished string          `json:"datePublished"`
	Author        json.RawMessage `json:"author"`
}

type udnListElement struct {
	Item *udnArticle `json:"item"`
	udnArticle
}

type udnItemList struct {
	Type            string           `json:"@type"`
	ItemListElement []udnListElement `json:"itemListElement"`
}

// FetchPage fetches a ranking page and extracts its JSON-LD ItemList.
func (s *MoneyUDN) FetchPage(ctx context.Context, page int) (*crawl.Page, error) {
	body, err := get(ctx, s.client, s.baseURL+fmt.Sprintf(udnListPathFmt, page), map[string]string{
		"Referer": udnBaseURL + "/",
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page %d: %w", page, err)
	}

	articles := extractItemList(doc)
	result := &crawl.Page{}
	for _, article := range articles {
		if article.URL == "" {
			continue
		}

		title := article.Name
		if title == "" {
			title = article.Headline
		}
		cand := entity.Candidate{
			URL:    udnCanonicalURL(article.URL),
			Title:  title,
			Author: udnAuthorName(article.Author),
		}

		if ts, ok := parseUDNDatetime(article.DatePublished); ok {
			cand.Published = ts
			cand.Precision = entity.PrecisionTime
		} else if article.DatePublished != "" {
			s.logger.Warn("unparseable datePublished",
				slog.String("url", article.URL),
				slog.String("value", article.DatePublished))
		}

		result.Items = append(result.Items, cand)
	}
	return result, nil
}

// extractItemList walks every ld+json script for the first ItemList whose
// elements are NewsArticle objects. The payload may be a single object or
// wrapped in an @graph array.
func extractItemList(doc *goquery.Document) []udnArticle {
	var found []udnArticle
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var root struct {
			udnItemList
			Graph []udnItemList `json:"@graph"`
		}
		if err := json.Unmarshal([]byte(script.Text()), &root); err != nil {
			return true
		}

		lists := root.Graph
		if len(lists) == 0 {
			lists = []udnItemList{root.udnItemList}
		}

		for _, list := range lists {
			if list.Type != "ItemList" {
				continue
			}
			var articles []udnArticle
			for _, element := range list.ItemListElement {
				article := element.udnArticle
				if element.Item != nil {
					article = *element.Item
				}
				if article.Type == "NewsArticle" {
					articles = append(articles, article)
				}
			}
			if len(articles) > 0 {
				found = articles
				return false
			}
		}
		return true
	})
	return found
}

// udnCanonicalURL strips tracking query parameters and resolves relative
// links against the site root.
func udnCanonicalURL(raw string) string {
	url, _, _ := strings.Cut(raw, "?")
	if strings.HasPrefix(url, "http") {
		return url
	}
	return udnBaseURL + url
}

// udnAuthorName flattens the polymorphic JSON-LD author field.
func udnAuthorName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return obj.Name
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var names []string
		for _, elem := range list {
			if name := udnAuthorName(elem); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ",")
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	return ""
}

var udnDatetimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseUDNDatetime(value string) (time.Time, bool) {
	for _, layout := range udnDatetimeLayouts {
		if ts, err := time.ParseInLocation(layout, value, crawl.Taipei); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Enrich fetches the article page and renders the body as Markdown with
// images kept, the hero image prepended as ![caption](src).
func (s *MoneyUDN) Enrich(ctx context.Context, cand entity.Candidate) (*entity.Article, error) {
	body, err := get(ctx, s.client, cand.URL, map[string]string{
		"Referer": udnBaseURL + "/",
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article page: %w", err)
	}

	article := &entity.Article{
		Author: cand.Author,
		Head:   cand.Title,
		URL:    cand.URL,
	}

	// The JSON-LD listing normally carries a full timestamp; when it did
	// not, the article page's own publish meta is the next best source.
	published, havePublished := cand.Published, cand.Precision != entity.PrecisionNone
	if !havePublished {
		if content, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
			published, havePublished = parseUDNDatetime(content)
		}
	}
	if havePublished {
		published = published.In(crawl.Taipei)
		article.Date = published.Format(crawl.DateLayout)
		article.Time = published.Format("15:04:05")
	}

	article.Content = udnContent(doc, string(body), cand.URL, s.logger)
	return article, nil
}

// udnContent extracts the article body as Markdown. The hero image sits
// outside the body container and is rendered in front of it.
func udnContent(doc *goquery.Document, pageHTML, url string, logger *slog.Logger) string {
	hero := udnHeroImage(doc)

	container := doc.Find("#article_body").First()
	if container.Length() == 0 {
		container = doc.Find("section.article-body__editor").First()
	}
	if container.Length() == 0 {
		logger.Warn("article body container not found, falling back to readability",
			slog.String("url", url))
		if text := extractReadable(pageHTML, url); text != "" {
			if hero != "" {
				return hero + "\n\n" + text
			}
			return text
		}
		return hero
	}

	container.Find("div.edn-ads--inlineAds").Remove()
	container.Find("script, style").Remove()

	htmlBody, err := goquery.OuterHtml(container)
	if err != nil {
		return hero
	}
	content := strings.TrimSpace(htmlToMarkdown(htmlBody, true))

	if hero != "" {
		return hero + "\n\n" + content
	}
	return content
}

func udnHeroImage(doc *goquery.Document) string {
	img := doc.Find("figure.article-image img").First()
	if img.Length() == 0 {
		return ""
	}
	src, _ := img.Attr("src")
	if src == "" {
		src, _ = img.Attr("data-src")
	}
	if src == "" {
		return ""
	}
	caption := strings.TrimSpace(doc.Find("figure.article-image figcaption").First().Text())
	return fmt.Sprintf("![%s](%s)", caption, src)
}
