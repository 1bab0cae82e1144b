package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
)

const (
	cteeBaseURL    = "https://www.ctee.com.tw"
	cteeListPath   = "/stock/twmarket"
	cteeAPIPathFmt = "/api/category/twmarket/%d"
)

// CTEEColumns is the fixed output schema of the CTEE crawler.
var CTEEColumns = []string{"Date", "Time", "Author", "Head", "SubHead", "HashTag", "url", "Content"}

var clockRe = regexp.MustCompile(`(\d{1,2}:\d{2}(?::\d{2})?)`)

// CTEE scans the CTEE Taiwan-market news category. Page 1 comes from the
// listing page HTML (date-only timestamps); pages 2 and up come from the
// category JSON API which carries full publish datetimes.
type CTEE struct {
	client     *http.Client
	logger     *slog.Logger
	targetDate string
	baseURL    string
}

// NewCTEE returns a fresh session for one crawl.
func NewCTEE(client *http.Client, target time.Time, logger *slog.Logger) *CTEE {
	return &CTEE{
		client:     client,
		logger:     logger,
		targetDate: target.In(crawl.Taipei).Format(crawl.DateLayout),
		baseURL:    cteeBaseURL,
	}
}

// cteePayload carries listing metadata into enrichment.
type cteePayload struct {
	Author string
	Clock  string // HH:MM:SS from the API publish datetime, may be empty
}

// FetchPage fetches listing page 1 from HTML and later pages from the API.
func (s *CTEE) FetchPage(ctx context.Context, page int) (*crawl.Page, error) {
	if page == 1 {
		return s.fetchHTMLPage(ctx)
	}
	return s.fetchAPIPage(ctx, page)
}

func (s *CTEE) fetchHTMLPage(ctx context.Context) (*crawl.Page, error) {
	body, err := get(ctx, s.client, s.baseURL+cteeListPath, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	result := &crawl.Page{}
	doc.Find("div.newslist__card").Each(func(_ int, card *goquery.Selection) {
		titleLink := card.Find("h3.news-title a")
		href, _ := titleLink.Attr("href")
		if href == "" || !strings.Contains(href, "/news/") {
			return
		}

		cand := entity.Candidate{
			URL:   cteeArticleURL(href),
			Title: strings.TrimSpace(titleLink.Text()),
		}

		// Listing cards only show a date, never a clock.
		dateText := strings.TrimSpace(card.Find("time.news-time").Text())
		if day, err := dateparse.ParseIn(dateText, crawl.Taipei); err == nil {
			cand.Published = day
			cand.Precision = entity.PrecisionDate
		}

		result.Items = append(result.Items, cand)
	})
	return result, nil
}

// cteeAPIItem is one entry of the category JSON API response.
type cteeAPIItem struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	HyperLink       string `json:"hyperLink"`
	PublishDatetime string `json:"publishDatetime"` // "2026-02-26T18:48:12"
	PublishDate     string `json:"publishDate"`     // "2026.02.26"
}

func (s *CTEE) fetchAPIPage(ctx context.Context, page int) (*crawl.Page, error) {
	body, err := get(ctx, s.client, s.baseURL+fmt.Sprintf(cteeAPIPathFmt, page), nil)
	if err != nil {
		return nil, err
	}

	var items []cteeAPIItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode API page %d: %w", page, entity.ErrUpstreamFormat)
	}

	result := &crawl.Page{}
	for _, item := range items {
		if item.HyperLink == "" {
			continue
		}
		cand := entity.Candidate{
			URL:   cteeArticleURL(item.HyperLink),
			Title: item.Title,
		}

		payload := cteePayload{Author: item.Author}
		if ts, err := time.ParseInLocation("2006-01-02T15:04:05", item.PublishDatetime, crawl.Taipei); err == nil {
			cand.Published = ts
			cand.Precision = entity.PrecisionTime
			payload.Clock = ts.Format("15:04:05")
		} else if day, err := dateparse.ParseIn(item.PublishDate, crawl.Taipei); err == nil {
			cand.Published = day
			cand.Precision = entity.PrecisionDate
		}
		cand.Payload = payload

		result.Items = append(result.Items, cand)
	}
	return result, nil
}

func cteeArticleURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return cteeBaseURL + href
	}
	return href
}

// Enrich fetches the article page for subtitle, tags, precise publish
// time, author and body. Listing metadata fills the gaps the page leaves.
func (s *CTEE) Enrich(ctx context.Context, cand entity.Candidate) (*entity.Article, error) {
	body, err := get(ctx, s.client, cand.URL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article page: %w", err)
	}

	payload, _ := cand.Payload.(cteePayload)

	article := &entity.Article{
		Date:    cand.EffectiveDate(s.targetDate),
		Head:    cand.Title,
		URL:     cand.URL,
		SubHead: strings.TrimSpace(doc.Find(".sub-title").First().Text()),
		HashTag: cteeHashTags(doc),
	}

	article.Time = cteePublishClock(doc)
	if article.Time == "" {
		article.Time = payload.Clock
	}

	article.Author = strings.TrimSpace(doc.Find("li.publish-author").First().Text())
	if article.Author == "" {
		article.Author, _ = doc.Find(`meta[name="author"]`).Attr("content")
	}
	if article.Author == "" {
		article.Author = payload.Author
	}

	article.Content = cteeBody(doc)
	if article.Content == "" {
		s.logger.Warn("body selectors matched nothing, falling back to readability",
			slog.String("url", cand.URL))
		article.Content = extractReadable(string(body), cand.URL)
	}
	return article, nil
}

// cteeHashTags reads the tag list, falling back to the keywords meta.
func cteeHashTags(doc *goquery.Document) string {
	var tags []string
	doc.Find("li.taglist__item").Each(func(_ int, tag *goquery.Selection) {
		if text := strings.TrimSpace(tag.Text()); text != "" {
			tags = append(tags, text)
		}
	})
	if len(tags) == 0 {
		if content, ok := doc.Find(`meta[name="keywords"]`).Attr("content"); ok {
			for _, kw := range strings.Split(content, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					tags = append(tags, kw)
				}
			}
		}
	}
	return strings.Join(tags, ",")
}

// cteePublishClock extracts the publish time of day from the page meta,
// falling back to the visible publish-time element.
func cteePublishClock(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="article:published_time"]`).Attr("content"); ok {
		if clock := extractClock(content); clock != "" {
			return clock
		}
	}
	return extractClock(strings.TrimSpace(doc.Find("li.publish-time").First().Text()))
}

// extractClock pulls an HH:MM[:SS] time of day out of an ISO datetime or a
// free-form string.
func extractClock(text string) string {
	if text == "" {
		return ""
	}
	if _, after, found := strings.Cut(text, "T"); found {
		for _, sep := range []string{"+", "Z"} {
			if idx := strings.Index(after, sep); idx != -1 {
				after = after[:idx]
			}
		}
		return after
	}
	return clockRe.FindString(text)
}

// cteeBody joins the article paragraphs, trying container selectors from
// most to least specific. Clipboard-button helper paragraphs are dropped.
func cteeBody(doc *goquery.Document) string {
	for _, selector := range []string{
		"div.article-wrap article",
		"div.article-wrap",
		"div.entry-content",
	} {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		var parts []string
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if text != "" && !strings.Contains(text, "剪貼簿") {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
	}
	return ""
}
