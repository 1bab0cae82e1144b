package news

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
)

const (
	pttBaseURL        = "https://www.ptt.cc"
	pttStockIndexPath = "/bbs/stock/index.html"

	// pttTimeLayout matches the metaline timestamp, e.g.
	// "Fri Feb 27 14:30:00 2026".
	pttTimeLayout = "Mon Jan 2 15:04:05 2006"
)

// PTTColumns is the fixed output schema of the PTT crawler.
var PTTColumns = []string{"Date", "Time", "Author", "Head", "url", "Content"}

var pttListDateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)

// PTT scans the PTT Stock board. The board paginates backwards through
// previous-page links, so the session keeps a cursor: FetchPage(n+1)
// follows the link discovered while fetching page n. Listing rows only
// show month/day; the year comes from the crawl's target date and the
// precise timestamp from the article page.
type PTT struct {
	client     *http.Client
	logger     *slog.Logger
	targetYear int
	baseURL    string
	nextURL    string
	exhausted  bool
}

// NewPTT returns a fresh session for one crawl.
func NewPTT(client *http.Client, target time.Time, logger *slog.Logger) *PTT {
	return &PTT{
		client:     client,
		logger:     logger,
		targetYear: target.In(crawl.Taipei).Year(),
		baseURL:    pttBaseURL,
		nextURL:    pttBaseURL + pttStockIndexPath,
	}
}

// FetchPage fetches the next board page in the cursor walk.
func (s *PTT) FetchPage(ctx context.Context, page int) (*crawl.Page, error) {
	if s.exhausted {
		return &crawl.Page{}, nil
	}

	body, err := get(ctx, s.client, s.nextURL, map[string]string{
		// Age gate: the board requires the over18 confirmation cookie.
		"Cookie": "over18=1",
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse board page %d: %w", page, err)
	}

	result := &crawl.Page{}
	doc.Find("div.r-ent").Each(func(_ int, entry *goquery.Selection) {
		link := entry.Find("div.title a")
		href, hasHref := link.Attr("href")
		if !hasHref || href == "" {
			// Deleted posts keep their row but lose the link.
			return
		}

		cand := entity.Candidate{
			URL:    s.baseURL + href,
			Title:  strings.TrimSpace(link.Text()),
			Author: strings.TrimSpace(entry.Find("div.meta div.author").Text()),
		}

		dateText := strings.TrimSpace(entry.Find("div.meta div.date").Text())
		if day, ok := s.parseListDate(dateText); ok {
			cand.Published = day
			cand.Precision = entity.PrecisionDate
		}
		// No parseable date: PrecisionNone, left to the conservative-include
		// policy and the article page's full timestamp.

		result.Items = append(result.Items, cand)
	})

	s.advanceCursor(doc)
	return result, nil
}

// advanceCursor finds the previous-page link for the next FetchPage call.
func (s *PTT) advanceCursor(doc *goquery.Document) {
	s.exhausted = true
	doc.Find("div.btn-group-paging a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), "上頁") {
			return true
		}
		if href, ok := a.Attr("href"); ok && href != "" {
			s.nextURL = s.baseURL + href
			s.exhausted = false
		}
		return false
	})
}

// parseListDate completes a board-row "M/DD" date with the target year.
func (s *PTT) parseListDate(text string) (time.Time, bool) {
	m := pttListDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(s.targetYear, time.Month(month), day, 0, 0, 0, 0, crawl.Taipei), true
}

// Enrich fetches the article page for its full timestamp and body.
func (s *PTT) Enrich(ctx context.Context, cand entity.Candidate) (*entity.Article, error) {
	body, err := get(ctx, s.client, cand.URL, map[string]string{"Cookie": "over18=1"})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article page: %w", err)
	}

	article := &entity.Article{
		Date:   cand.EffectiveDate(fmt.Sprintf("%d-01-01", s.targetYear)),
		Author: cand.Author,
		Head:   cand.Title,
		URL:    cand.URL,
	}

	// The third metaline value is the full timestamp.
	metaValues := doc.Find("div.article-metaline span.article-meta-value")
	if metaValues.Length() >= 3 {
		timeText := strings.TrimSpace(metaValues.Eq(2).Text())
		if ts, err := time.ParseInLocation(pttTimeLayout, timeText, crawl.Taipei); err == nil {
			article.Date = ts.Format(crawl.DateLayout)
			article.Time = ts.Format("15:04:05")
		} else {
			s.logger.Warn("unparseable article timestamp",
				slog.String("url", cand.URL),
				slog.String("text", timeText))
		}
	}

	article.Content = extractPTTContent(doc)
	return article, nil
}

// extractPTTContent pulls the post body: main-content minus the metalines
// and push comments, truncated at the signature marker. Posts are plain
// text; Markdown conversion is only a fallback when the cleanup left
// implausibly little behind.
func extractPTTContent(doc *goquery.Document) string {
	main := doc.Find("div#main-content")
	if main.Length() == 0 {
		return ""
	}

	cleaned := main.Clone()
	cleaned.Find("div.article-metaline, div.article-metaline-right, div.push").Remove()

	text := cleaned.Text()
	for _, marker := range []string{"※ 發信站", "--"} {
		if idx := strings.LastIndex(text, marker); idx != -1 {
			text = text[:idx]
			break
		}
	}
	text = strings.TrimSpace(text)

	if len(text) < 10 {
		if htmlBody, err := goquery.OuterHtml(cleaned); err == nil {
			return htmlToMarkdown(htmlBody, false)
		}
	}
	return text
}
