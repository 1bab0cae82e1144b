package news

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
)

const cnyesAPIURL = "https://api.cnyes.com/media/api/v1/newslist/category/tw_stock"

// CNYESColumns is the fixed output schema of the CNYES crawler.
var CNYESColumns = []string{"Date", "Time", "Author", "Head", "HashTag", "url", "Content"}

// CNYES scans the CNYES Taiwan-stock news JSON API. The listing response
// already carries the full article body, so enrichment is local: no second
// fetch per article.
type CNYES struct {
	client *http.Client
	logger *slog.Logger
	apiURL string
}

// NewCNYES returns a fresh session for one crawl.
func NewCNYES(client *http.Client, logger *slog.Logger) *CNYES {
	return &CNYES{client: client, logger: logger, apiURL: cnyesAPIURL}
}

// cnyesPayload carries listing fields past the scan into enrichment.
type cnyesPayload struct {
	hashTag string
	content string
}

type cnyesResponse struct {
	StatusCode int `json:"statusCode"`
	Items      struct {
		LastPage int               `json:"last_page"`
		Data     []json.RawMessage `json:"data"`
	} `json:"items"`
}

type cnyesItem struct {
	NewsID    int64  `json:"newsId"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	PublishAt *int64 `json:"publishAt"`
	Keyword   []any  `json:"keyword"`
	Content   string `json:"content"`
}

// FetchPage requests one page of the listing API.
func (s *CNYES) FetchPage(ctx context.Context, page int) (*crawl.Page, error) {
	body, err := get(ctx, s.client, fmt.Sprintf("%s?page=%d", s.apiURL, page), nil)
	if err != nil {
		return nil, err
	}

	var resp cnyesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode listing page %d: %w", page, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: CNYES statusCode %d", entity.ErrUpstreamFormat, resp.StatusCode)
	}

	result := &crawl.Page{LastPage: resp.Items.LastPage}
	for _, raw := range resp.Items.Data {
		var item cnyesItem
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Warn("skipping malformed CNYES listing item", slog.Any("error", err))
			continue
		}
		if item.PublishAt == nil {
			s.logger.Warn("CNYES item missing publishAt", slog.Int64("news_id", item.NewsID))
			continue
		}

		result.Items = append(result.Items, entity.Candidate{
			URL:       fmt.Sprintf("https://news.cnyes.com/news/id/%d", item.NewsID),
			Title:     item.Title,
			Author:    item.Author,
			Published: time.Unix(*item.PublishAt, 0).In(crawl.Taipei),
			Precision: entity.PrecisionTime,
			Payload: cnyesPayload{
				hashTag: joinKeywords(item.Keyword),
				content: item.Content,
			},
		})
	}
	return result, nil
}

// Enrich builds the final article from listing data alone. The listing
// body is HTML-entity-escaped HTML (&lt;p&gt; rather than <p>); it must be
// unescaped before Markdown conversion can see the tags.
func (s *CNYES) Enrich(_ context.Context, cand entity.Candidate) (*entity.Article, error) {
	payload, ok := cand.Payload.(cnyesPayload)
	if !ok {
		return nil, fmt.Errorf("%w: candidate without CNYES payload", entity.ErrUpstreamFormat)
	}

	published := cand.Published.In(crawl.Taipei)
	return &entity.Article{
		Date:    published.Format(crawl.DateLayout),
		Time:    published.Format("15:04:05"),
		Author:  cand.Author,
		Head:    cand.Title,
		HashTag: payload.hashTag,
		URL:     cand.URL,
		Content: htmlToMarkdown(html.UnescapeString(payload.content), false),
	}, nil
}

// joinKeywords flattens the API's keyword array into a comma-joined tag
// string, skipping empty entries.
func joinKeywords(keywords []any) string {
	parts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if s := strings.TrimSpace(fmt.Sprint(k)); s != "" && s != "<nil>" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}
