package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
)

func TestMoneyUDN_FetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rank/newest/1001/5591/1" {
			t.Errorf("path = %q, want listing page 1", r.URL.Path)
		}
		_, _ = w.Write([]byte(`<html><head>
			<script type="application/ld+json">{"@type":"WebSite","name":"經濟日報"}</script>
			<script type="application/ld+json">{
				"@context": "https://schema.org",
				"@type": "ItemList",
				"itemListElement": [
					{
						"@type": "ListItem",
						"position": 1,
						"item": {
							"@type": "NewsArticle",
							"name": "台積電法說會亮眼",
							"url": "https://money.udn.com/money/story/5591/8600001?from=edn_newestlist_rank",
							"datePublished": "2026-02-27T20:30:31+08:00",
							"author": {"@type": "Person", "name": "記者丁"}
						}
					},
					{
						"@type": "ListItem",
						"position": 2,
						"item": {
							"@type": "NewsArticle",
							"name": "多位作者的報導",
							"url": "/money/story/5591/8600002",
							"datePublished": "2026-02-27 19:05:00",
							"author": [{"name": "記者戊"}, {"name": "記者己"}]
						}
					}
				]
			}</script>
		</head><body></body></html>`))
	}))
	defer server.Close()

	s := NewMoneyUDN(server.Client(), discardLogger())
	s.baseURL = server.URL

	page, err := s.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items length = %d, want 2", len(page.Items))
	}

	first := page.Items[0]
	if first.URL != "https://money.udn.com/money/story/5591/8600001" {
		t.Errorf("URL = %q, want tracking params stripped", first.URL)
	}
	if first.Author != "記者丁" {
		t.Errorf("Author = %q", first.Author)
	}
	if first.Precision != entity.PrecisionTime {
		t.Errorf("Precision = %v, want PrecisionTime", first.Precision)
	}
	want := time.Date(2026, 2, 27, 20, 30, 31, 0, crawl.Taipei)
	if !first.Published.Equal(want) {
		t.Errorf("Published = %v, want %v", first.Published, want)
	}

	second := page.Items[1]
	if second.Author != "記者戊,記者己" {
		t.Errorf("list Author = %q, want joined names", second.Author)
	}
	if !strings.HasPrefix(second.URL, udnBaseURL) {
		t.Errorf("relative URL not resolved: %q", second.URL)
	}
}

func TestMoneyUDN_FetchPage_NoItemList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head></head><body>無結構化資料</body></html>`))
	}))
	defer server.Close()

	s := NewMoneyUDN(server.Client(), discardLogger())
	s.baseURL = server.URL

	page, err := s.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	// An empty page is the scanner's stop signal, not an error.
	if len(page.Items) != 0 {
		t.Errorf("items length = %d, want 0", len(page.Items))
	}
}

func TestMoneyUDN_Enrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<figure class="article-image">
				<img src="https://pgw.udn.com.tw/gw/photo.php?u=8600001.jpg">
				<figcaption>台積電晶圓廠。</figcaption>
			</figure>
			<section id="article_body" class="article-body__editor">
				<p>台積電今日召開法說會。</p>
				<div class="edn-ads--inlineAds"><p>廣告內容</p></div>
				<script>trackPageView();</script>
				<p>展望下季持續成長。</p>
			</section>
		</body></html>`))
	}))
	defer server.Close()

	s := NewMoneyUDN(server.Client(), discardLogger())
	s.baseURL = server.URL

	cand := entity.Candidate{
		URL:       server.URL + "/money/story/5591/8600001",
		Title:     "台積電法說會亮眼",
		Author:    "記者丁",
		Published: time.Date(2026, 2, 27, 20, 30, 31, 0, crawl.Taipei),
		Precision: entity.PrecisionTime,
	}

	article, err := s.Enrich(context.Background(), cand)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	if article.Date != "2026-02-27" || article.Time != "20:30:31" {
		t.Errorf("Date/Time = %q/%q", article.Date, article.Time)
	}
	if !strings.HasPrefix(article.Content, "![台積電晶圓廠。](https://pgw.udn.com.tw/gw/photo.php?u=8600001.jpg)") {
		t.Errorf("Content does not start with hero image: %q", article.Content)
	}
	if strings.Contains(article.Content, "廣告內容") || strings.Contains(article.Content, "trackPageView") {
		t.Errorf("Content kept removed elements: %q", article.Content)
	}
	if !strings.Contains(article.Content, "展望下季持續成長") {
		t.Errorf("Content missing body paragraph: %q", article.Content)
	}
}

func TestMoneyUDN_Enrich_UndatedCandidate(t *testing.T) {
	// A listing item without a parseable datePublished must not format the
	// zero time; the article page's own publish meta fills Date and Time.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="article:published_time" content="2026-02-27T09:15:00+08:00">
		</head><body>
			<section id="article_body"><p>今日開盤前瞻。</p></section>
		</body></html>`))
	}))
	defer server.Close()

	s := NewMoneyUDN(server.Client(), discardLogger())
	s.baseURL = server.URL

	cand := entity.Candidate{
		URL:       server.URL + "/money/story/5591/8600003",
		Title:     "開盤前瞻",
		Precision: entity.PrecisionNone,
	}

	article, err := s.Enrich(context.Background(), cand)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if article.Date != "2026-02-27" || article.Time != "09:15:00" {
		t.Errorf("Date/Time = %q/%q, want page meta timestamp", article.Date, article.Time)
	}
	if strings.HasPrefix(article.Date, "0001") {
		t.Errorf("zero time leaked into Date: %q", article.Date)
	}
}

func TestMoneyUDN_Enrich_UndatedWithoutPageMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<section id="article_body"><p>沒有發布時間的頁面。</p></section>
		</body></html>`))
	}))
	defer server.Close()

	s := NewMoneyUDN(server.Client(), discardLogger())
	s.baseURL = server.URL

	article, err := s.Enrich(context.Background(), entity.Candidate{
		URL:       server.URL + "/money/story/5591/8600004",
		Title:     "無時間文章",
		Precision: entity.PrecisionNone,
	})
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	// Empty Time serializes as null; Date stays empty rather than 0001-01-01.
	if article.Date != "" || article.Time != "" {
		t.Errorf("Date/Time = %q/%q, want both empty", article.Date, article.Time)
	}
}

func TestMoneyUDN_Enrich_ReadabilityFallback(t *testing.T) {
	// Neither #article_body nor section.article-body__editor is present;
	// the body must come from the readability pass.
	filler := strings.Repeat("Shares of the contract chipmaker climbed in early trading, as investors "+
		"weighed the upbeat guidance against currency headwinds and export controls. ", 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>盤前掃描</title></head><body>
			<article>
				<p>` + filler + `</p>
				<p>` + filler + `</p>
				<p>` + filler + `</p>
			</article>
		</body></html>`))
	}))
	defer server.Close()

	s := NewMoneyUDN(server.Client(), discardLogger())
	s.baseURL = server.URL

	article, err := s.Enrich(context.Background(), entity.Candidate{
		URL:       server.URL + "/money/story/5591/8600005",
		Title:     "盤前掃描",
		Published: time.Date(2026, 2, 27, 8, 0, 0, 0, crawl.Taipei),
		Precision: entity.PrecisionTime,
	})
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if article.Content == "" {
		t.Fatal("Content empty, want readability fallback text")
	}
	if !strings.Contains(article.Content, "upbeat guidance") {
		t.Errorf("Content = %q, want body text from readability", article.Content)
	}
}

func TestUDNAuthorName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"object", `{"@type":"Person","name":"記者丁"}`, "記者丁"},
		{"list", `[{"name":"甲"},{"name":"乙"}]`, "甲,乙"},
		{"string", `"經濟日報"`, "經濟日報"},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := udnAuthorName(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("udnAuthorName(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
