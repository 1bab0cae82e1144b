package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
)

func newPTTForTest(serverURL string) *PTT {
	s := NewPTT(http.DefaultClient, time.Date(2026, 2, 27, 0, 0, 0, 0, crawl.Taipei), discardLogger())
	s.baseURL = serverURL
	s.nextURL = serverURL + pttStockIndexPath
	return s
}

const pttIndexHTML = `<html><body>
	<div class="btn-group btn-group-paging">
		<a class="btn wide" href="/bbs/stock/index7341.html">‹ 上頁</a>
		<a class="btn wide" href="/bbs/stock/index7343.html">下頁 ›</a>
	</div>
	<div class="r-ent">
		<div class="title"><a href="/bbs/stock/M.1772180000.A.123.html">[新聞] 台積電創新高</a></div>
		<div class="meta"><div class="author">stockfan</div><div class="date"> 2/27</div></div>
	</div>
	<div class="r-ent">
		<div class="title">(本文已被刪除) [deleted]</div>
		<div class="meta"><div class="author">-</div><div class="date"> 2/27</div></div>
	</div>
	<div class="r-ent">
		<div class="title"><a href="/bbs/stock/M.1772090000.A.456.html">[請益] 除權息疑問</a></div>
		<div class="meta"><div class="author">newbie99</div><div class="date"> 2/26</div></div>
	</div>
</body></html>`

func TestPTT_FetchPage_CursorWalk(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie := r.Header.Get("Cookie"); !strings.Contains(cookie, "over18=1") {
			t.Errorf("missing over18 cookie, got %q", cookie)
		}
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case pttStockIndexPath:
			_, _ = w.Write([]byte(pttIndexHTML))
		case "/bbs/stock/index7341.html":
			// Oldest page: no previous-page link.
			_, _ = w.Write([]byte(`<html><body>
				<div class="btn-group btn-group-paging"><a class="btn wide" href="/bbs/stock/index7342.html">下頁 ›</a></div>
				<div class="r-ent">
					<div class="title"><a href="/bbs/stock/M.1772000000.A.789.html">[標的] 長榮多</a></div>
					<div class="meta"><div class="author">sailor</div><div class="date"> 2/25</div></div>
				</div>
			</body></html>`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := newPTTForTest(server.URL)
	s.client = server.Client()
	ctx := context.Background()

	page1, err := s.FetchPage(ctx, 1)
	if err != nil {
		t.Fatalf("FetchPage(1) error = %v", err)
	}
	// Deleted post has no link and is skipped.
	if len(page1.Items) != 2 {
		t.Fatalf("page 1 items = %d, want 2", len(page1.Items))
	}

	first := page1.Items[0]
	if first.Title != "[新聞] 台積電創新高" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Author != "stockfan" {
		t.Errorf("Author = %q", first.Author)
	}
	if first.Precision != entity.PrecisionDate {
		t.Errorf("Precision = %v, want PrecisionDate", first.Precision)
	}
	// Board rows only show M/DD; the year comes from the target date.
	if got := first.Published.Format(crawl.DateLayout); got != "2026-02-27" {
		t.Errorf("Published = %q, want %q", got, "2026-02-27")
	}

	page2, err := s.FetchPage(ctx, 2)
	if err != nil {
		t.Fatalf("FetchPage(2) error = %v", err)
	}
	if len(page2.Items) != 1 {
		t.Fatalf("page 2 items = %d, want 1", len(page2.Items))
	}

	// The oldest page has no previous link; the walk ends with empty pages.
	page3, err := s.FetchPage(ctx, 3)
	if err != nil {
		t.Fatalf("FetchPage(3) error = %v", err)
	}
	if len(page3.Items) != 0 {
		t.Errorf("page 3 items = %d, want 0 after exhaustion", len(page3.Items))
	}

	wantPaths := []string{pttStockIndexPath, "/bbs/stock/index7341.html"}
	if len(paths) != len(wantPaths) {
		t.Fatalf("fetched paths = %v, want %v", paths, wantPaths)
	}
	for i := range wantPaths {
		if paths[i] != wantPaths[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], wantPaths[i])
		}
	}
}

func TestPTT_Enrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="main-content">
<div class="article-metaline"><span class="article-meta-tag">作者</span><span class="article-meta-value">stockfan (股海老手)</span></div>
<div class="article-metaline-right"><span class="article-meta-tag">看板</span><span class="article-meta-value">Stock</span></div>
<div class="article-metaline"><span class="article-meta-tag">標題</span><span class="article-meta-value">[新聞] 台積電創新高</span></div>
<div class="article-metaline"><span class="article-meta-tag">時間</span><span class="article-meta-value">Fri Feb 27 14:30:00 2026</span></div>
1.原文連結：
https://example.com/news/1

2.原文內容：
台積電今日股價創下歷史新高。

--
※ 發信站: 批踢踢實業坊(ptt.cc), 來自: 1.2.3.4
<div class="push"><span class="push-tag">推 </span><span class="push-content">: 恭喜</span></div>
</div></body></html>`))
	}))
	defer server.Close()

	s := newPTTForTest(server.URL)
	s.client = server.Client()

	cand := entity.Candidate{
		URL:       server.URL + "/bbs/stock/M.1772180000.A.123.html",
		Title:     "[新聞] 台積電創新高",
		Author:    "stockfan",
		Published: time.Date(2026, 2, 27, 0, 0, 0, 0, crawl.Taipei),
		Precision: entity.PrecisionDate,
	}

	article, err := s.Enrich(context.Background(), cand)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	// The metaline timestamp upgrades the date-only listing row.
	if article.Date != "2026-02-27" {
		t.Errorf("Date = %q", article.Date)
	}
	if article.Time != "14:30:00" {
		t.Errorf("Time = %q, want %q", article.Time, "14:30:00")
	}
	if !strings.Contains(article.Content, "台積電今日股價創下歷史新高") {
		t.Errorf("Content missing body: %q", article.Content)
	}
	for _, gone := range []string{"發信站", "恭喜", "Fri Feb 27"} {
		if strings.Contains(article.Content, gone) {
			t.Errorf("Content kept %q: %q", gone, article.Content)
		}
	}
}

func TestPTT_ParseListDate(t *testing.T) {
	s := newPTTForTest("http://example.invalid")

	if day, ok := s.parseListDate(" 2/27"); !ok || day.Format(crawl.DateLayout) != "2026-02-27" {
		t.Errorf("parseListDate(2/27) = %v, %v", day, ok)
	}
	if day, ok := s.parseListDate("12/31"); !ok || day.Format(crawl.DateLayout) != "2026-12-31" {
		t.Errorf("parseListDate(12/31) = %v, %v", day, ok)
	}
	if _, ok := s.parseListDate("今天"); ok {
		t.Error("parseListDate(今天) ok = true, want false")
	}
}
