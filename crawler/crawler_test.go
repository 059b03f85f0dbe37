package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword_tiers/config"
)

// =============================================================================
// Fixtures
// =============================================================================

func testConfig() config.CrawlerConfig {
	cfg := config.Defaults().Crawler
	cfg.RequestsPerSecond = 1000
	cfg.Workers = 3
	cfg.Timeout = 5 * time.Second
	return cfg
}

func newTestCrawler(t *testing.T, cfg config.CrawlerConfig) *Crawler {
	t.Helper()
	c, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func articleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>A</title><script>var alpha = 1;</script></head>
<body><p>alpha beta alpha</p><style>.alpha{}</style></body></html>`)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div>beta</div><div>beta gamma</div></body></html>`)
	})
	mux.HandleFunc("/private/c", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>alpha</body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// =============================================================================
// Text processing
// =============================================================================

func TestTextProcessor_CleanHTML(t *testing.T) {
	tp := NewTextProcessor()
	title, text := tp.CleanHTML(`<html><head><title> Hello </title><style>p{}</style></head>
<body><p>one   two</p><noscript>hidden</noscript><script>x()</script><p>three</p></body></html>`)

	assert.Equal(t, "Hello", title)
	assert.Equal(t, "Hello one two three", text)
}

func TestTextProcessor_Count(t *testing.T) {
	tp := NewTextProcessor()

	assert.Equal(t, 2, tp.Count("中文 中文", "中文"))
	assert.Equal(t, 1, tp.Count("aaaa", "aaa"))
	assert.Equal(t, 0, tp.Count("anything", ""))
	// Decomposed label matches composed text.
	assert.Equal(t, 1, tp.Count("caf\u00e9", "cafe\u0301"))

	assert.Equal(t, []int{2, 1, 0}, tp.CountAll("x y x", []string{"x", "y", "z"}))
}

// =============================================================================
// Robots
// =============================================================================

func TestParseRobotsTxt(t *testing.T) {
	rules := parseRobotsTxt(`
# comment
User-agent: googlebot
Disallow: /
User-agent: *
Disallow: /private # trailing
Disallow:
Crawl-delay: 1.5
`)
	assert.Equal(t, []string{"/private"}, rules.Disallow)
	assert.Equal(t, 1500*time.Millisecond, rules.CrawlDelay)
	assert.False(t, rules.Allowed("/private/x"))
	assert.True(t, rules.Allowed("/public"))
	assert.True(t, rules.Allowed(""))
}

func TestRobotsCache_FetchFailureAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc, err := NewRobotsCache(2, srv.Client(), "test")
	require.NoError(t, err)

	rules := rc.GetRules(context.Background(), srv.URL)
	assert.True(t, rules.Allowed("/anything"))
	assert.Equal(t, 1, rc.Len())
}

// =============================================================================
// Fetching
// =============================================================================

func TestCrawler_Fetch(t *testing.T) {
	srv := articleServer(t)
	c := newTestCrawler(t, testConfig())
	ctx := context.Background()

	t.Run("extracts text", func(t *testing.T) {
		page, err := c.Fetch(ctx, srv.URL+"/a")
		require.NoError(t, err)
		assert.Equal(t, "A", page.Title)
		assert.Equal(t, http.StatusOK, page.StatusCode)
		assert.NotContains(t, page.Text, "var alpha")
		assert.Contains(t, page.Text, "alpha beta alpha")
	})

	t.Run("robots disallow", func(t *testing.T) {
		_, err := c.Fetch(ctx, srv.URL+"/private/c")
		assert.ErrorIs(t, err, ErrDisallowed)
	})

	t.Run("status error", func(t *testing.T) {
		_, err := c.Fetch(ctx, srv.URL+"/missing")
		assert.ErrorIs(t, err, ErrStatus)
	})

	t.Run("invalid scheme", func(t *testing.T) {
		_, err := c.Fetch(ctx, "ftp://example.com/file")
		assert.ErrorIs(t, err, ErrInvalidURL)
	})
}

// =============================================================================
// Matrix building
// =============================================================================

func TestCrawler_BuildMatrix(t *testing.T) {
	srv := articleServer(t)
	c := newTestCrawler(t, testConfig())

	keys := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/private/c", srv.URL + "/missing"}
	labels := []string{"alpha", "beta", "gamma"}

	matrix, stats, err := c.BuildMatrix(context.Background(), keys, labels)
	require.NoError(t, err)

	assert.Equal(t, Stats{Fetched: 2, Failed: 1, Skipped: 1}, stats)
	assert.Equal(t, keys, matrix.Keys)
	assert.Equal(t, [][]int{
		{2, 1, 0},
		{0, 2, 1},
		{0, 0, 0},
		{0, 0, 0},
	}, matrix.Rows)
	assert.Equal(t, 4, matrix.NonZero())
}

func TestCrawler_BuildMatrix_IgnoringRobots(t *testing.T) {
	srv := articleServer(t)
	cfg := testConfig()
	cfg.RespectRobots = false
	c := newTestCrawler(t, cfg)

	matrix, stats, err := c.BuildMatrix(context.Background(), []string{srv.URL + "/private/c"}, []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, [][]int{{1}}, matrix.Rows)
}

func TestCrawler_BuildMatrix_Cancelled(t *testing.T) {
	srv := articleServer(t)
	c := newTestCrawler(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.BuildMatrix(ctx, []string{srv.URL + "/a", srv.URL + "/b"}, []string{"alpha"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatrix_WriteCSV(t *testing.T) {
	m := NewMatrix([]string{"https://x/1", "https://x/2"}, []string{"词", "b"})
	m.Rows[0][0] = 3

	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"url,词,b", "https://x/1,3,0", "https://x/2,0,0"}, lines)
}
