// Package crawler fetches the allow-listed article pages and counts how
// often each keyword label occurs in their visible text, producing the
// keyword-frequency table consumed by the rating engine.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"keyword_tiers/config"
)

const maxBodyBytes = 8 << 20

var (
	ErrInvalidURL = errors.New("not an http(s) url")
	ErrDisallowed = errors.New("disallowed by robots.txt")
	ErrStatus     = errors.New("unexpected status")
)

// Page is a fetched article.
type Page struct {
	URL        string
	StatusCode int
	Title      string
	Text       string
	FetchTime  time.Time
}

// Stats tallies one BuildMatrix run.
type Stats struct {
	Fetched int
	Failed  int
	Skipped int
}

// Crawler fetches pages politely: rate limited, bounded concurrency,
// robots.txt aware.
type Crawler struct {
	cfg       config.CrawlerConfig
	client    *http.Client
	limiter   *rate.Limiter
	robots    *RobotsCache
	processor *TextProcessor
	logger    *slog.Logger
}

// New creates a crawler from cfg.
func New(cfg config.CrawlerConfig, logger *slog.Logger) (*Crawler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:    100,
			IdleConnTimeout: 90 * time.Second,
		},
	}
	c := &Crawler{
		cfg:       cfg,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Workers),
		processor: NewTextProcessor(),
		logger:    logger,
	}
	if cfg.RespectRobots {
		robots, err := NewRobotsCache(cfg.RobotsCacheSize, client, cfg.UserAgent)
		if err != nil {
			return nil, fmt.Errorf("robots cache: %w", err)
		}
		c.robots = robots
	}
	return c, nil
}

func validURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return parsed, nil
}

// Fetch downloads rawURL and extracts its visible text.
func (c *Crawler) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := validURL(rawURL)
	if err != nil {
		return nil, err
	}

	if c.robots != nil {
		rules := c.robots.GetRules(ctx, parsed.Scheme+"://"+parsed.Host)
		if !rules.Allowed(parsed.EscapedPath()) {
			return nil, ErrDisallowed
		}
		if rules.CrawlDelay > 0 {
			select {
			case <-time.After(rules.CrawlDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	title, text := c.processor.CleanHTML(string(body))
	return &Page{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Title:      title,
		Text:       text,
		FetchTime:  time.Now(),
	}, nil
}

// BuildMatrix fetches every key and counts each label in its text. Rows
// follow the order of keys. A page that cannot be fetched keeps an
// all-zero row.
func (c *Crawler) BuildMatrix(ctx context.Context, keys, labels []string) (*Matrix, Stats, error) {
	matrix := NewMatrix(keys, labels)
	var (
		stats Stats
		mu    sync.Mutex
		wg    sync.WaitGroup
	)

	jobs := make(chan int)
	workers := min(c.cfg.Workers, len(keys))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				key := keys[i]
				page, err := c.Fetch(ctx, key)

				mu.Lock()
				switch {
				case errors.Is(err, ErrDisallowed):
					stats.Skipped++
					c.logger.Info("skipping page", "worker", workerID, "url", key, "reason", err)
				case err != nil:
					stats.Failed++
					c.logger.Warn("failed to fetch page", "worker", workerID, "url", key, "error", err)
				default:
					stats.Fetched++
					matrix.Rows[i] = c.processor.CountAll(page.Text, labels)
					c.logger.Debug("counted page", "worker", workerID, "url", key, "title", page.Title)
				}
				mu.Unlock()
			}
		}(w)
	}

feed:
	for i := range keys {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if c.robots != nil {
		c.logger.Info("crawl finished",
			"fetched", stats.Fetched, "failed", stats.Failed, "skipped", stats.Skipped,
			"robots_cached", c.robots.Len())
	} else {
		c.logger.Info("crawl finished", "fetched", stats.Fetched, "failed", stats.Failed)
	}
	return matrix, stats, nil
}
