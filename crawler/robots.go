package crawler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const robotsFetchTimeout = 10 * time.Second

// RobotsRules holds the wildcard-agent rules of one origin.
type RobotsRules struct {
	Disallow   []string
	CrawlDelay time.Duration
}

// Allowed reports whether path may be fetched.
func (r *RobotsRules) Allowed(path string) bool {
	if path == "" {
		path = "/"
	}
	for _, prefix := range r.Disallow {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// RobotsCache keeps the parsed robots.txt of recently seen origins.
type RobotsCache struct {
	cache     *lru.Cache[string, *RobotsRules]
	client    *http.Client
	userAgent string
}

// NewRobotsCache creates a cache holding at most size origins.
func NewRobotsCache(size int, client *http.Client, userAgent string) (*RobotsCache, error) {
	cache, err := lru.New[string, *RobotsRules](size)
	if err != nil {
		return nil, err
	}
	return &RobotsCache{cache: cache, client: client, userAgent: userAgent}, nil
}

// GetRules returns the rules for origin ("scheme://host"), fetching
// robots.txt on a miss. Any fetch failure allows everything.
func (rc *RobotsCache) GetRules(ctx context.Context, origin string) *RobotsRules {
	if rules, ok := rc.cache.Get(origin); ok {
		return rules
	}

	rules := &RobotsRules{}
	ctx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err == nil {
		req.Header.Set("User-Agent", rc.userAgent)
		resp, err := rc.client.Do(req)
		if err == nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				if body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10)); err == nil {
					rules = parseRobotsTxt(string(body))
				}
			}
		}
	}

	rc.cache.Add(origin, rules)
	return rules
}

// Len returns the number of cached origins.
func (rc *RobotsCache) Len() int {
	return rc.cache.Len()
}

// parseRobotsTxt keeps only the rules addressed to every agent.
func parseRobotsTxt(content string) *RobotsRules {
	rules := &RobotsRules{}
	var currentUserAgent string

	for _, line := range strings.Split(content, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			currentUserAgent = value
		case "crawl-delay":
			if currentUserAgent == "*" {
				if delay, err := strconv.ParseFloat(value, 64); err == nil && delay > 0 {
					rules.CrawlDelay = time.Duration(delay * float64(time.Second))
				}
			}
		case "disallow":
			if currentUserAgent == "*" && value != "" {
				rules.Disallow = append(rules.Disallow, value)
			}
		}
	}
	return rules
}
