package simulator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/rahul/synthetics/internal/journey"
)

// maxArticleText caps Article.Text.
const maxArticleText = 50000

// HTTPClient is the plain HTTP client journeys get next to the browser.
type HTTPClient struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPClient(userAgent string) *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// Do sends req with the simulator's user agent unless one is already set.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return c.Client.Do(req)
}

// Readable fetches rawURL and extracts its main content as sanitized text.
func (c *HTTPClient) Readable(ctx context.Context, rawURL string) (*journey.Article, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article: %w", err)
	}

	// Remove any remaining HTML tags or scripts
	p := bluemonday.StrictPolicy()
	text := truncateText(p.Sanitize(article.TextContent), maxArticleText)

	return &journey.Article{
		Title:   p.Sanitize(article.Title),
		Excerpt: p.Sanitize(article.Excerpt),
		Text:    text,
	}, nil
}

// truncateText cuts s to at most max bytes without splitting a rune.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
