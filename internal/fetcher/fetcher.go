// Package fetcher downloads pages over HTTP and turns responses into
// indexable content: persisted page body, extracted plain text and the
// outgoing links of HTML documents.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"
)

const maxBodySize = 10 * 1024 * 1024

// ErrRobotsDisallowed marks URLs the site's robots.txt forbids. Callers skip
// them without recording a page.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// FetchError is a transport-level failure for one URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Config struct {
	Timeout       time.Duration
	UserAgent     string
	RespectRobots bool
}

// Result is one completed fetch. Content is what gets persisted as the page
// body: the serialized document for HTML, the extracted text otherwise.
// Links carries the absolute href of every anchor and is populated for HTML
// responses only.
type Result struct {
	StatusCode  int
	Status      string
	ContentType string
	IsHTML      bool
	Content     string
	Text        string
	Links       []string
}

type Fetcher struct {
	client        *http.Client
	userAgent     string
	respectRobots bool

	robotsMu    sync.RWMutex
	robotsCache map[string]*robotstxt.RobotsData
}

func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "SiteSearchBot/1.0"
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:     cfg.UserAgent,
		respectRobots: cfg.RespectRobots,
		robotsCache:   make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch downloads one URL. Transport failures come back as *FetchError;
// context cancellation is returned unwrapped so callers can abort quietly.
// Any HTTP status yields a Result, non-200 ones without parsed content.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	if f.respectRobots && !f.allowed(urlStr) {
		return nil, ErrRobotsDisallowed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &FetchError{URL: urlStr, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	result := &Result{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{URL: urlStr, Err: err}
	}

	if isHTMLContentType(result.ContentType) {
		if err := f.parseHTML(result, body, urlStr); err != nil {
			return nil, &FetchError{URL: urlStr, Err: err}
		}
		return result, nil
	}

	// Best effort for non-HTML: textual bodies pass through, anything
	// else is stored without indexable text.
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(result.ContentType)), "text/") {
		result.Text = string(body)
	}
	result.Content = result.Text
	return result, nil
}

func (f *Fetcher) parseHTML(result *Result, body []byte, baseURL string) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return err
	}

	html, err := doc.Html()
	if err != nil {
		return err
	}
	result.IsHTML = true
	result.Content = html
	result.Links = extractLinks(doc, baseURL)

	doc.Find("script, style, noscript").Remove()
	result.Text = normalizeSpace(doc.Text())
	return nil
}

func (f *Fetcher) allowed(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	f.robotsMu.RLock()
	robots, cached := f.robotsCache[robotsURL]
	f.robotsMu.RUnlock()

	if !cached {
		robots = f.fetchRobotsTxt(robotsURL)
		f.robotsMu.Lock()
		f.robotsCache[robotsURL] = robots
		f.robotsMu.Unlock()
	}

	if robots == nil {
		return true
	}
	return robots.FindGroup(f.userAgent).Test(u.Path)
}

func (f *Fetcher) fetchRobotsTxt(robotsURL string) *robotstxt.RobotsData {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots
}

func isHTMLContentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	for _, htmlType := range []string{"text/html", "application/xhtml+xml", "application/xhtml"} {
		if strings.HasPrefix(contentType, htmlType) {
			return true
		}
	}
	return false
}
