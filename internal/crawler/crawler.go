// Package crawler walks one site at a time: a pool of workers consumes a
// queue of URLs, persists every outcome as a page, hands indexable text to
// the indexer and feeds newly discovered in-site links back into the queue.
package crawler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dangpham/sitesearch/internal/fetcher"
	"github.com/dangpham/sitesearch/internal/lemmatizer"
	"github.com/dangpham/sitesearch/internal/storage"
)

// Matches the original URL, not just its path, like the rest of the boundary
// checks.
var skipExtensions = regexp.MustCompile(`(?i)\.(pdf|jpe?g|png|gif|svg|webp|ico|zip|rar|gz|7z|exe|dmg|iso|mp3|wav|mp4|avi|mov|doc|docx|xls|xlsx|ppt|pptx|xml)$`)

// PageIndexer consumes a freshly persisted page and its lemma counts.
type PageIndexer interface {
	IndexPage(page *storage.Page, lemmaCounts map[string]int) error
}

type Config struct {
	Workers    int
	Politeness time.Duration
}

type Crawler struct {
	fetcher    *fetcher.Fetcher
	lemmas     *lemmatizer.Finder
	store      storage.Store
	indexer    PageIndexer
	log        *zap.Logger
	workers    int
	politeness time.Duration
}

func New(f *fetcher.Fetcher, lemmas *lemmatizer.Finder, store storage.Store, indexer PageIndexer, log *zap.Logger, cfg Config) *Crawler {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Politeness == 0 {
		cfg.Politeness = 250 * time.Millisecond
	}

	return &Crawler{
		fetcher:    f,
		lemmas:     lemmas,
		store:      store,
		indexer:    indexer,
		log:        log,
		workers:    cfg.Workers,
		politeness: cfg.Politeness,
	}
}

// CrawlSite traverses site starting at its root URL and returns once the
// queue is drained and every worker has finished, or once the frontier flag
// is cleared. Per-page failures are recorded as pages; the returned error is
// the first unexpected fault (storage or indexing), if any.
func (c *Crawler) CrawlSite(ctx context.Context, site *storage.Site, fr *Frontier) error {
	run := &siteRun{
		site:     site,
		frontier: fr,
		queue:    &workQueue{},
		limiter:  rate.NewLimiter(rate.Every(c.politeness), 1),
	}

	if fr.TryVisit(site.URL) {
		run.queue.push(site.URL)
	}

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx, run)
		}()
	}
	wg.Wait()

	return run.err()
}

func (c *Crawler) worker(ctx context.Context, run *siteRun) {
	for {
		if ctx.Err() != nil || !run.frontier.Running() {
			return
		}

		url, ok, idle := run.queue.next()
		if !ok {
			if idle {
				return
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}

		c.visit(ctx, run, url)
		run.queue.done()
	}
}

func (c *Crawler) visit(ctx context.Context, run *siteRun, pageURL string) {
	// Politeness delay before every request; an interrupted wait aborts
	// the task cleanly.
	if err := run.limiter.Wait(ctx); err != nil {
		return
	}
	if !run.frontier.Running() {
		return
	}

	res, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, fetcher.ErrRobotsDisallowed):
			c.log.Debug("robots.txt disallows url", zap.String("url", pageURL))
			return
		default:
			c.log.Warn("fetch failed", zap.String("url", pageURL), zap.Error(err))
			c.savePage(run, pageURL, http.StatusInternalServerError, "page processing error: "+err.Error())
			return
		}
	}

	if res.StatusCode != http.StatusOK {
		c.savePage(run, pageURL, res.StatusCode, res.Status)
		return
	}

	page := c.savePage(run, pageURL, res.StatusCode, res.Content)
	if page == nil {
		return
	}

	if strings.TrimSpace(res.Text) != "" {
		if counts := c.lemmas.FindLemmas(res.Text); len(counts) > 0 {
			if err := c.indexer.IndexPage(page, counts); err != nil {
				c.log.Error("failed to index page", zap.String("url", pageURL), zap.Error(err))
				run.fail(err)
			}
		}
	}

	if !res.IsHTML {
		return
	}
	for _, link := range res.Links {
		if !c.isValidURL(run.site, link) {
			continue
		}
		if run.frontier.TryVisit(link) {
			run.queue.push(link)
		}
	}
}

func (c *Crawler) savePage(run *siteRun, pageURL string, code int, content string) *storage.Page {
	page := &storage.Page{
		SiteID:  run.site.ID,
		Path:    pagePath(run.site.URL, pageURL),
		Code:    code,
		Content: content,
	}
	if err := c.store.SavePage(page); err != nil {
		c.log.Error("failed to save page", zap.String("url", pageURL), zap.Error(err))
		run.fail(err)
		return nil
	}
	return page
}

// isValidURL keeps a link inside the crawl boundary: same site root, no
// fragment, no known non-text extension.
func (c *Crawler) isValidURL(site *storage.Site, url string) bool {
	return strings.HasPrefix(url, site.URL) &&
		!strings.Contains(url, "#") &&
		!skipExtensions.MatchString(url)
}

func pagePath(siteURL, pageURL string) string {
	path := strings.TrimPrefix(pageURL, siteURL)
	if path == "" {
		return "/"
	}
	return path
}

// siteRun is the state shared by the workers of one CrawlSite call.
type siteRun struct {
	site     *storage.Site
	frontier *Frontier
	queue    *workQueue
	limiter  *rate.Limiter

	errMu    sync.Mutex
	firstErr error
}

func (r *siteRun) fail(err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if r.firstErr == nil {
		r.firstErr = err
	}
}

func (r *siteRun) err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.firstErr
}

// workQueue is an unbounded FIFO of URLs plus the number of workers holding
// an item. The traversal is complete when the queue is empty and no worker
// is active.
type workQueue struct {
	mu     sync.Mutex
	items  []string
	active int
}

func (q *workQueue) push(url string) {
	q.mu.Lock()
	q.items = append(q.items, url)
	q.mu.Unlock()
}

func (q *workQueue) next() (url string, ok, idle bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false, q.active == 0
	}
	url = q.items[0]
	q.items = q.items[1:]
	q.active++
	return url, true, false
}

func (q *workQueue) done() {
	q.mu.Lock()
	q.active--
	q.mu.Unlock()
}
