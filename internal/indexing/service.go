// Package indexing orchestrates full crawl runs and single-page reindexing
// over the configured sites, and keeps the site status rows current.
package indexing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dangpham/sitesearch/internal/config"
	"github.com/dangpham/sitesearch/internal/crawler"
	"github.com/dangpham/sitesearch/internal/fetcher"
	"github.com/dangpham/sitesearch/internal/indexer"
	"github.com/dangpham/sitesearch/internal/lemmatizer"
	"github.com/dangpham/sitesearch/internal/storage"
)

// CommandResponse is the JSON body of start/stop/indexPage commands.
type CommandResponse struct {
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

func ok() CommandResponse { return CommandResponse{Result: true} }

func refused(msg string) CommandResponse { return CommandResponse{Error: msg} }

type Service struct {
	sites   []config.Site
	store   storage.Store
	fetcher *fetcher.Fetcher
	crawler *crawler.Crawler
	indexer *indexer.Indexer
	lemmas  *lemmatizer.Finder
	log     *zap.Logger

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewService(sites []config.Site, store storage.Store, f *fetcher.Fetcher, c *crawler.Crawler, ix *indexer.Indexer, lemmas *lemmatizer.Finder, log *zap.Logger) *Service {
	return &Service{
		sites:   sites,
		store:   store,
		fetcher: f,
		crawler: c,
		indexer: ix,
		lemmas:  lemmas,
		log:     log,
	}
}

func (s *Service) IsIndexing() bool { return s.running.Load() }

// IsIndexingComplete reports whether every known site has reached INDEXED.
// An empty database counts as complete.
func (s *Service) IsIndexingComplete() (bool, error) {
	n, err := s.store.CountSitesNotInStatus(storage.SiteIndexed)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// StartIndexing wipes the previous index, records every configured site as
// INDEXING and launches one crawl goroutine per site. It refuses while a run
// is already active.
func (s *Service) StartIndexing() CommandResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return refused("indexing is already running")
	}

	// A stopped run may still be draining in-flight fetches; wiping under
	// it would let stale page writes land on deleted site rows.
	if s.done != nil {
		<-s.done
	}

	if err := s.store.Wipe(); err != nil {
		s.log.Error("failed to wipe index", zap.Error(err))
		return refused("failed to start indexing")
	}

	sites := make([]*storage.Site, 0, len(s.sites))
	for _, sc := range s.sites {
		site := &storage.Site{
			URL:        sc.URL,
			Name:       sc.Name,
			Status:     storage.SiteIndexing,
			StatusTime: time.Now(),
		}
		if err := s.store.SaveSite(site); err != nil {
			s.log.Error("failed to create site", zap.String("site", sc.URL), zap.Error(err))
			return refused("failed to start indexing")
		}
		sites = append(sites, site)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running.Store(true)
	done := make(chan struct{})
	s.done = done

	s.log.Info("indexing started", zap.Int("sites", len(sites)))
	go s.run(ctx, sites, done)
	return ok()
}

// StopIndexing clears the run flag, cancels in-flight fetches and marks every
// still-INDEXING site as FAILED.
func (s *Service) StopIndexing() CommandResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return refused("indexing is not running")
	}

	s.running.Store(false)

	// Mark before cancelling: once the crawls unwind, the run goroutine
	// promotes whatever is still INDEXING.
	sites, err := s.store.SitesByStatus(storage.SiteIndexing)
	if err != nil {
		s.log.Error("failed to load indexing sites", zap.Error(err))
		return refused("failed to stop indexing")
	}
	for _, site := range sites {
		s.markFailed(site, "indexing stopped by user")
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.log.Info("indexing stopped by user")
	return ok()
}

func (s *Service) run(ctx context.Context, sites []*storage.Site, done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)

	var wg sync.WaitGroup
	for _, site := range sites {
		wg.Add(1)
		go func(site *storage.Site) {
			defer wg.Done()

			fr := crawler.NewFrontier(&s.running)
			if err := s.crawler.CrawlSite(ctx, site, fr); err != nil {
				s.log.Error("site crawl failed", zap.String("site", site.URL), zap.Error(err))
				s.markFailed(site, err.Error())
			}
		}(site)
	}
	wg.Wait()

	// Sites that were stopped or failed keep their status; the rest are done.
	for _, site := range sites {
		current, err := s.store.SiteByURL(site.URL)
		if err != nil || current == nil {
			s.log.Error("failed to reload site", zap.String("site", site.URL), zap.Error(err))
			continue
		}
		if current.Status != storage.SiteIndexing {
			continue
		}
		current.Status = storage.SiteIndexed
		current.StatusTime = time.Now()
		if err := s.store.SaveSite(current); err != nil {
			s.log.Error("failed to mark site indexed", zap.String("site", site.URL), zap.Error(err))
		}
	}
	s.log.Info("indexing run finished")
}

func (s *Service) markFailed(site *storage.Site, msg string) {
	site.Status = storage.SiteFailed
	site.StatusTime = time.Now()
	site.LastError = msg
	if err := s.store.SaveSite(site); err != nil {
		s.log.Error("failed to mark site failed", zap.String("site", site.URL), zap.Error(err))
	}
}

// IndexPage fetches and reindexes a single URL. URLs outside every configured
// site are refused with Result false; unexpected faults come back as the
// error return.
func (s *Service) IndexPage(pageURL string) (CommandResponse, error) {
	siteCfg := s.findSite(pageURL)
	if siteCfg == nil {
		return refused("this page is outside the sites listed in the configuration"), nil
	}

	site, err := s.store.SiteByURL(siteCfg.URL)
	if err != nil {
		return CommandResponse{}, err
	}
	if site == nil {
		site = &storage.Site{
			URL:        siteCfg.URL,
			Name:       siteCfg.Name,
			Status:     storage.SiteIndexed,
			StatusTime: time.Now(),
		}
		if err := s.store.SaveSite(site); err != nil {
			return CommandResponse{}, fmt.Errorf("failed to create site %s: %w", siteCfg.URL, err)
		}
	}

	path := pagePath(site.URL, pageURL)
	existing, err := s.store.PageByPath(site.ID, path)
	if err != nil {
		return CommandResponse{}, err
	}
	if existing != nil {
		if err := s.indexer.RemovePage(existing); err != nil {
			return CommandResponse{}, fmt.Errorf("failed to remove old page %s: %w", path, err)
		}
	}

	res, err := s.fetcher.Fetch(context.Background(), pageURL)
	if err != nil {
		return CommandResponse{}, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	content := res.Content
	if res.StatusCode != 200 {
		content = res.Status
	}
	page := &storage.Page{SiteID: site.ID, Path: path, Code: res.StatusCode, Content: content}
	if err := s.store.SavePage(page); err != nil {
		return CommandResponse{}, fmt.Errorf("failed to save page %s: %w", path, err)
	}

	if res.StatusCode == 200 && strings.TrimSpace(res.Text) != "" {
		if counts := s.lemmas.FindLemmas(res.Text); len(counts) > 0 {
			if err := s.indexer.IndexPage(page, counts); err != nil {
				return CommandResponse{}, fmt.Errorf("failed to index page %s: %w", path, err)
			}
		}
	}

	site.StatusTime = time.Now()
	if err := s.store.SaveSite(site); err != nil {
		return CommandResponse{}, err
	}

	s.log.Info("page reindexed", zap.String("url", pageURL), zap.Int("code", res.StatusCode))
	return ok(), nil
}

func (s *Service) findSite(pageURL string) *config.Site {
	for i := range s.sites {
		if strings.HasPrefix(pageURL, s.sites[i].URL) {
			return &s.sites[i]
		}
	}
	return nil
}

func pagePath(siteURL, pageURL string) string {
	path := strings.TrimPrefix(pageURL, siteURL)
	if path == "" {
		return "/"
	}
	return path
}
