// Package search answers free-text queries against the inverted index:
// multi-term AND retrieval, frequency-sum relevance and highlighted snippets.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dangpham/sitesearch/internal/fetcher"
	"github.com/dangpham/sitesearch/internal/lemmatizer"
	"github.com/dangpham/sitesearch/internal/storage"
)

// IndexingStatus reports whether a crawl run is active. Searching during a
// run would read a half-built index, so it is refused instead.
type IndexingStatus interface {
	IsIndexing() bool
}

type Config struct {
	SnippetWindow       int // tokens kept on each side of a match
	SnippetMaxFragments int
}

type Engine struct {
	store        storage.Store
	lemmas       *lemmatizer.Finder
	status       IndexingStatus
	window       int
	maxFragments int
}

func New(store storage.Store, lemmas *lemmatizer.Finder, status IndexingStatus, cfg Config) *Engine {
	if cfg.SnippetWindow == 0 {
		cfg.SnippetWindow = 5
	}
	if cfg.SnippetMaxFragments == 0 {
		cfg.SnippetMaxFragments = 3
	}

	return &Engine{
		store:        store,
		lemmas:       lemmas,
		status:       status,
		window:       cfg.SnippetWindow,
		maxFragments: cfg.SnippetMaxFragments,
	}
}

type Result struct {
	Site      string  `json:"site"`
	SiteName  string  `json:"siteName"`
	URI       string  `json:"uri"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
}

type Response struct {
	Result bool     `json:"result"`
	Error  string   `json:"error,omitempty"`
	Count  int      `json:"count"`
	Data   []Result `json:"data"`
}

// Search runs query against the index, optionally narrowed to the site with
// root URL siteURL. Count reports the full result size before offset/limit
// pagination. The error return is reserved for storage faults; user-facing
// refusals come back as Response values with Result false.
func (e *Engine) Search(query, siteURL string, offset, limit int) (Response, error) {
	if strings.TrimSpace(query) == "" {
		return Response{Error: "empty search query"}, nil
	}
	if e.status.IsIndexing() {
		return Response{Error: "indexing is still in progress"}, nil
	}

	sites, err := e.candidateSites(siteURL)
	if err != nil {
		return Response{}, err
	}

	queryLemmas := e.lemmas.FindLemmas(query)
	if len(queryLemmas) == 0 || len(sites) == 0 {
		return Response{Result: true, Data: []Result{}}, nil
	}

	siteIDs := make([]int64, 0, len(sites))
	sitesByID := make(map[int64]*storage.Site, len(sites))
	for _, site := range sites {
		siteIDs = append(siteIDs, site.ID)
		sitesByID[site.ID] = site
	}

	names, err := e.lemmasByRarity(queryLemmas, siteIDs)
	if err != nil {
		return Response{}, err
	}

	pages, err := e.intersectPostings(names, siteIDs)
	if err != nil {
		return Response{}, err
	}
	if len(pages) == 0 {
		return Response{Result: true, Data: []Result{}}, nil
	}

	results, err := e.scoreAndRender(pages, names, queryLemmas, sitesByID)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Result: true,
		Count:  len(results),
		Data:   paginate(results, offset, limit),
	}, nil
}

func (e *Engine) candidateSites(siteURL string) ([]*storage.Site, error) {
	if siteURL == "" {
		return e.store.Sites()
	}
	// Site roots are stored without a trailing slash.
	site, err := e.store.SiteByURL(strings.TrimSuffix(siteURL, "/"))
	if err != nil || site == nil {
		return nil, err
	}
	return []*storage.Site{site}, nil
}

// lemmasByRarity orders the query lemmas rarest first, so the intersection
// starts from the smallest posting list.
func (e *Engine) lemmasByRarity(queryLemmas map[string]int, siteIDs []int64) ([]string, error) {
	names := make([]string, 0, len(queryLemmas))
	rarity := make(map[string]int, len(queryLemmas))
	for name := range queryLemmas {
		count, err := e.store.CountLemma(name, siteIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to count lemma %q: %w", name, err)
		}
		names = append(names, name)
		rarity[name] = count
	}

	sort.SliceStable(names, func(i, j int) bool {
		if rarity[names[i]] != rarity[names[j]] {
			return rarity[names[i]] < rarity[names[j]]
		}
		return names[i] < names[j]
	})
	return names, nil
}

// intersectPostings ANDs the posting lists of the rarity-ordered lemmas:
// only pages containing every query lemma survive.
func (e *Engine) intersectPostings(names []string, siteIDs []int64) ([]*storage.Page, error) {
	pages, err := e.store.PagesByLemma(names[0], siteIDs)
	if err != nil {
		return nil, err
	}

	for _, name := range names[1:] {
		if len(pages) == 0 {
			break
		}
		next, err := e.store.PagesByLemma(name, siteIDs)
		if err != nil {
			return nil, err
		}
		keep := make(map[int64]struct{}, len(next))
		for _, page := range next {
			keep[page.ID] = struct{}{}
		}

		filtered := pages[:0]
		for _, page := range pages {
			if _, ok := keep[page.ID]; ok {
				filtered = append(filtered, page)
			}
		}
		pages = filtered
	}
	return pages, nil
}

func (e *Engine) scoreAndRender(pages []*storage.Page, names []string, queryLemmas map[string]int, sitesByID map[int64]*storage.Site) ([]Result, error) {
	absolute := make([]float64, len(pages))
	var maxRelevance float64
	for i, page := range pages {
		score, err := e.absoluteRelevance(page, names)
		if err != nil {
			return nil, err
		}
		absolute[i] = score
		if score > maxRelevance {
			maxRelevance = score
		}
	}

	results := make([]Result, 0, len(pages))
	for i, page := range pages {
		site := sitesByID[page.SiteID]

		relevance := 0.0
		if maxRelevance > 0 {
			relevance = absolute[i] / maxRelevance
		}

		results = append(results, Result{
			Site:      site.URL,
			SiteName:  site.Name,
			URI:       page.Path,
			Title:     fetcher.ExtractTitle(page.Content),
			Snippet:   e.buildSnippet(fetcher.ExtractText(page.Content), queryLemmas),
			Relevance: relevance,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results, nil
}

// absoluteRelevance sums the page's posting ranks over the query lemmas.
// A missing posting contributes zero.
func (e *Engine) absoluteRelevance(page *storage.Page, names []string) (float64, error) {
	var sum float64
	for _, name := range names {
		lemma, err := e.store.LemmaByText(page.SiteID, name)
		if err != nil {
			return 0, err
		}
		if lemma == nil {
			continue
		}
		rank, found, err := e.store.PostingRank(page.ID, lemma.ID)
		if err != nil {
			return 0, err
		}
		if found {
			sum += rank
		}
	}
	return sum, nil
}

func paginate(results []Result, offset, limit int) []Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []Result{}
	}
	results = results[offset:]
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}
