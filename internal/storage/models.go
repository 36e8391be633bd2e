package storage

import "time"

type SiteStatus string

const (
	SiteIndexing SiteStatus = "INDEXING"
	SiteIndexed  SiteStatus = "INDEXED"
	SiteFailed   SiteStatus = "FAILED"
)

// Site is one configured crawl root.
type Site struct {
	ID         int64
	URL        string
	Name       string
	Status     SiteStatus
	StatusTime time.Time
	LastError  string
}

// Page is one fetched URL of a site. Path is the URL minus the site root,
// "/" when the URL equals the root. Unique per (site, path).
type Page struct {
	ID      int64
	SiteID  int64
	Path    string
	Code    int
	Content string
}

// Lemma is a normalized word form within one site. Frequency counts the
// distinct pages of the site that contain it.
type Lemma struct {
	ID        int64
	SiteID    int64
	Lemma     string
	Frequency int
}

// Posting links a lemma to a page. Rank is the occurrence count of the lemma
// within that page, stored as REAL.
type Posting struct {
	ID      int64
	PageID  int64
	LemmaID int64
	Rank    float64
}
