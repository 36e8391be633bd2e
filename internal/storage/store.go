package storage

// Store is the persistence boundary shared by the crawler, indexer, query
// engine and orchestrator. Implementations must serialize conflicting writes;
// callers coordinate nothing beyond InTx. Single-row lookups return (nil, nil)
// when no row matches.
type Store interface {
	// Sites.
	SaveSite(site *Site) error
	SiteByURL(url string) (*Site, error)
	Sites() ([]*Site, error)
	SitesByStatus(status SiteStatus) ([]*Site, error)
	CountSitesNotInStatus(status SiteStatus) (int, error)

	// Pages.
	SavePage(page *Page) error
	PageByPath(siteID int64, path string) (*Page, error)
	DeletePage(id int64) error
	CountPagesBySite(siteID int64) (int, error)

	// Lemmas.
	SaveLemmas(lemmas []*Lemma) error
	LemmasByNames(siteID int64, names []string) ([]*Lemma, error)
	LemmasByIDs(ids []int64) ([]*Lemma, error)
	LemmaByText(siteID int64, lemma string) (*Lemma, error)
	DeleteLemmas(ids []int64) error
	CountLemma(lemma string, siteIDs []int64) (int, error)
	CountLemmasBySite(siteID int64) (int, error)

	// Postings.
	SavePostings(postings []*Posting) error
	PostingsForPage(pageID int64) ([]*Posting, error)
	DeletePostingsForPage(pageID int64) error
	PagesByLemma(lemma string, siteIDs []int64) ([]*Page, error)
	PostingRank(pageID, lemmaID int64) (float64, bool, error)

	// Wipe removes all postings, lemmas, pages and sites, in that order.
	Wipe() error

	// InTx runs fn against a view of the store bound to a single
	// transaction; fn returning an error rolls everything back. Nested
	// calls join the surrounding transaction.
	InTx(fn func(Store) error) error
}
