package search

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangpham/sitesearch/internal/fetcher"
	"github.com/dangpham/sitesearch/internal/indexer"
	"github.com/dangpham/sitesearch/internal/lemmatizer"
	"github.com/dangpham/sitesearch/internal/storage"
)

type stubStatus bool

func (s stubStatus) IsIndexing() bool { return bool(s) }

type fixture struct {
	store  *storage.SQLite
	index  *indexer.Indexer
	finder *lemmatizer.Finder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "search.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &fixture{
		store:  store,
		index:  indexer.New(store),
		finder: lemmatizer.NewFinder(),
	}
}

func (f *fixture) engine(indexing bool) *Engine {
	return New(f.store, f.finder, stubStatus(indexing), Config{})
}

func (f *fixture) addSite(t *testing.T, url, name string) *storage.Site {
	t.Helper()
	site := &storage.Site{URL: url, Name: name, Status: storage.SiteIndexed, StatusTime: time.Now()}
	require.NoError(t, f.store.SaveSite(site))
	return site
}

func (f *fixture) addPage(t *testing.T, site *storage.Site, path, title, body string) *storage.Page {
	t.Helper()
	content := fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", title, body)
	page := &storage.Page{SiteID: site.ID, Path: path, Code: 200, Content: content}
	require.NoError(t, f.store.SavePage(page))

	counts := f.finder.FindLemmas(fetcher.ExtractText(content))
	require.NoError(t, f.index.IndexPage(page, counts))
	return page
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture(t)

	resp, err := f.engine(false).Search("   ", "", 0, 20)
	require.NoError(t, err)
	assert.False(t, resp.Result)
	assert.Equal(t, "empty search query", resp.Error)
}

func TestSearchRefusedWhileIndexing(t *testing.T) {
	f := newFixture(t)

	resp, err := f.engine(true).Search("кот", "", 0, 20)
	require.NoError(t, err)
	assert.False(t, resp.Result)
	assert.Equal(t, "indexing is still in progress", resp.Error)
}

func TestSearchFunctionWordQueryIsEmptySuccess(t *testing.T) {
	f := newFixture(t)
	f.addSite(t, "http://example.test", "Example")

	resp, err := f.engine(false).Search("и в на", "", 0, 20)
	require.NoError(t, err)
	assert.True(t, resp.Result)
	assert.Zero(t, resp.Count)
	assert.Empty(t, resp.Data)
}

func TestSearchSingleTerm(t *testing.T) {
	f := newFixture(t)
	site := f.addSite(t, "http://example.test", "Example")
	f.addPage(t, site, "/", "Главная", "кот живет здесь кот")
	f.addPage(t, site, "/a", "Страница", "еще один кот")
	f.addPage(t, site, "/b", "Другое", "только собака")

	resp, err := f.engine(false).Search("кот", "", 0, 20)
	require.NoError(t, err)
	require.True(t, resp.Result)
	require.Equal(t, 2, resp.Count)

	uris := []string{resp.Data[0].URI, resp.Data[1].URI}
	assert.ElementsMatch(t, []string{"/", "/a"}, uris)

	// Two occurrences on "/" beat one on "/a".
	assert.Equal(t, "/", resp.Data[0].URI)
	assert.Equal(t, 1.0, resp.Data[0].Relevance)
	assert.InDelta(t, 0.5, resp.Data[1].Relevance, 1e-9)
	assert.Equal(t, "Главная", resp.Data[0].Title)
	assert.Contains(t, resp.Data[0].Snippet, "<b>кот</b>")
}

func TestSearchTwoTermAND(t *testing.T) {
	f := newFixture(t)
	site := f.addSite(t, "http://example.test", "Example")
	f.addPage(t, site, "/p1", "P1", "кот")
	f.addPage(t, site, "/p2", "P2", "кот собака")
	f.addPage(t, site, "/p3", "P3", "кот кот собака собака собака")

	resp, err := f.engine(false).Search("кот собака", "", 0, 20)
	require.NoError(t, err)
	require.True(t, resp.Result)
	require.Equal(t, 2, resp.Count)

	assert.Equal(t, "/p3", resp.Data[0].URI)
	assert.Equal(t, "/p2", resp.Data[1].URI)
	assert.Equal(t, 1.0, resp.Data[0].Relevance)

	for _, result := range resp.Data {
		assert.GreaterOrEqual(t, result.Relevance, 0.0)
		assert.LessOrEqual(t, result.Relevance, 1.0)
	}
}

func TestSearchSiteFilter(t *testing.T) {
	f := newFixture(t)
	first := f.addSite(t, "http://first.test", "First")
	second := f.addSite(t, "http://second.test", "Second")
	f.addPage(t, first, "/", "F", "кот")
	f.addPage(t, second, "/", "S", "кот")

	resp, err := f.engine(false).Search("кот", "http://first.test", 0, 20)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "http://first.test", resp.Data[0].Site)
	assert.Equal(t, "First", resp.Data[0].SiteName)

	// Trailing slash on the filter matches the stored root.
	resp, err = f.engine(false).Search("кот", "http://first.test/", 0, 20)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "http://first.test", resp.Data[0].Site)

	resp, err = f.engine(false).Search("кот", "http://unknown.test", 0, 20)
	require.NoError(t, err)
	assert.True(t, resp.Result)
	assert.Zero(t, resp.Count)
}

func TestSearchPagination(t *testing.T) {
	f := newFixture(t)
	site := f.addSite(t, "http://example.test", "Example")
	for i := 0; i < 5; i++ {
		body := "кот"
		for j := 0; j < i; j++ {
			body += " кот"
		}
		f.addPage(t, site, fmt.Sprintf("/p%d", i), "T", body)
	}

	resp, err := f.engine(false).Search("кот", "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Count)
	require.Len(t, resp.Data, 2)
	assert.GreaterOrEqual(t, resp.Data[0].Relevance, resp.Data[1].Relevance)

	resp, err = f.engine(false).Search("кот", "", 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Count)
	assert.Empty(t, resp.Data)
}

func TestSearchNoMatches(t *testing.T) {
	f := newFixture(t)
	site := f.addSite(t, "http://example.test", "Example")
	f.addPage(t, site, "/", "T", "собака")

	resp, err := f.engine(false).Search("слон", "", 0, 20)
	require.NoError(t, err)
	assert.True(t, resp.Result)
	assert.Zero(t, resp.Count)
}

func TestBuildSnippetHighlighting(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(false)

	queryLemmas := f.finder.FindLemmas("кот")
	snippet := engine.buildSnippet("один два три четыре пять шесть кот семь восемь", queryLemmas)

	assert.Contains(t, snippet, "<b>кот</b>")
	assert.Contains(t, snippet, "...")
	assert.NotContains(t, snippet, "один")

	assert.Empty(t, engine.buildSnippet("ничего похожего здесь нет", queryLemmas))
}
