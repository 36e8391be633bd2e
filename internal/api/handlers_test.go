package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dangpham/sitesearch/internal/indexing"
	"github.com/dangpham/sitesearch/internal/search"
)

type fakeIndexing struct {
	startResp indexing.CommandResponse
	stopResp  indexing.CommandResponse
	pageResp  indexing.CommandResponse
	pageErr   error
	pageURL   string
	stats     indexing.Statistics
	statsErr  error
}

func (f *fakeIndexing) StartIndexing() indexing.CommandResponse { return f.startResp }
func (f *fakeIndexing) StopIndexing() indexing.CommandResponse  { return f.stopResp }
func (f *fakeIndexing) IndexPage(url string) (indexing.CommandResponse, error) {
	f.pageURL = url
	return f.pageResp, f.pageErr
}
func (f *fakeIndexing) Statistics() (indexing.Statistics, error) { return f.stats, f.statsErr }

type fakeSearcher struct {
	query  string
	site   string
	offset int
	limit  int
	resp   search.Response
	err    error
}

func (f *fakeSearcher) Search(query, site string, offset, limit int) (search.Response, error) {
	f.query, f.site, f.offset, f.limit = query, site, offset, limit
	return f.resp, f.err
}

func newTestRouter(ix *fakeIndexing, s *fakeSearcher) http.Handler {
	return NewRouter(NewHandler(ix, s, zap.NewNop(), 20))
}

func doRequest(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestStartIndexingEndpoint(t *testing.T) {
	ix := &fakeIndexing{startResp: indexing.CommandResponse{Result: true}}
	router := newTestRouter(ix, &fakeSearcher{})

	rec, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/startIndexing", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["result"])
}

func TestStartIndexingEndpointRefused(t *testing.T) {
	ix := &fakeIndexing{startResp: indexing.CommandResponse{Error: "indexing is already running"}}
	router := newTestRouter(ix, &fakeSearcher{})

	rec, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/startIndexing", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["result"])
	assert.Equal(t, "indexing is already running", body["error"])
}

func TestStopIndexingEndpoint(t *testing.T) {
	ix := &fakeIndexing{stopResp: indexing.CommandResponse{Result: true}}
	router := newTestRouter(ix, &fakeSearcher{})

	rec, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/stopIndexing", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["result"])
}

func TestStatisticsEndpoint(t *testing.T) {
	ix := &fakeIndexing{stats: indexing.Statistics{
		Result: true,
		Statistics: indexing.StatisticsData{
			Total: indexing.TotalStatistics{Sites: 2, Pages: 10, Lemmas: 100},
			Detailed: []indexing.DetailedStatistics{
				{URL: "http://example.test", Name: "Example", Status: "INDEXED", StatusTime: 1700000000000, Pages: 10, Lemmas: 100},
			},
		},
	}}
	router := newTestRouter(ix, &fakeSearcher{})

	rec, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["result"])

	stats := body["statistics"].(map[string]any)
	total := stats["total"].(map[string]any)
	assert.Equal(t, float64(2), total["sites"])
	detailed := stats["detailed"].([]any)
	require.Len(t, detailed, 1)
	assert.Equal(t, "INDEXED", detailed[0].(map[string]any)["status"])
}

func TestStatisticsEndpointServerError(t *testing.T) {
	ix := &fakeIndexing{statsErr: errors.New("db gone")}
	router := newTestRouter(ix, &fakeSearcher{})

	rec, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["result"])
}

func TestIndexPageEndpoint(t *testing.T) {
	ix := &fakeIndexing{pageResp: indexing.CommandResponse{Result: true}}
	router := newTestRouter(ix, &fakeSearcher{})

	form := url.Values{"url": {"http://example.test/page"}}
	req := httptest.NewRequest(http.MethodPost, "/api/indexPage", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, body := doRequest(t, router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["result"])
	assert.Equal(t, "http://example.test/page", ix.pageURL)
}

func TestIndexPageEndpointMissingURL(t *testing.T) {
	router := newTestRouter(&fakeIndexing{}, &fakeSearcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/indexPage", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, body := doRequest(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["result"])
}

func TestIndexPageEndpointServerError(t *testing.T) {
	ix := &fakeIndexing{pageErr: errors.New("fetch exploded")}
	router := newTestRouter(ix, &fakeSearcher{})

	form := url.Values{"url": {"http://example.test/page"}}
	req := httptest.NewRequest(http.MethodPost, "/api/indexPage", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, _ := doRequest(t, router, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearchEndpointPassesParameters(t *testing.T) {
	s := &fakeSearcher{resp: search.Response{Result: true, Count: 1, Data: []search.Result{{URI: "/a"}}}}
	router := newTestRouter(&fakeIndexing{}, s)

	req := httptest.NewRequest(http.MethodGet, "/api/search?query=%D0%BA%D0%BE%D1%82&site=http%3A%2F%2Fexample.test&offset=5&limit=3", nil)
	rec, body := doRequest(t, router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["result"])
	assert.Equal(t, "кот", s.query)
	assert.Equal(t, "http://example.test", s.site)
	assert.Equal(t, 5, s.offset)
	assert.Equal(t, 3, s.limit)
}

func TestSearchEndpointDefaults(t *testing.T) {
	s := &fakeSearcher{resp: search.Response{Result: true}}
	router := newTestRouter(&fakeIndexing{}, s)

	_, _ = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/search?query=cat", nil))
	assert.Equal(t, 0, s.offset)
	assert.Equal(t, 20, s.limit)
}
