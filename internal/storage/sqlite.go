package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// SQLite implements Store on a single sqlite database file.
type SQLite struct {
	db *sql.DB // nil for transaction-bound views
	q  querier
}

func OpenSQLite(path string) (*SQLite, error) {
	// DSN parameters apply to every pooled connection. _txlock=immediate
	// makes transactions take the write lock up front, so concurrent
	// writers queue on the busy timeout instead of failing a deferred
	// read-then-write upgrade with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &SQLite{db: db, q: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// InTx starts a transaction and hands fn a view bound to it. A view nested
// inside a transaction runs fn directly.
func (s *SQLite) InTx(fn func(Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&SQLite{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLite) SaveSite(site *Site) error {
	if site.ID == 0 {
		res, err := s.q.Exec(
			"INSERT INTO site (status, status_time, last_error, url, name) VALUES (?, ?, ?, ?, ?)",
			site.Status, site.StatusTime, site.LastError, site.URL, site.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert site %s: %w", site.URL, err)
		}
		site.ID, err = res.LastInsertId()
		return err
	}

	_, err := s.q.Exec(
		"UPDATE site SET status = ?, status_time = ?, last_error = ?, url = ?, name = ? WHERE id = ?",
		site.Status, site.StatusTime, site.LastError, site.URL, site.Name, site.ID,
	)
	return err
}

func (s *SQLite) SiteByURL(url string) (*Site, error) {
	site := &Site{}
	err := s.q.QueryRow(
		"SELECT id, status, status_time, last_error, url, name FROM site WHERE url = ?",
		url,
	).Scan(&site.ID, &site.Status, &site.StatusTime, &site.LastError, &site.URL, &site.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return site, nil
}

func (s *SQLite) Sites() ([]*Site, error) {
	return s.querySites("SELECT id, status, status_time, last_error, url, name FROM site ORDER BY id")
}

func (s *SQLite) SitesByStatus(status SiteStatus) ([]*Site, error) {
	return s.querySites(
		"SELECT id, status, status_time, last_error, url, name FROM site WHERE status = ? ORDER BY id",
		status,
	)
}

func (s *SQLite) querySites(query string, args ...any) ([]*Site, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []*Site
	for rows.Next() {
		site := &Site{}
		if err := rows.Scan(&site.ID, &site.Status, &site.StatusTime, &site.LastError, &site.URL, &site.Name); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *SQLite) CountSitesNotInStatus(status SiteStatus) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM site WHERE status != ?", status).Scan(&count)
	return count, err
}

func (s *SQLite) SavePage(page *Page) error {
	if page.ID == 0 {
		res, err := s.q.Exec(
			"INSERT INTO page (site_id, path, code, content) VALUES (?, ?, ?, ?)",
			page.SiteID, page.Path, page.Code, page.Content,
		)
		if err != nil {
			return fmt.Errorf("failed to insert page %s: %w", page.Path, err)
		}
		page.ID, err = res.LastInsertId()
		return err
	}

	_, err := s.q.Exec(
		"UPDATE page SET site_id = ?, path = ?, code = ?, content = ? WHERE id = ?",
		page.SiteID, page.Path, page.Code, page.Content, page.ID,
	)
	return err
}

func (s *SQLite) PageByPath(siteID int64, path string) (*Page, error) {
	page := &Page{}
	err := s.q.QueryRow(
		"SELECT id, site_id, path, code, content FROM page WHERE site_id = ? AND path = ?",
		siteID, path,
	).Scan(&page.ID, &page.SiteID, &page.Path, &page.Code, &page.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *SQLite) DeletePage(id int64) error {
	_, err := s.q.Exec("DELETE FROM page WHERE id = ?", id)
	return err
}

func (s *SQLite) CountPagesBySite(siteID int64) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM page WHERE site_id = ?", siteID).Scan(&count)
	return count, err
}

func (s *SQLite) SaveLemmas(lemmas []*Lemma) error {
	for _, lemma := range lemmas {
		if lemma.ID == 0 {
			res, err := s.q.Exec(
				"INSERT INTO lemma (site_id, lemma, frequency) VALUES (?, ?, ?)",
				lemma.SiteID, lemma.Lemma, lemma.Frequency,
			)
			if err != nil {
				return fmt.Errorf("failed to insert lemma %q: %w", lemma.Lemma, err)
			}
			if lemma.ID, err = res.LastInsertId(); err != nil {
				return err
			}
			continue
		}
		if _, err := s.q.Exec(
			"UPDATE lemma SET frequency = ? WHERE id = ?",
			lemma.Frequency, lemma.ID,
		); err != nil {
			return fmt.Errorf("failed to update lemma %q: %w", lemma.Lemma, err)
		}
	}
	return nil
}

func (s *SQLite) LemmasByNames(siteID int64, names []string) ([]*Lemma, error) {
	if len(names) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(names)+1)
	args = append(args, siteID)
	for _, name := range names {
		args = append(args, name)
	}
	return s.queryLemmas(
		"SELECT id, site_id, lemma, frequency FROM lemma WHERE site_id = ? AND lemma IN ("+placeholders(len(names))+")",
		args...,
	)
}

func (s *SQLite) LemmasByIDs(ids []int64) ([]*Lemma, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return s.queryLemmas(
		"SELECT id, site_id, lemma, frequency FROM lemma WHERE id IN ("+placeholders(len(ids))+")",
		args...,
	)
}

func (s *SQLite) LemmaByText(siteID int64, text string) (*Lemma, error) {
	lemma := &Lemma{}
	err := s.q.QueryRow(
		"SELECT id, site_id, lemma, frequency FROM lemma WHERE site_id = ? AND lemma = ?",
		siteID, text,
	).Scan(&lemma.ID, &lemma.SiteID, &lemma.Lemma, &lemma.Frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lemma, nil
}

func (s *SQLite) queryLemmas(query string, args ...any) ([]*Lemma, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lemmas []*Lemma
	for rows.Next() {
		lemma := &Lemma{}
		if err := rows.Scan(&lemma.ID, &lemma.SiteID, &lemma.Lemma, &lemma.Frequency); err != nil {
			return nil, err
		}
		lemmas = append(lemmas, lemma)
	}
	return lemmas, rows.Err()
}

func (s *SQLite) DeleteLemmas(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.q.Exec("DELETE FROM lemma WHERE id IN ("+placeholders(len(ids))+")", args...)
	return err
}

func (s *SQLite) CountLemma(lemma string, siteIDs []int64) (int, error) {
	if len(siteIDs) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(siteIDs)+1)
	args = append(args, lemma)
	for _, id := range siteIDs {
		args = append(args, id)
	}
	var count int
	err := s.q.QueryRow(
		"SELECT COUNT(*) FROM lemma WHERE lemma = ? AND site_id IN ("+placeholders(len(siteIDs))+")",
		args...,
	).Scan(&count)
	return count, err
}

func (s *SQLite) CountLemmasBySite(siteID int64) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM lemma WHERE site_id = ?", siteID).Scan(&count)
	return count, err
}

func (s *SQLite) SavePostings(postings []*Posting) error {
	for _, posting := range postings {
		res, err := s.q.Exec(
			"INSERT INTO search_index (page_id, lemma_id, rank) VALUES (?, ?, ?)",
			posting.PageID, posting.LemmaID, posting.Rank,
		)
		if err != nil {
			return fmt.Errorf("failed to insert posting (page %d, lemma %d): %w", posting.PageID, posting.LemmaID, err)
		}
		if posting.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) PostingsForPage(pageID int64) ([]*Posting, error) {
	rows, err := s.q.Query(
		"SELECT id, page_id, lemma_id, rank FROM search_index WHERE page_id = ?",
		pageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []*Posting
	for rows.Next() {
		posting := &Posting{}
		if err := rows.Scan(&posting.ID, &posting.PageID, &posting.LemmaID, &posting.Rank); err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}
	return postings, rows.Err()
}

func (s *SQLite) DeletePostingsForPage(pageID int64) error {
	_, err := s.q.Exec("DELETE FROM search_index WHERE page_id = ?", pageID)
	return err
}

func (s *SQLite) PagesByLemma(lemma string, siteIDs []int64) ([]*Page, error) {
	if len(siteIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(siteIDs)+1)
	args = append(args, lemma)
	for _, id := range siteIDs {
		args = append(args, id)
	}

	rows, err := s.q.Query(`
		SELECT p.id, p.site_id, p.path, p.code, p.content
		FROM page p
		JOIN search_index si ON si.page_id = p.id
		JOIN lemma l ON l.id = si.lemma_id
		WHERE l.lemma = ? AND l.site_id IN (`+placeholders(len(siteIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		page := &Page{}
		if err := rows.Scan(&page.ID, &page.SiteID, &page.Path, &page.Code, &page.Content); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func (s *SQLite) PostingRank(pageID, lemmaID int64) (float64, bool, error) {
	var rank float64
	err := s.q.QueryRow(
		"SELECT rank FROM search_index WHERE page_id = ? AND lemma_id = ?",
		pageID, lemmaID,
	).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank, true, nil
}

func (s *SQLite) Wipe() error {
	for _, table := range []string{"search_index", "lemma", "page", "site"} {
		if _, err := s.q.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to wipe %s: %w", table, err)
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
