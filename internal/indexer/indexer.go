// Package indexer maintains the inverted index for single pages. Every write
// keeps the invariant that a lemma's frequency equals the number of pages of
// its site holding at least one posting for it.
package indexer

import (
	"fmt"
	"sort"

	"github.com/dangpham/sitesearch/internal/storage"
)

type Indexer struct {
	store storage.Store
}

func New(store storage.Store) *Indexer {
	return &Indexer{store: store}
}

// IndexPage records the page's lemma counts as one atomic unit: each lemma's
// site-wide frequency grows by one and one posting per lemma carries the
// in-page occurrence count as rank. The page must already be persisted.
func (ix *Indexer) IndexPage(page *storage.Page, lemmaCounts map[string]int) error {
	if len(lemmaCounts) == 0 {
		return nil
	}

	names := make([]string, 0, len(lemmaCounts))
	for name := range lemmaCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	return ix.store.InTx(func(s storage.Store) error {
		existing, err := s.LemmasByNames(page.SiteID, names)
		if err != nil {
			return fmt.Errorf("failed to load lemmas: %w", err)
		}
		byName := make(map[string]*storage.Lemma, len(existing))
		for _, lemma := range existing {
			byName[lemma.Lemma] = lemma
		}

		lemmas := make([]*storage.Lemma, 0, len(names))
		for _, name := range names {
			lemma := byName[name]
			if lemma == nil {
				lemma = &storage.Lemma{SiteID: page.SiteID, Lemma: name}
			}
			lemma.Frequency++
			lemmas = append(lemmas, lemma)
		}
		if err := s.SaveLemmas(lemmas); err != nil {
			return fmt.Errorf("failed to save lemmas: %w", err)
		}

		postings := make([]*storage.Posting, 0, len(lemmas))
		for _, lemma := range lemmas {
			postings = append(postings, &storage.Posting{
				PageID:  page.ID,
				LemmaID: lemma.ID,
				Rank:    float64(lemmaCounts[lemma.Lemma]),
			})
		}
		if err := s.SavePostings(postings); err != nil {
			return fmt.Errorf("failed to save postings: %w", err)
		}
		return nil
	})
}

// RemovePage reverses the page's index contributions and deletes the page
// row: postings go first, each affected lemma's frequency drops by one, and
// lemmas that reach zero are deleted.
func (ix *Indexer) RemovePage(page *storage.Page) error {
	return ix.store.InTx(func(s storage.Store) error {
		postings, err := s.PostingsForPage(page.ID)
		if err != nil {
			return fmt.Errorf("failed to load postings: %w", err)
		}

		if len(postings) > 0 {
			lemmaIDs := make([]int64, 0, len(postings))
			for _, posting := range postings {
				lemmaIDs = append(lemmaIDs, posting.LemmaID)
			}
			lemmas, err := s.LemmasByIDs(lemmaIDs)
			if err != nil {
				return fmt.Errorf("failed to load lemmas: %w", err)
			}

			var keep []*storage.Lemma
			var remove []int64
			for _, lemma := range lemmas {
				lemma.Frequency--
				if lemma.Frequency > 0 {
					keep = append(keep, lemma)
				} else {
					remove = append(remove, lemma.ID)
				}
			}

			if err := s.DeletePostingsForPage(page.ID); err != nil {
				return fmt.Errorf("failed to delete postings: %w", err)
			}
			if err := s.SaveLemmas(keep); err != nil {
				return fmt.Errorf("failed to update lemmas: %w", err)
			}
			if err := s.DeleteLemmas(remove); err != nil {
				return fmt.Errorf("failed to delete lemmas: %w", err)
			}
		}

		if err := s.DeletePage(page.ID); err != nil {
			return fmt.Errorf("failed to delete page: %w", err)
		}
		return nil
	})
}
