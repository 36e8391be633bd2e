package indexing

type Statistics struct {
	Result     bool           `json:"result"`
	Statistics StatisticsData `json:"statistics"`
}

type StatisticsData struct {
	Total    TotalStatistics      `json:"total"`
	Detailed []DetailedStatistics `json:"detailed"`
}

type TotalStatistics struct {
	Sites    int  `json:"sites"`
	Pages    int  `json:"pages"`
	Lemmas   int  `json:"lemmas"`
	Indexing bool `json:"indexing"`
}

type DetailedStatistics struct {
	URL        string `json:"url"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	StatusTime int64  `json:"statusTime"`
	Error      string `json:"error,omitempty"`
	Pages      int    `json:"pages"`
	Lemmas     int    `json:"lemmas"`
}

// Statistics reports per-site and total page and lemma counts for every site
// in the database. StatusTime is Unix milliseconds.
func (s *Service) Statistics() (Statistics, error) {
	sites, err := s.store.Sites()
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		Result: true,
		Statistics: StatisticsData{
			Total:    TotalStatistics{Sites: len(sites), Indexing: s.IsIndexing()},
			Detailed: make([]DetailedStatistics, 0, len(sites)),
		},
	}

	for _, site := range sites {
		pages, err := s.store.CountPagesBySite(site.ID)
		if err != nil {
			return Statistics{}, err
		}
		lemmas, err := s.store.CountLemmasBySite(site.ID)
		if err != nil {
			return Statistics{}, err
		}

		stats.Statistics.Total.Pages += pages
		stats.Statistics.Total.Lemmas += lemmas
		stats.Statistics.Detailed = append(stats.Statistics.Detailed, DetailedStatistics{
			URL:        site.URL,
			Name:       site.Name,
			Status:     string(site.Status),
			StatusTime: site.StatusTime.UnixMilli(),
			Error:      site.LastError,
			Pages:      pages,
			Lemmas:     lemmas,
		})
	}
	return stats, nil
}
