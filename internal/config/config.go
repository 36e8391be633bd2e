// Package config loads the YAML configuration: the crawl boundary (the list
// of sites) plus crawler, server, storage and search settings.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Site is one configured crawl root. The URL prefix is the site boundary:
// the crawler never leaves it and single-page indexing checks against it.
type Site struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

type Crawl struct {
	Workers       int           `mapstructure:"workers"`
	Politeness    time.Duration `mapstructure:"politeness"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	RespectRobots bool          `mapstructure:"respect_robots"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

type Storage struct {
	Path string `mapstructure:"path"`
}

type Search struct {
	SnippetWindow       int `mapstructure:"snippet_window"`
	SnippetMaxFragments int `mapstructure:"snippet_max_fragments"`
	DefaultLimit        int `mapstructure:"default_limit"`
}

type Config struct {
	Sites   []Site  `mapstructure:"sites"`
	Crawl   Crawl   `mapstructure:"crawl"`
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	Search  Search  `mapstructure:"search"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("crawl.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("crawl.politeness", "250ms")
	v.SetDefault("crawl.timeout", "30s")
	v.SetDefault("crawl.user_agent", "SiteSearchBot/1.0")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("storage.path", "sitesearch.db")
	v.SetDefault("search.snippet_window", 5)
	v.SetDefault("search.snippet_max_fragments", 3)
	v.SetDefault("search.default_limit", 20)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if len(cfg.Sites) == 0 {
		return nil, fmt.Errorf("config %s defines no sites", path)
	}
	for i, site := range cfg.Sites {
		if site.URL == "" {
			return nil, fmt.Errorf("site %d has an empty url", i)
		}
		// Root URLs are kept without a trailing slash so page paths
		// always start with "/".
		cfg.Sites[i].URL = strings.TrimSuffix(site.URL, "/")
	}
	return cfg, nil
}
