package crawler

import (
	"sync"
	"sync/atomic"
)

// Frontier is the shared state of one site's crawl: the set of URLs already
// claimed by some worker, plus the run-level liveness flag every worker
// checks before doing network I/O. The flag is owned by the orchestrator and
// may be shared across the frontiers of several sites.
type Frontier struct {
	running *atomic.Bool

	mu      sync.Mutex
	visited map[string]struct{}
}

func NewFrontier(running *atomic.Bool) *Frontier {
	return &Frontier{
		running: running,
		visited: make(map[string]struct{}),
	}
}

// TryVisit claims url. It returns true exactly once per URL; false means
// some other task already owns it and the caller must skip.
func (f *Frontier) TryVisit(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.visited[url]; seen {
		return false
	}
	f.visited[url] = struct{}{}
	return true
}

// Running reports whether the crawl run is still live. A cleared flag is the
// cooperative stop signal.
func (f *Frontier) Running() bool {
	return f.running.Load()
}

// Stop clears the run flag. Every frontier sharing the flag stops too.
func (f *Frontier) Stop() {
	f.running.Store(false)
}

// Visited reports the number of claimed URLs.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
