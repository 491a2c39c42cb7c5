package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/doctree"
)

// BuildStatus describes the outcome of a rebuild.
type BuildStatus string

const (
	StatusBuilt     BuildStatus = "built"
	StatusUnchanged BuildStatus = "unchanged"
	StatusFailed    BuildStatus = "failed"
)

// Result is one completed site build.
type Result struct {
	ID          string                     `json:"build_id"`
	ContentHash string                     `json:"content_hash"`
	CreatedAt   time.Time                  `json:"created_at"`
	Duration    time.Duration              `json:"-"`
	Pages       int                        `json:"pages"`
	Sidebars    map[string]doctree.Sidebar `json:"sidebars"`
	Warnings    []string                   `json:"warnings"`
}

// Sidebar returns the sidebar of one locale.
func (r *Result) Sidebar(locale string) (doctree.Sidebar, bool) {
	sb, ok := r.Sidebars[locale]
	return sb, ok
}

// Summary is a result without its sidebars.
type Summary struct {
	ID          string    `json:"build_id"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	DurationMS  int64     `json:"duration_ms"`
	Pages       int       `json:"pages"`
	Locales     int       `json:"locales"`
	Warnings    []string  `json:"warnings"`
}

// Summarize returns the JSON-safe summary of r.
func (r *Result) Summarize() Summary {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Summary{
		ID:          r.ID,
		ContentHash: r.ContentHash,
		CreatedAt:   r.CreatedAt,
		DurationMS:  r.Duration.Milliseconds(),
		Pages:       r.Pages,
		Locales:     len(r.Sidebars),
		Warnings:    warnings,
	}
}

// ResultStore is a thread-safe in-memory build registry with TTL eviction.
// The latest build never expires.
type ResultStore struct {
	mu      sync.Mutex
	results map[string]*Result
	latest  *Result
	ttl     time.Duration
}

func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		results: make(map[string]*Result),
		ttl:     ttl,
	}
}

// Put stores res and makes it the latest build.
func (s *ResultStore) Put(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.ID] = res
	s.latest = res
}

func (s *ResultStore) Get(id string) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[id]
}

// Latest returns the most recent build, or nil before the first one.
func (s *ResultStore) Latest() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Cleanup removes expired builds.
func (s *ResultStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, res := range s.results {
		if res != s.latest && now.Sub(res.CreatedAt) > s.ttl {
			delete(s.results, id)
		}
	}
}

// Len returns the number of stored builds.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
