package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gradecalc/internal/semesters"
)

// SeedFile is read from the data directory at startup when present.
const SeedFile = "seed_semesters.json"

// Store is a process-local KV. Values survive only as long as the process.
type Store struct {
	mu    sync.Mutex
	items map[string]string
}

var _ semesters.KV = (*Store)(nil)

func New() *Store {
	return &Store{items: map[string]string{}}
}

// NewFromFiles seeds the semester record from base/seed_semesters.json.
func NewFromFiles(base string) *Store {
	s := New()
	if base == "" {
		return s
	}
	data, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err != nil {
		return s
	}
	if seed := strings.TrimSpace(string(data)); seed != "" {
		s.items[semesters.Key] = seed
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
