package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"glove/internal/domain"
)

// Storage is an in-memory word vector index using brute-force cosine
// similarity. Vectors are expected to be L2-normalized.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	entries   []domain.Entry
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.entries = nil
	return nil
}

func (s *Storage) Upsert(entries []domain.Entry, vectors [][]float64) error {
	if len(entries) != len(vectors) {
		return errors.New("entries and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %q: got %d, want %d", entries[i].Word, len(v), s.dimension)
		}
	}
	for i, v := range vectors {
		vec := make([]float64, len(v))
		copy(vec, v)
		s.entries = append(s.entries, entries[i])
		s.vectors = append(s.vectors, vec)
	}
	return nil
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension %d, store dimension %d", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 10
	}
	scores := make([]float64, len(s.vectors))
	for i, v := range s.vectors {
		scores[i] = floats.Dot(v, vector)
	}
	if norm := floats.Norm(vector, 2); norm > 0 {
		floats.Scale(1/norm, scores)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.Neighbor, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.Neighbor{Entry: s.entries[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.entries = nil
	return nil
}

// Len returns the number of stored vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}
