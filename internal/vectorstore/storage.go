package vectorstore

import "glove/internal/domain"

// Storage persists word vectors and supports similarity search.
type Storage interface {
	Init(dimension int) error
	Upsert(entries []domain.Entry, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.Neighbor, error)
	Clear() error
}
