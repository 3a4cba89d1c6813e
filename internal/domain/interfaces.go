package domain

// Entry is a vocabulary word stored in a vector store.
type Entry struct {
	ID   int
	Word string
}

// Neighbor is an entry matching a query vector with its cosine similarity.
type Neighbor struct {
	Entry Entry
	Score float64
}

// SimilarResult is the answer to a nearest-neighbour query for one word.
type SimilarResult struct {
	Word            string
	OutOfVocabulary bool
	Neighbors       []Neighbor
}

// CoverageReport counts how much of a corpus the vocabulary covers.
type CoverageReport struct {
	Sentences int
	Tokens    int
	OOVTokens int
	UniqueOOV int
	Correct   int
	Predicted int
}

// OOVRate is the share of tokens routed to the unknown-word vector.
func (c CoverageReport) OOVRate() float64 {
	if c.Tokens == 0 {
		return 0
	}
	return float64(c.OOVTokens) / float64(c.Tokens)
}

// EmbeddingService defines the operations exposed by the application core.
type EmbeddingService interface {
	Load(path string) (summary string, err error)
	Similar(word string, topK int) (SimilarResult, error)
}
