package service

import (
	"errors"
	"fmt"
	"log/slog"

	"glove/internal/domain"
	"glove/internal/embedding/glove"
	"glove/internal/tagging"
	"glove/internal/vectorstore"
)

// ErrNotLoaded is returned by queries issued before Load succeeded.
var ErrNotLoaded = errors.New("embeddings not loaded")

const upsertBatch = 1024

// Loader reads a pretrained embedding file.
type Loader func(path string) (*glove.WordEmbeddingMap, error)

type EmbeddingServiceImpl struct {
	load  Loader
	store vectorstore.Storage
	log   *slog.Logger
	emb   *glove.WordEmbeddingMap
}

var _ domain.EmbeddingService = (*EmbeddingServiceImpl)(nil)

func NewEmbeddingService(load Loader, store vectorstore.Storage, log *slog.Logger) *EmbeddingServiceImpl {
	return &EmbeddingServiceImpl{load: load, store: store, log: log}
}

// Load reads the embeddings at path and indexes every vocabulary word in the
// store. The unknown-word row is not indexed.
func (s *EmbeddingServiceImpl) Load(path string) (string, error) {
	m, err := s.load(path)
	if err != nil {
		return "", err
	}
	if err := s.store.Clear(); err != nil {
		return "", fmt.Errorf("clear store: %w", err)
	}
	if err := s.store.Init(m.Dim); err != nil {
		return "", fmt.Errorf("init store: %w", err)
	}
	words := m.Index.Words()
	entries := make([]domain.Entry, 0, upsertBatch)
	vectors := make([][]float64, 0, upsertBatch)
	flush := func() error {
		if len(entries) == 0 {
			return nil
		}
		if err := s.store.Upsert(entries, vectors); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		entries = make([]domain.Entry, 0, upsertBatch)
		vectors = make([][]float64, 0, upsertBatch)
		return nil
	}
	for id := 1; id < len(words); id++ {
		row, err := m.Table.Row(id)
		if err != nil {
			return "", err
		}
		entries = append(entries, domain.Entry{ID: id, Word: words[id]})
		vectors = append(vectors, row)
		if len(entries) == upsertBatch {
			if err := flush(); err != nil {
				return "", err
			}
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	s.emb = m
	s.log.Info("embedding index ready", "path", path, "words", len(words)-1, "dim", m.Dim)
	return fmt.Sprintf("%d words, dim %d, %d header line(s), %d duplicate(s) skipped",
		len(words)-1, m.Dim, m.Stats.Headers, m.Stats.Duplicates), nil
}

// Lookup returns the loaded embeddings.
func (s *EmbeddingServiceImpl) Lookup() (*glove.WordEmbeddingMap, error) {
	if s.emb == nil {
		return nil, ErrNotLoaded
	}
	return s.emb, nil
}

// Similar returns the topK words closest to word, excluding word itself.
// Out-of-vocabulary words are searched with the unknown-word vector.
func (s *EmbeddingServiceImpl) Similar(word string, topK int) (domain.SimilarResult, error) {
	if s.emb == nil {
		return domain.SimilarResult{}, ErrNotLoaded
	}
	if topK <= 0 {
		topK = 10
	}
	res := domain.SimilarResult{Word: word, OutOfVocabulary: s.emb.IsOutOfVocabulary(word)}
	found, err := s.store.Search(s.emb.Embed(word), topK+1)
	if err != nil {
		return res, err
	}
	for _, n := range found {
		if n.Entry.Word == word {
			continue
		}
		if len(res.Neighbors) == topK {
			break
		}
		res.Neighbors = append(res.Neighbors, n)
	}
	return res, nil
}

// Coverage counts the tokens of sentences that fall back to the unknown word,
// along with tagging accuracy when the sentences carry predictions.
func (s *EmbeddingServiceImpl) Coverage(sentences []tagging.Sentence) (domain.CoverageReport, error) {
	if s.emb == nil {
		return domain.CoverageReport{}, ErrNotLoaded
	}
	report := domain.CoverageReport{Sentences: len(sentences)}
	unique := make(map[string]struct{})
	for _, sent := range sentences {
		for _, w := range sent.Words {
			report.Tokens++
			if s.emb.IsOutOfVocabulary(w) {
				report.OOVTokens++
				unique[w] = struct{}{}
			}
		}
	}
	report.UniqueOOV = len(unique)
	report.Correct, report.Predicted = tagging.Accuracy(sentences)
	return report, nil
}
