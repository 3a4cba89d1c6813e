package service

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glove/internal/embedding/glove"
	"glove/internal/logger"
	"glove/internal/tagging"
	"glove/internal/vectorstore/memory"
)

const sampleVectors = `4 3
king 0.9 0.1 0.2
queen 0.85 0.15 0.25
apple 0.1 0.9 0.1
pear 0.15 0.85 0.05
`

func readerLoader(body string) Loader {
	return func(string) (*glove.WordEmbeddingMap, error) {
		return glove.Read(strings.NewReader(body), glove.Options{Rand: rand.New(rand.NewPCG(1, 1))})
	}
}

func newLoaded(t *testing.T) (*EmbeddingServiceImpl, *memory.Storage) {
	t.Helper()
	store := memory.NewStorage()
	svc := NewEmbeddingService(readerLoader(sampleVectors), store, logger.Discard())
	summary, err := svc.Load("vectors.txt")
	require.NoError(t, err)
	assert.Equal(t, "4 words, dim 3, 1 header line(s), 0 duplicate(s) skipped", summary)
	return svc, store
}

func TestLoadIndexesVocabulary(t *testing.T) {
	svc, store := newLoaded(t)
	assert.Equal(t, 4, store.Len())

	m, err := svc.Lookup()
	require.NoError(t, err)
	assert.Equal(t, 5, m.Index.Len())
}

func TestSimilarExcludesQueryWord(t *testing.T) {
	svc, _ := newLoaded(t)

	res, err := svc.Similar("king", 2)
	require.NoError(t, err)
	assert.False(t, res.OutOfVocabulary)
	require.Len(t, res.Neighbors, 2)
	assert.Equal(t, "queen", res.Neighbors[0].Entry.Word)
	assert.Equal(t, 2, res.Neighbors[0].Entry.ID)
	for _, n := range res.Neighbors {
		assert.NotEqual(t, "king", n.Entry.Word)
	}

	res, err = svc.Similar("pear", 1)
	require.NoError(t, err)
	require.Len(t, res.Neighbors, 1)
	assert.Equal(t, "apple", res.Neighbors[0].Entry.Word)
}

func TestSimilarOutOfVocabulary(t *testing.T) {
	svc, _ := newLoaded(t)
	res, err := svc.Similar("dragonfruit", 3)
	require.NoError(t, err)
	assert.True(t, res.OutOfVocabulary)
	assert.Len(t, res.Neighbors, 3)
}

func TestQueriesBeforeLoad(t *testing.T) {
	svc := NewEmbeddingService(readerLoader(sampleVectors), memory.NewStorage(), logger.Discard())
	_, err := svc.Similar("king", 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = svc.Lookup()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = svc.Coverage(nil)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoadPropagatesLoaderError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewEmbeddingService(func(string) (*glove.WordEmbeddingMap, error) { return nil, boom }, memory.NewStorage(), logger.Discard())
	_, err := svc.Load("x")
	assert.ErrorIs(t, err, boom)
}

func TestCoverage(t *testing.T) {
	svc, _ := newLoaded(t)
	sentences := []tagging.Sentence{
		{Words: []string{"king", "eats", "apple"}, Golds: []string{"N", "V", "N"}, Preds: []string{"N", "N", "N"}},
		{Words: []string{"queen", "eats"}, Golds: []string{"N", "V"}},
	}
	report, err := svc.Coverage(sentences)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sentences)
	assert.Equal(t, 5, report.Tokens)
	assert.Equal(t, 2, report.OOVTokens)
	assert.Equal(t, 1, report.UniqueOOV)
	assert.Equal(t, 2, report.Correct)
	assert.Equal(t, 3, report.Predicted)
	assert.InDelta(t, 0.4, report.OOVRate(), 1e-12)
}
