package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glove/internal/domain"
)

func TestStorageSearchRanksByCosine(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	entries := []domain.Entry{{ID: 1, Word: "east"}, {ID: 2, Word: "north"}, {ID: 3, Word: "northeast"}}
	vectors := [][]float64{{1, 0}, {0, 1}, {0.6, 0.8}}
	require.NoError(t, s.Upsert(entries, vectors))
	assert.Equal(t, 3, s.Len())

	// Unnormalized query still yields cosine scores.
	res, err := s.Search([]float64{0, 2}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "north", res[0].Entry.Word)
	assert.InDelta(t, 1.0, res[0].Score, 1e-12)
	assert.Equal(t, "northeast", res[1].Entry.Word)
	assert.InDelta(t, 0.8, res[1].Score, 1e-12)

	res, err = s.Search([]float64{1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func TestStorageValidation(t *testing.T) {
	s := NewStorage()
	assert.Error(t, s.Init(0))
	require.NoError(t, s.Init(3))

	err := s.Upsert([]domain.Entry{{ID: 1, Word: "a"}}, [][]float64{{1, 0}})
	assert.Error(t, err)
	err = s.Upsert([]domain.Entry{{ID: 1, Word: "a"}}, nil)
	assert.Error(t, err)
	_, err = s.Search([]float64{1}, 1)
	assert.Error(t, err)
}

func TestStorageClear(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert([]domain.Entry{{ID: 1, Word: "a"}}, [][]float64{{1}}))
	require.NoError(t, s.Clear())
	res, err := s.Search([]float64{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}
