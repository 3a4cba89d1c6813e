package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFrozenTableCopiesInput(t *testing.T) {
	src := mat.NewDense(2, 3, []float64{0, 0, 0, 1, 2, 3})
	table := NewFrozenTable(src)
	src.Set(1, 0, 99)

	assert.True(t, table.Frozen())
	assert.Equal(t, 1.0, table.At(1, 0))

	row, err := table.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, row)

	row[0] = 42
	assert.Equal(t, 1.0, table.At(1, 0), "Row must return a copy")
}

func TestFrozenTableGather(t *testing.T) {
	table := NewFrozenTable(mat.NewDense(3, 2, []float64{0, 0, 1, 1, 2, 2}))

	m, err := table.Gather([]int{2, 0, 2})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{2, 2}, mat.Row(nil, 0, m))
	assert.Equal(t, []float64{0, 0}, mat.Row(nil, 1, m))

	m.Set(0, 0, -1)
	assert.Equal(t, 2.0, table.At(2, 0))
}

func TestFrozenTableOutOfRange(t *testing.T) {
	table := NewFrozenTable(mat.NewDense(1, 1, nil))
	_, err := table.Row(1)
	assert.Error(t, err)
	_, err = table.Gather([]int{0, -1})
	assert.Error(t, err)
	_, err = table.Gather(nil)
	assert.Error(t, err)
}
