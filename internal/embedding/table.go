package embedding

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FrozenTable is a read-only embedding matrix: row i holds the vector of the
// word with vocabulary id i. It owns a private copy of its data and offers no
// way to modify it.
type FrozenTable struct {
	m *mat.Dense
}

// NewFrozenTable copies m into a new table.
func NewFrozenTable(m mat.Matrix) *FrozenTable {
	return &FrozenTable{m: mat.DenseCopyOf(m)}
}

// Frozen reports that the table does not take updates.
func (t *FrozenTable) Frozen() bool { return true }

// Dims returns the vocabulary size and the embedding dimension.
func (t *FrozenTable) Dims() (rows, dim int) { return t.m.Dims() }

func (t *FrozenTable) At(id, j int) float64 { return t.m.At(id, j) }

// Row returns a copy of the vector stored for id.
func (t *FrozenTable) Row(id int) ([]float64, error) {
	if err := t.check(id); err != nil {
		return nil, err
	}
	return mat.Row(nil, id, t.m), nil
}

// Gather returns a len(ids) x dim matrix holding the rows for ids in order.
func (t *FrozenTable) Gather(ids []int) (*mat.Dense, error) {
	_, dim := t.m.Dims()
	if len(ids) == 0 {
		return nil, fmt.Errorf("gather: no ids")
	}
	out := mat.NewDense(len(ids), dim, nil)
	for i, id := range ids {
		if err := t.check(id); err != nil {
			return nil, err
		}
		out.SetRow(i, t.m.RawRowView(id))
	}
	return out, nil
}

func (t *FrozenTable) check(id int) error {
	rows, _ := t.m.Dims()
	if id < 0 || id >= rows {
		return fmt.Errorf("id %d out of range [0,%d)", id, rows)
	}
	return nil
}
