package tabular

import (
	"math"
	"math/rand"
)

// Table is an in-memory numeric dataset. Column order is significant: the
// boosted-tree container expects the label in the first column.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// Shuffle reorders rows with a seeded generator so splits are reproducible.
func (t *Table) Shuffle(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(t.Rows), func(i, j int) {
		t.Rows[i], t.Rows[j] = t.Rows[j], t.Rows[i]
	})
}

// Split divides the table into train and validation tables. The validation
// table receives the trailing fraction of rows; callers shuffle first.
func (t *Table) Split(validationFraction float64) (train, validation *Table) {
	n := len(t.Rows)
	validationRows := int(math.Round(validationFraction * float64(n)))
	if validationRows > n {
		validationRows = n
	}
	boundary := n - validationRows

	train = &Table{Columns: t.Columns, Rows: t.Rows[:boundary]}
	validation = &Table{Columns: t.Columns, Rows: t.Rows[boundary:]}
	return train, validation
}
