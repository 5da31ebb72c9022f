package preprocess

import (
	"math"
	"math/rand"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// Split holds a shuffled train/test partition. TrainTarget and TestTarget
// are set only when a target column was separated out.
type Split struct {
	Train       *table.Table
	Test        *table.Table
	TrainTarget *table.Column
	TestTarget  *table.Column
}

// TrainTestSplit shuffles rows with a seeded source and holds out
// ceil(testSize*rows) of them. A target that is not a column is ignored.
func TrainTestSplit(t *table.Table, target string, testSize float64, seed int64) (*Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, apperr.Config("test size must be between 0 and 1, got %g", testSize)
	}
	n := t.NumRows()
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest <= 0 || nTrain <= 0 {
		return nil, apperr.InvalidInput("cannot split %d rows with test size %g: one side would be empty", n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	features := t
	var y *table.Column
	if target != "" {
		if c, ok := t.Column(target); ok {
			y = c
			features = t.Drop(target)
		}
	}
	s := &Split{
		Train: features.Take(trainIdx),
		Test:  features.Take(testIdx),
	}
	if y != nil {
		s.TrainTarget = takeColumn(y, trainIdx)
		s.TestTarget = takeColumn(y, testIdx)
	}
	return s, nil
}

func takeColumn(c *table.Column, idx []int) *table.Column {
	vals := make([]table.Value, len(idx))
	for i, r := range idx {
		vals[i] = c.Values[r]
	}
	return table.NewColumn(c.Name, c.Kind, vals)
}
