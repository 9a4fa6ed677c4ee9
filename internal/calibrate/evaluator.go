package calibrate

import (
	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/recurrence"
)

// Evaluator reports the recurrence density at a radius. Implementations must be
// safe for concurrent use.
type Evaluator interface {
	Density(eps float64) (float64, error)
}

// Builder evaluates each radius by constructing the full matrix.
type Builder struct {
	Emb *dynamo.EmbeddedSeries
}

func (b Builder) Density(eps float64) (float64, error) {
	m, err := recurrence.Build(b.Emb, eps)
	if err != nil {
		return 0, err
	}
	return m.Density(), nil
}

var (
	_ Evaluator = Builder{}
	_ Evaluator = (*recurrence.Distances)(nil)
)
