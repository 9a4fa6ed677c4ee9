// Package dynamo provides the core value types shared by the recurrence
// analysis pipeline.
//
// The package defines the data that flows between pipeline stages:
//
//   - [Series]: an ordered (time, value) sequence, the raw input
//   - [State]: one point of a reconstructed state space
//   - [EmbeddedSeries]: a delay-embedded trajectory with its truncated time axis
//   - [ParallelFor]: chunked fan-out used by the quadratic stages
//
// # Example
//
//	s, err := dynamo.NewSeries(times, values)
//	if err != nil {
//	    return err
//	}
//	emb, err := embed.Embed(s, embed.Options{M: 3, Tau: 1})
//
// # Thread Safety
//
// Values are treated as immutable once constructed. Nothing in this package
// mutates a Series or EmbeddedSeries after it is returned, so they can be
// shared freely between goroutines.
package dynamo
