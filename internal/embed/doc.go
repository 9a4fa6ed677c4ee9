// Package embed reconstructs a state-space trajectory from a scalar series
// by time-delay embedding.
//
//   - [Embed]: builds an [dynamo.EmbeddedSeries] from a series, m and tau
//   - [TauSearch]: picks tau at the first minimum of the lagged mutual information
//   - [MutualInformation]: binned mutual information between two sequences
//
// With AutoTau set, Embed runs TauSearch first:
//
//	emb, err := embed.Embed(s, embed.Options{M: 3, AutoTau: true})
//	if errors.Is(err, embed.ErrNoLocalMinimum) {
//	    // supply Tau explicitly or raise NumLags
//	}
package embed
