// Package recurrence builds recurrence matrices from embedded trajectories.
//
// Entry (i, j) of a recurrence matrix is set when the Euclidean distance
// between embedded points i and j is at most epsilon. Every pair is evaluated
// once and mirrored, so the result is exactly symmetric, and the diagonal is
// always set.
//
//   - [Build]: one matrix from scratch for a single epsilon
//   - [Distances]: the pairwise distance grid computed once, then thresholded
//     cheaply for many epsilons (used by the calibration search)
//   - [Determinism], [Laminarity]: line-based recurrence quantification
package recurrence
