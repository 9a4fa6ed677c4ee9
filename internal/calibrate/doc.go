// Package calibrate searches for the recurrence radius that produces a target
// recurrence density.
//
// Each round proposes a range of candidate radii around the current best,
// evaluates all of them concurrently, waits for every candidate to finish and
// adopts the one whose density is closest to the target. With a single worker
// the search falls back to a damped serial step.
//
// The search is bounded: Options.MaxIterations and Options.Timeout both end it
// with a *ConvergenceError.
package calibrate
