// Package fisher computes the sliding-window Fisher Information of a
// multivariate trajectory.
//
// Inside each window, samples are grouped into "indistinguishable" states at
// 100 strictness levels using a per-dimension size-of-states tolerance
// (SOST). Each level yields a Fisher value from the group-size distribution;
// a window's statistic is the mean of its profile from the first level at
// which any window departs from the single-state value.
//
// Missing samples are NaN. They never match any other sample and invalidate
// every SOST sub-window that contains them.
package fisher
