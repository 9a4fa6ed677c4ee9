// Package synth generates seeded synthetic series with known regime changes,
// for tests and demonstrations.
//
// Continuous systems are integrated with a fixed-step RK4 scheme and sampled
// every Stride steps; an optional additive noise kick after each step makes
// them stochastic. Every generator switches one parameter at SwitchAt so the
// output carries a single, known transition.
package synth
