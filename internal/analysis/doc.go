// Package analysis characterizes membrane runs.
//
//   - [Spectrum], [DominantFrequency]: windowed FFT of a probe trace
//   - [SeparationRate]: growth rate of a small height perturbation
//   - [DampingSweep]: probe response across damping values
//   - [GeneratePhasePortrait]: height/velocity trajectory of one node
//
// The drive is sin(t) with t advancing by the time step each tick, so the
// center oscillates at 1/(2*pi) cycles per clock unit:
//
//	freq, _, err := analysis.DominantFrequency(trace, 0.1)
package analysis
