// Package membrane provides the numerical core of the fiber simulation.
//
// The package owns the height field and the rule that advances it:
//
//   - [Grid]: square, row-major array of [Node] (height, velocity)
//   - [Step]: one generation of the damped wave rule, read-previous/write-next
//   - [ApplyBoundary]: corner pins and the driven center oscillator
//   - [Engine]: double-buffered tick loop with the gravity toggle
//
// # Example
//
//	eng, _ := membrane.NewEngine(membrane.EngineConfig{Side: 16})
//	eng.SetAcceleration(true)
//	snap, err := eng.Advance()
//
// # Thread Safety
//
// [Step] never writes to its input generation, so it fans out across
// workers without locking. [Engine] serializes ticks with a mutex; the
// grids it returns are copies and may be read from any goroutine.
package membrane
