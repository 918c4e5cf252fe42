// Package compute provides the backends that advance membrane generations.
//
//   - cpu: goroutine fan-out over index ranges (always available)
//   - opencl: the update rule as an OpenCL kernel (build with -tags opencl)
//
// A backend is owned by the engine that uses it; there is no package-level
// active backend. The CPU grid stays authoritative: the OpenCL backend
// uploads the previous generation every tick and reads the next one back,
// so the boundary forcer and guard always see host memory.
//
//	b, err := compute.Select("auto", 0, logger)
//	if err != nil {
//		return err
//	}
//	defer b.Cleanup()
//	eng, err := membrane.NewEngine(membrane.EngineConfig{Stepper: b})
package compute
