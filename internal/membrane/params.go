package membrane

const (
	// DefaultDamping divides the velocity every step.
	DefaultDamping float32 = 1.01

	// GravityAcceleration is the downward bias applied when gravity is on.
	GravityAcceleration float32 = 0.098

	// DefaultTimeStep advances the oscillator clock once per tick.
	DefaultTimeStep float32 = 0.1
)

// Params are the per-step inputs of the update rule.
type Params struct {
	Damping      float32
	Acceleration float32
	Time         float32
}

func DefaultParams() Params {
	return Params{Damping: DefaultDamping}
}

// AccelerationFor maps the gravity toggle to its acceleration value.
func AccelerationFor(enabled bool) float32 {
	if enabled {
		return GravityAcceleration
	}
	return 0
}
