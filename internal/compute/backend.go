package compute

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/fibersim/internal/membrane"
)

const (
	NameCPU    = "cpu"
	NameOpenCL = "opencl"
	NameAuto   = "auto"
)

// Backend is a membrane.Stepper bound to a device.
type Backend interface {
	membrane.Stepper
	Available() bool
	Cleanup()
}

// Names lists the accepted backend names.
func Names() []string {
	return []string{NameAuto, NameCPU, NameOpenCL}
}

// Select returns the named backend. "auto" prefers OpenCL and falls back to
// the CPU when no device can be opened.
func Select(name string, workers int, log logrus.FieldLogger) (Backend, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	switch name {
	case NameCPU, "":
		return NewCPUBackend(workers), nil
	case NameOpenCL:
		b, err := NewOpenCLBackend()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", membrane.ErrConfiguration, err)
		}
		log.WithField("device", b.DeviceName()).Info("using opencl backend")
		return b, nil
	case NameAuto:
		return AutoSelect(workers, log), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", membrane.ErrConfiguration, name)
}

func AutoSelect(workers int, log logrus.FieldLogger) Backend {
	if b, err := NewOpenCLBackend(); err == nil && b.Available() {
		log.WithField("device", b.DeviceName()).Info("using opencl backend")
		return b
	} else if err != nil {
		log.WithError(err).Debug("opencl unavailable, using cpu")
	}
	return NewCPUBackend(workers)
}
