package compute

import (
	"github.com/san-kum/fibersim/internal/membrane"
)

type CPUBackend struct {
	stepper *membrane.CPUStepper
}

func NewCPUBackend(workers int) *CPUBackend {
	return &CPUBackend{stepper: membrane.NewCPUStepper(workers)}
}

func (c *CPUBackend) Name() string    { return NameCPU }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}
func (c *CPUBackend) Workers() int    { return c.stepper.Workers }

func (c *CPUBackend) Step(prev, next *membrane.Grid, p membrane.Params) error {
	return c.stepper.Step(prev, next, p)
}
