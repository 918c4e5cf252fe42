//go:build !opencl

package compute

import (
	"errors"

	"github.com/san-kum/fibersim/internal/membrane"
)

var errOpenCLDisabled = errors.New("OpenCL support is not enabled; rebuild with -tags opencl")

type OpenCLBackend struct{}

func NewOpenCLBackend() (*OpenCLBackend, error) {
	return nil, errOpenCLDisabled
}

func (b *OpenCLBackend) Name() string       { return NameOpenCL }
func (b *OpenCLBackend) Available() bool    { return false }
func (b *OpenCLBackend) Cleanup()           {}
func (b *OpenCLBackend) DeviceName() string { return "" }

func (b *OpenCLBackend) Step(prev, next *membrane.Grid, p membrane.Params) error {
	return errOpenCLDisabled
}
