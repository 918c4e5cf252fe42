package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrShortSeries is returned when a series is too short to analyze.
var ErrShortSeries = errors.New("analysis: series too short")

const minSpectrumLen = 4

// Spectrum returns the one-sided power spectrum of series sampled every dt.
// The mean is removed and a Hann window applied before the transform.
func Spectrum(series []float64, dt float64) (freqs, power []float64, err error) {
	n := len(series)
	if n < minSpectrumLen {
		return nil, nil, fmt.Errorf("%w: %d samples", ErrShortSeries, n)
	}
	if dt <= 0 {
		return nil, nil, fmt.Errorf("analysis: sample spacing must be positive, got %g", dt)
	}

	x := make([]float64, n)
	copy(x, series)
	floats.AddConst(-stat.Mean(x, nil), x)
	window.Apply(x, window.Hann)

	spec := fft.FFTReal(x)
	bins := n/2 + 1
	freqs = make([]float64, bins)
	power = make([]float64, bins)
	for k := 0; k < bins; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		a := cmplx.Abs(spec[k])
		power[k] = a * a
	}
	return freqs, power, nil
}

// DominantFrequency returns the non-DC bin with the most power.
func DominantFrequency(series []float64, dt float64) (freq, power float64, err error) {
	freqs, p, err := Spectrum(series, dt)
	if err != nil {
		return 0, 0, err
	}
	k := floats.MaxIdx(p[1:]) + 1
	return freqs[k], p[k], nil
}
