package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/san-kum/odelab/internal/dynamo"
)

// SpectrumData holds one-sided amplitudes at frequencies k/(n*dt).
type SpectrumData struct {
	Freq      []float64
	Amplitude []float64
}

// Spectrum removes the mean of series, applies a Hann window and returns
// the amplitude spectrum for samples spaced dt apart.
func Spectrum(series []float64, dt float64) SpectrumData {
	n := len(series)
	if n < 2 || dt <= 0 {
		return SpectrumData{}
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	x := make([]float64, n)
	for i, v := range series {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	out := SpectrumData{Freq: make([]float64, half), Amplitude: make([]float64, half)}
	for k := 0; k < half; k++ {
		out.Freq[k] = float64(k) / (float64(n) * dt)
		out.Amplitude[k] = cmplx.Abs(coeffs[k])
	}
	return out
}

// DominantFrequency returns the frequency with the largest amplitude,
// ignoring the zero bin. It returns 0 for constant or too short series.
func DominantFrequency(series []float64, dt float64) float64 {
	s := Spectrum(series, dt)
	best, bestAmp := 0, 0.0
	for k := 1; k < len(s.Amplitude); k++ {
		if s.Amplitude[k] > bestAmp {
			best, bestAmp = k, s.Amplitude[k]
		}
	}
	if best == 0 || bestAmp < 1e-12 {
		return 0
	}
	return s.Freq[best]
}

// SampleSpacing returns the grid step of traj, or 0 when it has fewer than
// two samples.
func SampleSpacing(traj *dynamo.Trajectory) float64 {
	if traj.Len() < 2 {
		return 0
	}
	return (traj.T[traj.Len()-1] - traj.T[0]) / float64(traj.Len()-1)
}
