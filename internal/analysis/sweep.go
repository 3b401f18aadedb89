package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/solver"
)

// SweepPoint holds the distinct peaks of one variable for a parameter value.
type SweepPoint struct {
	Param float64
	Peaks []float64
}

// Sweep varies parameter paramIndex over [lo, hi] in steps values, solves
// every variant concurrently and records the local maxima of variable
// stateIndex over the second half of each trajectory. A settled system
// shows one peak per value, a period doubling two, chaos many.
func Sweep(d *model.Descriptor, paramIndex int, lo, hi float64, steps, stateIndex int) ([]SweepPoint, error) {
	params := d.Parameters()
	if paramIndex < 0 || paramIndex >= len(params) {
		return nil, fmt.Errorf("analysis: parameter index %d out of range", paramIndex)
	}
	if stateIndex < 0 || stateIndex >= d.Dim() {
		return nil, fmt.Errorf("analysis: variable index %d out of range", stateIndex)
	}
	if steps < 2 {
		steps = 2
	}

	values := solver.Grid(lo, hi, steps)
	variants := make([]*model.Descriptor, steps)
	for i, v := range values {
		p := append([]float64(nil), params...)
		p[paramIndex] = v
		variant, err := d.WithParameters(model.Literal(p...))
		if err != nil {
			return nil, err
		}
		variants[i] = variant
	}

	results := solver.SolveAll(variants)
	out := make([]SweepPoint, steps)
	var errs []error
	for i, r := range results {
		out[i].Param = values[i]
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s=%g: %w", d.ParameterNames()[paramIndex], values[i], r.Err))
			continue
		}
		ys := r.Trajectory.Y[stateIndex]
		out[i].Peaks = peaks(ys[len(ys)/2:])
	}
	return out, errors.Join(errs...)
}

// peaks returns the distinct local maxima of ys, quantized to 1e-3.
func peaks(ys []float64) []float64 {
	var out []float64
	seen := make(map[int64]bool)
	for k := 1; k+1 < len(ys); k++ {
		if ys[k] > ys[k-1] && ys[k] >= ys[k+1] {
			key := int64(math.Round(ys[k] * 1000))
			if !seen[key] {
				seen[key] = true
				out = append(out, ys[k])
			}
		}
	}
	return out
}

// SweepToASCII draws sweep data as a dot plot, parameter across.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Peaks {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if !foundFirst {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Peaks {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}
