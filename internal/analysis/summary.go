package analysis

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/odelab/internal/dynamo"
)

type SeriesSummary struct {
	Name      string
	Min, Max  float64
	Mean      float64
	Initial   float64
	Final     float64
	Frequency float64
}

// Summarize describes every series of traj.
func Summarize(traj *dynamo.Trajectory) []SeriesSummary {
	dt := SampleSpacing(traj)
	out := make([]SeriesSummary, traj.Dim())
	for i, ys := range traj.Y {
		s := SeriesSummary{Name: traj.Label(i)}
		if len(ys) > 0 {
			s.Min, s.Max = floats.Min(ys), floats.Max(ys)
			s.Mean = floats.Sum(ys) / float64(len(ys))
			s.Initial = ys[0]
			s.Final = ys[len(ys)-1]
		}
		s.Frequency = DominantFrequency(ys, dt)
		out[i] = s
	}
	return out
}
