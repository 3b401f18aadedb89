package render

import (
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/viz"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue, asciigraph.Red, asciigraph.Green, asciigraph.Yellow,
	asciigraph.Magenta, asciigraph.Cyan,
}

// Terminal plots every series of traj as text, width columns wide and
// height rows tall.
func Terminal(traj *dynamo.Trajectory, width, height int) string {
	if traj == nil || traj.Len() == 0 {
		return ""
	}
	data := make([][]float64, traj.Dim())
	colors := make([]asciigraph.AnsiColor, traj.Dim())
	labels := make([]string, traj.Dim())
	for i, ys := range traj.Y {
		data[i] = Downsample(ys, width)
		colors[i] = seriesColors[i%len(seriesColors)]
		labels[i] = traj.Label(i)
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(strings.Join(labels, ", ")+" vs t"),
	)
}

// TerminalPhase draws the phase plane of a two-variable system or the 3-D
// phase portrait of a three-variable one as braille text. Other dimensions
// give "".
func TerminalPhase(traj *dynamo.Trajectory, width, height int) string {
	if traj == nil || traj.Len() == 0 {
		return ""
	}
	switch traj.Dim() {
	case 2:
		return viz.PhasePlane(traj.Y[0], traj.Y[1], width, height)
	case 3:
		return viz.PhasePortrait(traj.Y[0], traj.Y[1], traj.Y[2], width, height)
	}
	return ""
}

// Downsample keeps at most n evenly spaced values, always including the
// first and last.
func Downsample(ys []float64, n int) []float64 {
	if n <= 1 || len(ys) <= n {
		return append([]float64(nil), ys...)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = ys[i*(len(ys)-1)/(n-1)]
	}
	return out
}
