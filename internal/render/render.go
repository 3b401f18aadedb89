// Package render draws trajectories: a time-series plot for every solution,
// a projected 3-D phase portrait when there are exactly three variables, and
// asciigraph text plots for the terminal.
package render

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/viz"
)

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

var ErrUnknownFormat = errors.New("render: unknown image format")

// ParseFormat accepts "png" and "svg"; empty means png.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options control image size.
type Options struct {
	Width, Height vg.Length
	DPI           int
}

func DefaultOptions() Options {
	return Options{Width: 8 * vg.Inch, Height: 6 * vg.Inch, DPI: 150}
}

// Artifacts lists the files written by Render.
type Artifacts struct {
	Plot    string
	Phase3D string
}

// Paths returns every written file.
func (a Artifacts) Paths() []string {
	paths := []string{a.Plot}
	if a.Phase3D != "" {
		paths = append(paths, a.Phase3D)
	}
	return paths
}

// Render writes <name>.<format> into dir and, for three variables only,
// <name>3d.<format>.
func Render(name string, traj *dynamo.Trajectory, dir string, format Format, opts Options) (Artifacts, error) {
	if traj == nil || traj.Len() == 0 || traj.Dim() == 0 {
		return Artifacts{}, errors.New("render: empty trajectory")
	}
	if format == "" {
		format = PNG
	}
	if format != PNG && format != SVG {
		return Artifacts{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("cannot create directory: %w", err)
	}

	var out Artifacts
	p, err := TimeSeries(name, traj)
	if err != nil {
		return Artifacts{}, err
	}
	base := FileName(name)
	out.Plot = filepath.Join(dir, base+"."+string(format))
	if err := save(p, out.Plot, format, opts); err != nil {
		return Artifacts{}, err
	}

	if traj.Dim() == 3 {
		p3, err := Phase3D(name, traj, viz.NewIsometricCamera())
		if err != nil {
			return Artifacts{}, err
		}
		out.Phase3D = filepath.Join(dir, base+"3d."+string(format))
		if err := save(p3, out.Phase3D, format, opts); err != nil {
			return Artifacts{}, err
		}
	}
	return out, nil
}

// TimeSeries plots every series against time, one legend entry per variable.
func TimeSeries(title string, traj *dynamo.Trajectory) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	stylePlot(p)

	for i, ys := range traj.Y {
		pts := make(plotter.XYs, len(ys))
		for k := range ys {
			pts[k].X = traj.T[k]
			pts[k].Y = ys[k]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", traj.Label(i), err)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(traj.Label(i), line)
	}
	p.Legend.Top = true
	return p, nil
}

// Phase3D plots the three series as a curve seen through cam, with the
// coordinate axes drawn from the corner of the bounding cube.
func Phase3D(title string, traj *dynamo.Trajectory, cam *viz.Camera) (*plot.Plot, error) {
	if traj.Dim() != 3 {
		return nil, fmt.Errorf("render: phase portrait needs 3 variables, got %d", traj.Dim())
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	corner := viz.Vec3{X: -1, Y: -1, Z: -1}
	axes := [3]viz.Vec3{{X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}}
	labels := plotter.XYLabels{XYs: make(plotter.XYs, 3), Labels: make([]string, 3)}
	for i, end := range axes {
		pts := projectAll(cam, []viz.Vec3{corner, end})
		axis, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		axis.LineStyle.Color = plotutil.Color(6)
		axis.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(axis)
		labels.XYs[i] = pts[1]
		labels.Labels[i] = traj.Label(i)
	}
	names, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}

	curve, err := plotter.NewLine(projectAll(cam, viz.Normalize(viz.Curve(traj.Y[0], traj.Y[1], traj.Y[2]))))
	if err != nil {
		return nil, err
	}
	curve.LineStyle.Width = vg.Points(1)
	curve.LineStyle.Color = plotutil.Color(0)
	p.Add(curve, names)
	return p, nil
}

func projectAll(cam *viz.Camera, pts []viz.Vec3) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		out[i].X, out[i].Y, _ = cam.Project(pt)
	}
	return out
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)

	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Padding = vg.Points(6)
	p.Y.Label.Padding = vg.Points(6)

	p.X.Tick.Label.Font.Size = vg.Points(10)
	p.Y.Tick.Label.Font.Size = vg.Points(10)

	p.Add(plotter.NewGrid())
}

func save(p *plot.Plot, filename string, format Format, opts Options) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", format, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := write(p, bw, format, opts); err != nil {
		return err
	}
	return bw.Flush()
}

func write(p *plot.Plot, w io.Writer, format Format, opts Options) error {
	if format == SVG {
		wt, err := p.WriterTo(opts.Width, opts.Height, "svg")
		if err != nil {
			return err
		}
		_, err = wt.WriteTo(w)
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(opts.Width, opts.Height),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// FileName turns a model name into a single path element. Separators become
// underscores; an empty or dot-only name becomes "model".
func FileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if strings.Trim(name, ".") == "" {
		return "model"
	}
	return name
}
