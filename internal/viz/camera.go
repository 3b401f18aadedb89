package viz

import (
	"math"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Camera is an orthographic view of the unit cube: points are rotated about
// the X, Y and Z axes in that order and the Z coordinate is dropped.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
}

// NewIsometricCamera returns the fixed view used for phase portraits.
func NewIsometricCamera() *Camera {
	return &Camera{RotX: -math.Pi / 3, RotY: 0, RotZ: -math.Pi / 4, Zoom: 1}
}

// RotatePoint rotates a point around the camera's axes.
func (c *Camera) RotatePoint(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project returns plane coordinates and depth of p.
func (c *Camera) Project(p Vec3) (x, y, depth float64) {
	r := c.RotatePoint(p).Scale(c.Zoom)
	return r.X, r.Y, r.Z
}

// Normalize maps points into the cube [-1, 1]^3, scaling every axis
// independently. A flat axis maps to 0.
func Normalize(pts []Vec3) []Vec3 {
	if len(pts) == 0 {
		return nil
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = Vec3{math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z)}
		hi = Vec3{math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z)}
	}
	mid := lo.Add(hi).Scale(0.5)
	half := hi.Sub(lo).Scale(0.5)

	out := make([]Vec3, len(pts))
	for i, p := range pts {
		d := p.Sub(mid)
		out[i] = Vec3{ratio(d.X, half.X), ratio(d.Y, half.Y), ratio(d.Z, half.Z)}
	}
	return out
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Curve converts three equal-length series into points.
func Curve(xs, ys, zs []float64) []Vec3 {
	n := min(len(xs), len(ys), len(zs))
	pts := make([]Vec3, n)
	for i := 0; i < n; i++ {
		pts[i] = Vec3{xs[i], ys[i], zs[i]}
	}
	return pts
}

// DrawCurve projects a normalized polyline with cam and draws it onto c,
// fitted to the canvas.
func DrawCurve(c *Canvas, pts []Vec3, cam *Camera) {
	if c == nil || cam == nil || len(pts) == 0 {
		return
	}
	// The unit cube projects inside a disc of radius sqrt(3).
	w, h := float64(c.DotsWide()-1), float64(c.DotsHigh()-1)
	scale := math.Min(w, h) / (2 * math.Sqrt(3) * cam.Zoom)

	toScreen := func(p Vec3) (int, int) {
		x, y, _ := cam.Project(p)
		return int(math.Round(w/2 + x*scale)), int(math.Round(h/2 - y*scale))
	}

	px, py := toScreen(pts[0])
	c.Set(px, py)
	for _, p := range pts[1:] {
		x, y := toScreen(p)
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

// PhasePortrait renders a 3-D trajectory as braille text of the given size
// in characters.
func PhasePortrait(xs, ys, zs []float64, width, height int) string {
	c := NewCanvas(width, height)
	DrawCurve(c, Normalize(Curve(xs, ys, zs)), NewIsometricCamera())
	return c.String()
}
