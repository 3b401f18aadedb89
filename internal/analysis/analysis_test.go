package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
)

func sine(freq, dt float64, n int) []float64 {
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return ys
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		freq float64
		dt   float64
		n    int
	}{
		{2, 0.01, 1000},
		{0.5, 0.05, 999},
		{7, 0.004, 1024},
	}
	for _, tt := range tests {
		got := DominantFrequency(sine(tt.freq, tt.dt, tt.n), tt.dt)
		resolution := 1 / (float64(tt.n) * tt.dt)
		if math.Abs(got-tt.freq) > resolution {
			t.Errorf("freq %g: got %g (bin width %g)", tt.freq, got, resolution)
		}
	}
}

func TestDominantFrequency_Constant(t *testing.T) {
	ys := make([]float64, 100)
	for i := range ys {
		ys[i] = 4
	}
	if f := DominantFrequency(ys, 0.1); f != 0 {
		t.Errorf("constant series: got %g, want 0", f)
	}
	if f := DominantFrequency([]float64{1}, 0.1); f != 0 {
		t.Errorf("single sample: got %g, want 0", f)
	}
}

func TestSpectrum_Shape(t *testing.T) {
	s := Spectrum(sine(1, 0.1, 64), 0.1)
	if len(s.Freq) != 33 || len(s.Amplitude) != 33 {
		t.Fatalf("got %d bins, want 33", len(s.Freq))
	}
	if s.Freq[0] != 0 || math.Abs(s.Freq[32]-5) > 1e-12 {
		t.Errorf("frequency range = [%g, %g], want [0, 5]", s.Freq[0], s.Freq[32])
	}
}

func TestSummarize(t *testing.T) {
	tr := &dynamo.Trajectory{
		Names: []string{"A"},
		T:     []float64{0, 1, 2, 3},
		Y:     [][]float64{{1, 4, -2, 3}, {0, 0, 0, 0}},
	}
	got := Summarize(tr)
	if len(got) != 2 {
		t.Fatalf("got %d summaries", len(got))
	}
	a := got[0]
	if a.Name != "A" || a.Min != -2 || a.Max != 4 || a.Mean != 1.5 || a.Initial != 1 || a.Final != 3 {
		t.Errorf("summary = %+v", a)
	}
	if got[1].Name != "y1(t)" || got[1].Frequency != 0 {
		t.Errorf("summary = %+v", got[1])
	}
}

func TestLyapunovExponent_Decay(t *testing.T) {
	d, err := model.GetPreset("decay", "default").Build("decay")
	if err != nil {
		t.Fatal(err)
	}
	lambda, err := LyapunovExponent(d, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lambda+0.5) > 0.01 {
		t.Errorf("lambda = %g, want -0.5", lambda)
	}
}

func TestLyapunovExponent_LorenzIsChaotic(t *testing.T) {
	d, err := model.GetPreset("lorenz", "classic").Build("lorenz")
	if err != nil {
		t.Fatal(err)
	}
	lambda, err := LyapunovExponent(d, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	if lambda < 0.3 {
		t.Errorf("lambda = %g, expected a clearly positive exponent", lambda)
	}
}

func TestLyapunovExponent_Rejects(t *testing.T) {
	d, err := model.GetPreset("decay", "default").Build("decay")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := LyapunovExponent(d, 0); err == nil {
		t.Error("expected error for zero perturbation")
	}
}

func TestSweep(t *testing.T) {
	d, err := model.BuildText("sho", "y[1], -p[0]*y[0]", "0, 30", "1, 0", "1", model.Options{Resolution: 3000})
	if err != nil {
		t.Fatal(err)
	}
	points, err := Sweep(d, 0, 1, 4, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 4 || points[0].Param != 1 || points[3].Param != 4 {
		t.Fatalf("points = %+v", points)
	}
	for _, p := range points {
		if len(p.Peaks) == 0 {
			t.Errorf("param %g: no peaks", p.Param)
		}
		for _, v := range p.Peaks {
			if v < 0.99 || v > 1.001 {
				t.Errorf("param %g: peak %g, want ~1", p.Param, v)
			}
		}
	}
	if art := SweepToASCII(points, 20, 5); len(strings.Split(art, "\n")) != 5 {
		t.Errorf("unexpected plot:\n%s", art)
	}

	if _, err := Sweep(d, 3, 0, 1, 4, 0); err == nil {
		t.Error("expected error for bad parameter index")
	}
	if _, err := Sweep(d, 0, 0, 1, 4, 5); err == nil {
		t.Error("expected error for bad variable index")
	}
}
