package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
)

func decayModel(t *testing.T, method model.Method) *model.Descriptor {
	t.Helper()
	d, err := model.GetPreset("decay", "default").Build("decay")
	if err != nil {
		t.Fatal(err)
	}
	if method != "" {
		if d, err = d.WithMethod(method); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestSolve_Decay(t *testing.T) {
	for _, method := range []model.Method{model.MethodRK45, model.MethodRK4, model.MethodHeun, model.MethodMidpoint, model.MethodEuler} {
		t.Run(string(method), func(t *testing.T) {
			traj, err := Solve(decayModel(t, method))
			if err != nil {
				t.Fatalf("solve failed: %v", err)
			}

			if traj.Len() != 1000 {
				t.Fatalf("expected 1000 samples, got %d", traj.Len())
			}
			if traj.T[0] != 0 || traj.T[999] != 10 {
				t.Errorf("span = [%g, %g], want [0, 10]", traj.T[0], traj.T[999])
			}
			if traj.Dim() != 1 || len(traj.Y[0]) != 1000 {
				t.Fatalf("unexpected shape %dx%d", traj.Dim(), len(traj.Y[0]))
			}

			n := traj.Y[0]
			if n[0] != 100 {
				t.Errorf("N(0) = %g, want 100", n[0])
			}
			for k := 1; k < len(n); k++ {
				if traj.T[k] < traj.T[k-1] {
					t.Fatalf("time decreases at %d", k)
				}
				if n[k] > n[k-1] {
					t.Fatalf("N increases at t=%g: %g -> %g", traj.T[k], n[k-1], n[k])
				}
			}

			want := 100 * math.Exp(-5)
			if got := n[999]; math.Abs(got-want)/want > 0.01 {
				t.Errorf("N(10) = %g, want ~%g", got, want)
			}
		})
	}
}

func TestSolve_HarmonicAccuracy(t *testing.T) {
	d, err := model.BuildText("sho", "y[1], -y[0]", "0, 2*pi", "1, 0", "", model.Options{Resolution: 50})
	if err != nil {
		t.Fatal(err)
	}
	traj, err := Solve(d)
	if err != nil {
		t.Fatal(err)
	}
	for k, tk := range traj.T {
		if diff := math.Abs(traj.Y[0][k] - math.Cos(tk)); diff > 1e-2 {
			t.Fatalf("y0(%g) off by %g", tk, diff)
		}
	}
	if traj.Steps == 0 || traj.Evaluations < 7*traj.Steps {
		t.Errorf("steps=%d evaluations=%d", traj.Steps, traj.Evaluations)
	}
}

func TestSolve_TimeDependentWithParameters(t *testing.T) {
	// dy/dt = a*t with y(1) = 0, so y(3) = a*(9-1)/2.
	d, err := model.BuildText("ramp", "p[0]*t", "1, 3", "0", "0.5", model.Options{Resolution: 11})
	if err != nil {
		t.Fatal(err)
	}
	traj, err := Solve(d)
	if err != nil {
		t.Fatal(err)
	}
	if got := traj.Y[0][10]; math.Abs(got-2) > 1e-9 {
		t.Errorf("y(3) = %g, want 2", got)
	}
}

func TestSolve_Lorenz(t *testing.T) {
	d, err := model.GetPreset("lorenz", "classic").Build("lorenz")
	if err != nil {
		t.Fatal(err)
	}
	traj, err := Solve(d)
	if err != nil {
		t.Fatal(err)
	}
	if traj.Dim() != 3 || traj.Len() != 4000 {
		t.Errorf("shape = %dx%d", traj.Dim(), traj.Len())
	}
	for i, name := range []string{"U", "V", "W"} {
		if traj.Label(i) != name {
			t.Errorf("label %d = %q, want %q", i, traj.Label(i), name)
		}
	}
}

func TestSolve_BlowUpFails(t *testing.T) {
	for _, method := range []model.Method{model.MethodRK45, model.MethodEuler} {
		t.Run(string(method), func(t *testing.T) {
			d, err := model.BuildText("blowup", "y[0]^2", "0, 2", "1", "", model.Options{Method: method})
			if err != nil {
				t.Fatal(err)
			}
			_, err = Solve(d)
			if !errors.Is(err, dynamo.ErrIntegrationFailure) {
				t.Fatalf("err = %v, want ErrIntegrationFailure", err)
			}
			var ie *dynamo.IntegrationError
			if !errors.As(err, &ie) {
				t.Fatal("expected *IntegrationError")
			}
			if ie.Time <= 0 || ie.Time >= 2 {
				t.Errorf("failure time = %g, want inside (0, 2)", ie.Time)
			}
		})
	}
}

func TestSolve_MaxSteps(t *testing.T) {
	_, err := Solve(decayModel(t, ""), WithMaxSteps(10))
	if !errors.Is(err, dynamo.ErrIntegrationFailure) {
		t.Errorf("err = %v, want ErrIntegrationFailure", err)
	}
}

func TestSolve_SinglePoint(t *testing.T) {
	d, err := decayModel(t, "").WithResolution(1)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := Solve(d)
	if err != nil {
		t.Fatal(err)
	}
	if traj.Len() != 1 || traj.Y[0][0] != 100 {
		t.Errorf("got %v / %v", traj.T, traj.Y)
	}
}

func TestGrid(t *testing.T) {
	g := Grid(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(g[i]-want[i]) > 1e-15 {
			t.Errorf("grid[%d] = %g, want %g", i, g[i], want[i])
		}
	}
	if g[4] != 1 {
		t.Error("last grid point must equal t1 exactly")
	}
}

func TestSolveAll(t *testing.T) {
	base := decayModel(t, "")
	var ds []*model.Descriptor
	for _, m := range []model.Method{model.MethodRK45, model.MethodRK4, model.MethodEuler} {
		d, err := base.WithMethod(m)
		if err != nil {
			t.Fatal(err)
		}
		ds = append(ds, d)
	}
	bad, err := model.BuildText("blowup", "y[0]^2", "0, 2", "1", "", model.Options{})
	if err != nil {
		t.Fatal(err)
	}
	ds = append(ds, bad)

	results := SolveAll(ds)
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results[:3] {
		if r.Err != nil {
			t.Errorf("result %d: %v", i, r.Err)
		}
		if r.Descriptor != ds[i] {
			t.Errorf("result %d not aligned with its descriptor", i)
		}
	}
	if !errors.Is(results[3].Err, dynamo.ErrIntegrationFailure) {
		t.Errorf("blow-up result err = %v", results[3].Err)
	}
}
