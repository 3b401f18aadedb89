package render

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/solver"
)

func synthetic(dim, n int) *dynamo.Trajectory {
	tr := &dynamo.Trajectory{T: make([]float64, n), Y: make([][]float64, dim)}
	for i := range tr.Y {
		tr.Y[i] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		tr.T[k] = float64(k) / 10
		for i := range tr.Y {
			tr.Y[i][k] = math.Sin(tr.T[k] + float64(i))
		}
	}
	return tr
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func TestRender_ThreeDimensionalOnlyForThreeVariables(t *testing.T) {
	tests := []struct {
		dim   int
		want3 bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{4, false},
	}
	for _, tt := range tests {
		dir := t.TempDir()
		art, err := Render("model", synthetic(tt.dim, 100), dir, PNG, DefaultOptions())
		if err != nil {
			t.Fatalf("dim %d: %v", tt.dim, err)
		}
		if !exists(filepath.Join(dir, "model.png")) {
			t.Errorf("dim %d: model.png missing", tt.dim)
		}
		got3 := exists(filepath.Join(dir, "model3d.png"))
		if got3 != tt.want3 {
			t.Errorf("dim %d: 3d artifact present = %v, want %v", tt.dim, got3, tt.want3)
		}
		if (art.Phase3D != "") != tt.want3 {
			t.Errorf("dim %d: artifacts = %+v", tt.dim, art)
		}
		if len(art.Paths()) != map[bool]int{false: 1, true: 2}[tt.want3] {
			t.Errorf("dim %d: paths = %v", tt.dim, art.Paths())
		}
	}
}

func TestRender_SVG(t *testing.T) {
	dir := t.TempDir()
	art, err := Render("lorenz", synthetic(3, 50), dir, SVG, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range art.Paths() {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "<svg") {
			t.Errorf("%s is not svg", p)
		}
	}
	if filepath.Base(art.Phase3D) != "lorenz3d.svg" {
		t.Errorf("3d artifact = %s", art.Phase3D)
	}
}

func TestRender_NameWithSeparators(t *testing.T) {
	dir := t.TempDir()
	art, err := Render("lorenz/classic", synthetic(3, 50), dir, PNG, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range art.Paths() {
		if filepath.Dir(p) != dir {
			t.Errorf("%s written outside %s", p, dir)
		}
	}
	if !exists(filepath.Join(dir, "lorenz_classic.png")) || !exists(filepath.Join(dir, "lorenz_classic3d.png")) {
		t.Error("expected lorenz_classic.png and lorenz_classic3d.png")
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"decay":       "decay",
		"love/spiral": "love_spiral",
		`..\..\etc`:   ".._.._etc",
		"  ":          "model",
		"..":          "model",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRender_Rejects(t *testing.T) {
	if _, err := Render("x", synthetic(1, 10), t.TempDir(), "gif", DefaultOptions()); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
	if _, err := Render("x", &dynamo.Trajectory{}, t.TempDir(), PNG, DefaultOptions()); err == nil {
		t.Error("expected error for empty trajectory")
	}
	if _, err := ParseFormat("jpeg"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
	if f, err := ParseFormat(""); err != nil || f != PNG {
		t.Errorf("ParseFormat(\"\") = %q, %v", f, err)
	}
}

func TestRender_SolvedDecay(t *testing.T) {
	d, err := model.GetPreset("decay", "default").Build("decay")
	if err != nil {
		t.Fatal(err)
	}
	traj, err := solver.Solve(d)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if _, err := Render(d.Name(), traj, dir, PNG, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if !exists(filepath.Join(dir, "decay.png")) {
		t.Error("decay.png missing")
	}
}

func TestTerminal(t *testing.T) {
	tr := synthetic(2, 500)
	tr.Names = []string{"J", "R"}
	out := Terminal(tr, 60, 10)
	if !strings.Contains(out, "J, R vs t") {
		t.Errorf("caption missing from:\n%s", out)
	}
	if Terminal(nil, 60, 10) != "" {
		t.Error("nil trajectory should render nothing")
	}
}

func TestTerminalPhase(t *testing.T) {
	if TerminalPhase(synthetic(1, 10), 20, 10) != "" {
		t.Error("1 variable should not draw a phase portrait")
	}
	if TerminalPhase(synthetic(2, 10), 20, 10) == "" {
		t.Error("2 variables should draw a phase plane")
	}
	if TerminalPhase(synthetic(3, 100), 20, 10) == "" {
		t.Error("3 variables should draw a phase portrait")
	}
}

func TestDownsample(t *testing.T) {
	ys := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	got := Downsample(ys, 4)
	if len(got) != 4 || got[0] != 0 || got[3] != 9 {
		t.Errorf("Downsample = %v", got)
	}
	if len(Downsample(ys, 20)) != 10 {
		t.Error("short input should be copied unchanged")
	}
}
