package session

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
)

func feed(t *testing.T, s *Session, inputs ...string) Reply {
	t.Helper()
	var r Reply
	for _, in := range inputs {
		r = s.Handle(in)
		if r.Err != nil {
			t.Fatalf("input %q rejected: %v", in, r.Err)
		}
	}
	return r
}

func TestSession_DecayConversation(t *testing.T) {
	s := New("decay")
	if s.Step() != StepVariables {
		t.Fatalf("step = %s", s.Step())
	}

	r := feed(t, s, "N", "-k*N", "0, 10", "100")
	if r.Step != StepParameter {
		t.Fatalf("step = %s, want parameter", r.Step)
	}
	if r.Prompt != "Enter the value of k = ..." {
		t.Errorf("prompt = %q", r.Prompt)
	}

	r = feed(t, s, "0.5")
	if r.Step != StepReady {
		t.Fatalf("step = %s, want ready", r.Step)
	}
	d := s.Descriptor()
	if d == nil {
		t.Fatal("no descriptor")
	}
	if d.Field().Source() != "-p[0]*y[0]" {
		t.Errorf("source = %q", d.Field().Source())
	}

	r = s.Handle("solve")
	if r.Action != ActionSolve {
		t.Fatalf("action = %v", r.Action)
	}
	traj, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if traj.Len() != model.DefaultResolution {
		t.Errorf("len = %d", traj.Len())
	}
	end := traj.Y[0][traj.Len()-1]
	if want := 100 * math.Exp(-5); math.Abs(end-want)/want > 0.01 {
		t.Errorf("N(10) = %g, want %g", end, want)
	}
}

func TestSession_NoParametersGoesStraightToReady(t *testing.T) {
	s := New("osc")
	r := feed(t, s, "X, V", "V", "-X", "0, 1", "1", "0")
	if r.Step != StepReady {
		t.Errorf("step = %s, want ready", r.Step)
	}
}

func TestSession_RejectsAndRepeats(t *testing.T) {
	tests := []struct {
		name   string
		before []string
		input  string
		want   error
		step   Step
	}{
		{"reserved variable", nil, "Y", dynamo.ErrMalformedExpression, StepVariables},
		{"bad equation", []string{"N"}, "-k*(N", dynamo.ErrMalformedExpression, StepEquation},
		{"reversed span", []string{"N", "-N"}, "10, 0", dynamo.ErrInvalidTimeSpan, StepTimeSpan},
		{"three span values", []string{"N", "-N"}, "0, 5, 10", dynamo.ErrInvalidTimeSpan, StepTimeSpan},
		{"bad initial condition", []string{"N", "-k*N", "0, 1"}, "lots", dynamo.ErrMalformedExpression, StepInitialCondition},
		{"infinite initial condition", []string{"N", "-k*N", "0, 1"}, "inf", dynamo.ErrMalformedExpression, StepInitialCondition},
		{"bad parameter", []string{"N", "-k*N", "0, 1", "1"}, "k", dynamo.ErrMalformedExpression, StepParameter},
		{"nan parameter", []string{"N", "-k*N", "0, 1", "1"}, "nan", dynamo.ErrMalformedExpression, StepParameter},
		{"infinite second parameter", []string{"N", "-k*N + c", "0, 1", "1", "2"}, "inf", dynamo.ErrMalformedExpression, StepParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("m")
			feed(t, s, tt.before...)
			want := s.Prompt().Prompt
			r := s.Handle(tt.input)
			if !errors.Is(r.Err, tt.want) {
				t.Fatalf("err = %v, want %v", r.Err, tt.want)
			}
			if r.Step != tt.step || s.Step() != tt.step {
				t.Errorf("step = %s, want %s", r.Step, tt.step)
			}
			if r.Prompt != want {
				t.Errorf("prompt = %q, want %q", r.Prompt, want)
			}
		})
	}
}

func TestSession_CancelDiscards(t *testing.T) {
	s := New("m")
	feed(t, s, "N", "-N", "0, 1", "1")
	if s.Descriptor() == nil {
		t.Fatal("expected a model")
	}
	r := s.Handle("/cancel")
	if r.Action != ActionCancel {
		t.Errorf("action = %v", r.Action)
	}
	if s.Descriptor() != nil || s.Step() != StepVariables {
		t.Error("cancel kept the model")
	}
}

func TestSession_SolveBeforeReady(t *testing.T) {
	if _, err := New("m").Solve(); !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}
