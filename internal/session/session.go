// Package session runs the model-building conversation: variables, one
// equation per variable, the time span, one initial condition per variable
// and one value per discovered parameter. Once the model is ready it can be
// solved or edited until the user cancels.
package session

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/san-kum/odelab/internal/compiler"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/solver"
)

var ErrNotReady = errors.New("session: no model yet")

type Step int

const (
	StepVariables Step = iota
	StepEquation
	StepTimeSpan
	StepInitialCondition
	StepParameter
	StepReady
	StepEditField
	StepEditValue
)

var stepNames = map[Step]string{
	StepVariables:        "variables",
	StepEquation:         "equation",
	StepTimeSpan:         "time span",
	StepInitialCondition: "initial condition",
	StepParameter:        "parameter",
	StepReady:            "ready",
	StepEditField:        "edit field",
	StepEditValue:        "edit value",
}

func (s Step) String() string { return stepNames[s] }

// Action tells the front end what to do with a reply beyond showing it.
type Action int

const (
	ActionNone Action = iota
	ActionSolve
	ActionCancel
)

// Reply answers one line of input. Err is set when the input was rejected;
// Prompt then repeats the same question.
type Reply struct {
	Prompt  string
	Err     error
	Choices []string
	Action  Action
	Step    Step
}

const (
	cmdSolve  = "solve"
	cmdEdit   = "edit"
	cmdCancel = "cancel"
)

type Session struct {
	mu        sync.Mutex
	name      string
	step      Step
	draft     model.Draft
	editField string

	current atomic.Pointer[model.Descriptor]
}

// New starts a session whose model will be called name.
func New(name string) *Session {
	s := &Session{name: name}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.step = StepVariables
	s.draft = model.Draft{Name: s.name}
	s.editField = ""
	s.current.Store(nil)
}

// Load skips the conversation and makes d the current model.
func (s *Session) Load(d *model.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.current.Store(d)
	s.step = StepReady
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Descriptor returns the current model, nil until the conversation is done.
func (s *Session) Descriptor() *model.Descriptor { return s.current.Load() }

// Solve integrates the current model.
func (s *Session) Solve(opts ...solver.Option) (*dynamo.Trajectory, error) {
	d := s.current.Load()
	if d == nil {
		return nil, ErrNotReady
	}
	return solver.Solve(d, opts...)
}

// Prompt repeats the question for the current step.
func (s *Session) Prompt() Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt()
}

func (s *Session) prompt() Reply {
	r := Reply{Step: s.step}
	switch s.step {
	case StepVariables:
		r.Prompt = "Enter the variables separated by a comma, e.g. N or J, R.\nType cancel at any time to discard the model."
	case StepEquation:
		v := s.draft.Variables[len(s.draft.Equations)]
		r.Prompt = fmt.Sprintf("Enter the right hand side of d%s/dt = ...", v)
	case StepTimeSpan:
		r.Prompt = "Enter the time interval separated by a comma, e.g. 0, 10."
	case StepInitialCondition:
		v := s.draft.Variables[len(s.draft.InitialConditions)]
		r.Prompt = fmt.Sprintf("Enter the initial condition %s(t0) = ...", v)
	case StepParameter:
		name, _ := s.draft.NextParameter()
		r.Prompt = fmt.Sprintf("Enter the value of %s = ...", name)
	case StepReady:
		r.Prompt = "Model created. Solve and plot it, or edit it first?"
		r.Choices = []string{cmdSolve, cmdEdit, cmdCancel}
	case StepEditField:
		r.Prompt = "What do you want to edit?"
		r.Choices = model.EditableFields()
	case StepEditValue:
		r.Prompt = s.editPrompt()
	}
	return r
}

func (s *Session) editPrompt() string {
	switch s.editField {
	case model.EditResolution:
		return "Enter the number of points to plot."
	case model.EditParameters:
		d := s.current.Load()
		return "Enter the value of the parameters separated by a comma.\n" + strings.Join(d.ParameterNames(), ", ")
	}
	return fmt.Sprintf("Enter the new %s separated by a comma.", s.editField)
}

func (s *Session) reject(err error) Reply {
	r := s.prompt()
	r.Err = err
	return r
}

// Handle feeds one line of user input to the conversation.
func (s *Session) Handle(input string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	input = strings.TrimSpace(input)
	if cmd := strings.ToLower(strings.TrimPrefix(input, "/")); cmd == cmdCancel {
		s.reset()
		return Reply{Prompt: "Model discarded.", Action: ActionCancel, Step: s.step}
	}

	switch s.step {
	case StepVariables:
		return s.handleVariables(input)
	case StepEquation:
		return s.handleEquation(input)
	case StepTimeSpan:
		return s.handleTimeSpan(input)
	case StepInitialCondition:
		return s.handleInitialCondition(input)
	case StepParameter:
		return s.handleParameter(input)
	case StepReady:
		return s.handleReady(input)
	case StepEditField:
		return s.handleEditField(input)
	case StepEditValue:
		return s.handleEditValue(input)
	}
	return s.reject(fmt.Errorf("session: unknown step %d", s.step))
}

func (s *Session) handleVariables(input string) Reply {
	vars, err := compiler.ParseVariables(input)
	if err != nil {
		return s.reject(err)
	}
	s.draft.Variables = vars
	s.step = StepEquation
	return s.prompt()
}

func (s *Session) handleEquation(input string) Reply {
	eqs := append(append([]string(nil), s.draft.Equations...), input)
	// Later equations are not known yet; compile with placeholders so the
	// new one is checked against the full variable list.
	trial := append([]string(nil), eqs...)
	for len(trial) < len(s.draft.Variables) {
		trial = append(trial, "0")
	}
	if _, err := compiler.CompileEquations(s.draft.Variables, trial); err != nil {
		return s.reject(err)
	}
	s.draft.Equations = eqs
	if len(eqs) == len(s.draft.Variables) {
		s.step = StepTimeSpan
	}
	return s.prompt()
}

func (s *Session) handleTimeSpan(input string) Reply {
	if _, err := model.ParseTimeSpan(input); err != nil {
		return s.reject(err)
	}
	s.draft.TimeSpan = input
	s.step = StepInitialCondition
	return s.prompt()
}

func (s *Session) handleInitialCondition(input string) Reply {
	v, err := model.ParseNumber(input)
	if err != nil {
		return s.reject(err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s.reject(&dynamo.ExpressionError{Text: input, Pos: -1, Reason: "initial condition must be finite"})
	}
	s.draft.InitialConditions = append(s.draft.InitialConditions, input)
	if len(s.draft.InitialConditions) < len(s.draft.Variables) {
		return s.prompt()
	}

	if _, err := s.draft.Compile(); err != nil {
		return s.reject(err)
	}
	if _, ok := s.draft.NextParameter(); ok {
		s.step = StepParameter
		return s.prompt()
	}
	return s.finish()
}

func (s *Session) handleParameter(input string) Reply {
	if _, err := model.ParseNumber(input); err != nil {
		return s.reject(err)
	}
	s.draft.Parameters = append(s.draft.Parameters, input)
	if _, ok := s.draft.NextParameter(); ok {
		return s.prompt()
	}
	return s.finish()
}

func (s *Session) finish() Reply {
	d, err := s.draft.Build()
	if err != nil {
		// Drop the last answer and ask for it again.
		if s.step == StepParameter {
			s.draft.Parameters = s.draft.Parameters[:len(s.draft.Parameters)-1]
		} else {
			s.draft.InitialConditions = s.draft.InitialConditions[:len(s.draft.InitialConditions)-1]
		}
		return s.reject(err)
	}
	s.current.Store(d)
	s.step = StepReady
	return s.prompt()
}

func (s *Session) handleReady(input string) Reply {
	cmd, rest, _ := strings.Cut(input, " ")
	switch strings.ToLower(cmd) {
	case cmdSolve:
		r := s.prompt()
		r.Action = ActionSolve
		return r
	case cmdEdit:
		s.step = StepEditField
		if rest = strings.TrimSpace(rest); rest != "" {
			return s.handleEditField(rest)
		}
		return s.prompt()
	}
	return s.reject(fmt.Errorf("expected one of %s", strings.Join([]string{cmdSolve, cmdEdit, cmdCancel}, ", ")))
}

func (s *Session) handleEditField(input string) Reply {
	field := strings.ToLower(input)
	for _, f := range model.EditableFields() {
		if f != field {
			continue
		}
		if f == model.EditParameters && len(s.current.Load().Parameters()) == 0 {
			s.step = StepReady
			r := s.prompt()
			r.Prompt = "There are no parameters to edit.\n" + r.Prompt
			return r
		}
		s.editField = f
		s.step = StepEditValue
		return s.prompt()
	}
	return s.reject(fmt.Errorf("cannot edit %q", input))
}

func (s *Session) handleEditValue(input string) Reply {
	d, err := s.current.Load().Edit(s.editField, input)
	if err != nil {
		return s.reject(err)
	}
	s.current.Store(d)
	s.editField = ""
	s.step = StepReady
	return s.prompt()
}
