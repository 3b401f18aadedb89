package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/render"
	"github.com/san-kum/odelab/internal/session"
	"github.com/san-kum/odelab/internal/storage"
	"github.com/san-kum/odelab/internal/viz"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

const maxTranscript = 14

type state int

const (
	stateMenu state = iota
	stateChat
)

// Options controls where a solved model ends up.
type Options struct {
	// OutDir receives the rendered plots. Empty skips rendering.
	OutDir string
	Format render.Format
	// Store, when set, saves every solved run.
	Store *storage.Store
}

type line struct {
	text  string
	style lipgloss.Style
}

type App struct {
	state  state
	cursor int
	items  []string

	session    *session.Session
	reply      session.Reply
	input      string
	transcript []line
	solving    bool
	result     *solvedMsg

	opts   Options
	width  int
	height int
}

type solvedMsg struct {
	name      string
	traj      *dynamo.Trajectory
	artifacts render.Artifacts
	runID     string
	err       error
}

const newModelItem = "new model"

func NewApp(opts Options) *App {
	if opts.Format == "" {
		opts.Format = render.PNG
	}
	return &App{
		state:  stateMenu,
		items:  append([]string{newModelItem}, model.ListModels()...),
		opts:   opts,
		width:  80,
		height: 24,
	}
}

func (m App) Init() tea.Cmd { return nil }

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case solvedMsg:
		m.solving = false
		if msg.err != nil {
			m.say(msg.err.Error(), viz.ErrorText)
		} else {
			m.result = &msg
			m.say(fmt.Sprintf("solved %s: %d points", msg.name, msg.traj.Len()), viz.Success)
			for _, p := range msg.artifacts.Paths() {
				m.say("wrote "+p, dim)
			}
			if msg.runID != "" {
				m.say("saved run "+msg.runID[:8], dim)
			}
		}
		m.ask(m.session.Prompt())
		return m, nil
	}
	return m, nil
}

func (m App) handleKey(msg tea.KeyMsg) (App, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateChat:
		return m.chatKey(msg)
	}
	return m, nil
}

func (m App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.open(m.items[m.cursor])
	}
	return m, nil
}

func (m *App) open(item string) {
	m.state = stateChat
	m.transcript = nil
	m.result = nil
	m.input = ""

	if item == newModelItem {
		m.session = session.New("model")
		m.ask(m.session.Prompt())
		return
	}
	p, name := model.LookupPreset(item)
	d, err := p.Build(name)
	if err != nil {
		m.session = session.New(name)
		m.say(err.Error(), viz.ErrorText)
		m.ask(m.session.Prompt())
		return
	}
	m.session = session.New(name)
	m.session.Load(d)
	m.say(p.Description, viz.Title)
	for i, eq := range d.Field().Equations() {
		m.say(fmt.Sprintf("d%s/dt = %s", d.Variables()[i], eq), viz.Equation)
	}
	m.ask(m.session.Prompt())
}

func (m App) chatKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = stateMenu
		return m, tea.ClearScreen
	case tea.KeyEnter:
		if m.solving {
			return m, nil
		}
		return m.submit()
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m App) submit() (App, tea.Cmd) {
	text := m.input
	m.input = ""
	m.say("> "+text, white)

	r := m.session.Handle(text)
	if r.Err != nil {
		m.say(r.Err.Error(), viz.ErrorText)
	}
	switch r.Action {
	case session.ActionSolve:
		m.solving = true
		m.say("solving...", dim)
		m.reply = r
		return m, m.solveCmd()
	case session.ActionCancel:
		m.result = nil
		m.say(r.Prompt, viz.Subtle)
		m.ask(m.session.Prompt())
		return m, nil
	}
	m.ask(r)
	return m, nil
}

func (m App) solveCmd() tea.Cmd {
	sess, opts := m.session, m.opts
	return func() tea.Msg {
		d := sess.Descriptor()
		traj, err := sess.Solve()
		if err != nil {
			return solvedMsg{err: err}
		}
		res := solvedMsg{name: d.Name(), traj: traj}
		if opts.OutDir != "" {
			res.artifacts, err = render.Render(d.Name(), traj, opts.OutDir, opts.Format, render.DefaultOptions())
			if err != nil {
				return solvedMsg{err: err}
			}
		}
		if opts.Store != nil {
			meta, err := opts.Store.Save(d, traj)
			if err != nil {
				return solvedMsg{err: err}
			}
			res.runID = meta.ID
		}
		return res
	}
}

func (m *App) ask(r session.Reply) {
	m.reply = r
}

func (m *App) say(text string, style lipgloss.Style) {
	for _, l := range strings.Split(text, "\n") {
		m.transcript = append(m.transcript, line{l, style})
	}
	if n := len(m.transcript); n > maxTranscript {
		m.transcript = m.transcript[n-maxTranscript:]
	}
}

func (m App) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateChat:
		return m.viewChat()
	}
	return ""
}

func (m App) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("o d e l a b") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, item := range m.items {
		desc := "type your own equations"
		if p, _ := model.LookupPreset(item); p != nil {
			desc = p.Description
		}
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-24s", item)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-24s", item)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter open   q quit") + "\n")

	return b.String()
}

func (m App) viewChat() string {
	var b strings.Builder

	b.WriteString("\n")
	for _, l := range m.transcript {
		b.WriteString("   " + l.style.Render(l.text) + "\n")
	}
	b.WriteString("\n")

	if m.result != nil {
		b.WriteString(m.viewResult())
		b.WriteString("\n")
	}

	for _, l := range strings.Split(m.reply.Prompt, "\n") {
		b.WriteString("   " + viz.Prompt.Render(l) + "\n")
	}
	if len(m.reply.Choices) > 0 {
		b.WriteString("   " + viz.KeyHint.Render(strings.Join(m.reply.Choices, " · ")) + "\n")
	}
	cursor := "▋"
	if m.solving {
		cursor = ""
	}
	b.WriteString("   " + cyan.Render("› ") + white.Render(m.input+cursor) + "\n\n")
	b.WriteString(dim.Render("   enter send   esc menu   ctrl+c quit") + "\n")
	return b.String()
}

func (m App) viewResult() string {
	traj := m.result.traj
	w := m.width - 16
	if w < 40 {
		w = 40
	}

	var b strings.Builder
	b.WriteString(render.Terminal(traj, w, 12) + "\n")
	if phase := render.TerminalPhase(traj, w/2, 10); phase != "" {
		b.WriteString("\n" + phase + "\n")
	}

	b.WriteString("\n")
	for i, s := range analysis.Summarize(traj) {
		b.WriteString("   " + viz.Metric(s.Name, fmt.Sprintf("%.4g → %.4g", s.Initial, s.Final)))
		b.WriteString("  " + viz.Sparkline(render.Downsample(traj.Y[i], 24), 24) + "\n")
	}
	b.WriteString("   " + viz.Metric("steps", fmt.Sprint(traj.Steps)) + "  " +
		viz.Metric("rejected", fmt.Sprint(traj.Rejected)) + "  " +
		viz.Metric("evaluations", fmt.Sprint(traj.Evaluations)) + "\n")
	return b.String()
}
