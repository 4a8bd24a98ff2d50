package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/pycall/frame"
	"github.com/wippyai/pycall/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	convStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	rt       *runtime.Local
	funcs    []demoFunc
	err      error
	result   string
	argsIn   textinput.Model
	kwIn     textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(rt *runtime.Local, funcs []demoFunc) *interactiveModel {
	argsIn := textinput.New()
	argsIn.Placeholder = "1,2,3"
	argsIn.Prompt = "args: "

	kwIn := textinput.New()
	kwIn.Placeholder = "sep=-,bias=10"
	kwIn.Prompt = "kwargs: "

	return &interactiveModel{
		rt:     rt,
		funcs:  funcs,
		argsIn: argsIn,
		kwIn:   kwIn,
		state:  stateSelectFunc,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) callSelected() tea.Msg {
	target := m.funcs[m.selected]
	args := parseArgs(m.argsIn.Value())
	kw := parseKwargs(m.kwIn.Value())

	res, err := frame.Call(m.rt, target.handle, args, kw)
	if err != nil {
		return callResultMsg{err: err}
	}
	defer m.rt.DecRef(res)

	out, err := formatResult(m.rt, res)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: out}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callResultMsg:
		m.err = msg.err
		m.result = msg.result
		m.state = stateShowResult
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateSelectFunc:
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "up", "k":
				if m.selected > 0 {
					m.selected--
				}
			case "down", "j":
				if m.selected < len(m.funcs)-1 {
					m.selected++
				}
			case "enter":
				m.state = stateInputArgs
				m.focusIdx = 0
				m.argsIn.Focus()
				m.kwIn.Blur()
				return m, textinput.Blink
			}

		case stateInputArgs:
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc":
				m.state = stateSelectFunc
				return m, nil
			case "tab":
				m.focusIdx = (m.focusIdx + 1) % 2
				if m.focusIdx == 0 {
					m.argsIn.Focus()
					m.kwIn.Blur()
				} else {
					m.argsIn.Blur()
					m.kwIn.Focus()
				}
				return m, textinput.Blink
			case "enter":
				return m, m.callSelected
			}
			var cmd tea.Cmd
			if m.focusIdx == 0 {
				m.argsIn, cmd = m.argsIn.Update(msg)
			} else {
				m.kwIn, cmd = m.kwIn.Update(msg)
			}
			return m, cmd

		case stateShowResult:
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "enter":
				m.state = stateSelectFunc
				m.err = nil
				m.result = ""
				return m, nil
			}
		}
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	s := titleStyle.Render("pycall demo runtime") + "\n\n"

	switch m.state {
	case stateSelectFunc:
		for i, f := range m.funcs {
			conv := "generic "
			if f.fastcall {
				conv = "fastcall"
			}
			line := fmt.Sprintf("%s %s  %s", funcStyle.Render(f.name), convStyle.Render(conv), f.desc)
			if i == m.selected {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			s += line + "\n"
		}
		s += "\n" + helpStyle.Render("up/down select · enter choose · q quit")

	case stateInputArgs:
		s += funcStyle.Render(m.funcs[m.selected].name) + "\n\n"
		s += m.argsIn.View() + "\n"
		s += m.kwIn.View() + "\n\n"
		s += helpStyle.Render("tab switch field · enter call · esc back")

	case stateShowResult:
		s += funcStyle.Render(m.funcs[m.selected].name) + "\n\n"
		if m.err != nil {
			s += errorStyle.Render("error: "+m.err.Error()) + "\n"
		} else {
			s += resultStyle.Render("= "+m.result) + "\n"
		}
		s += "\n" + helpStyle.Render("enter/esc back · q quit")
	}
	return s + "\n"
}

func runInteractive() error {
	rt, funcs, err := setupRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	p := tea.NewProgram(newInteractiveModel(rt, funcs))
	_, err = p.Run()
	return err
}
