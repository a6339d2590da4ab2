package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ember/internal/compiler"
	"ember/internal/interp"
	"ember/internal/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive ember session",
	RunE:  runREPL,
}

var (
	replPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	replErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	replPrompt      = "ember> "
)

// replModel is a small Bubble Tea program: a textinput line for source,
// a scrolling viewport for transcript history, feeding every submitted
// line straight into one persistent VM via Interpret. pending collects
// whatever the VM's WriteFn produced during the most recent Interpret
// call, since that callback runs synchronously inside submit.
type replModel struct {
	machine   *vm.VM
	pending   *strings.Builder
	input     textinput.Model
	history   viewport.Model
	lines     []string
	moduleNum int
}

func newREPLModel(machine *vm.VM, pending *strings.Builder) *replModel {
	ti := textinput.New()
	ti.Placeholder = replPrompt
	ti.Prompt = replPromptStyle.Render(replPrompt)
	ti.Focus()

	return &replModel{
		machine: machine,
		pending: pending,
		input:   ti,
		history: viewport.New(80, 20),
	}
}

func runREPL(cmd *cobra.Command, args []string) error {
	applyColorFlag(cmd)
	interp.Install()

	var pending strings.Builder
	machine := vm.NewVM(vm.Config{
		Compile: compiler.Compile,
		WriteFn: func(text string) { pending.WriteString(text) },
	})

	if !isTerminal(os.Stdin) {
		return runPipedREPL(machine, &pending, os.Stdin)
	}

	model := newREPLModel(machine, &pending)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.history.Width = msg.Width
		m.history.Height = msg.Height - 3
		m.input.Width = msg.Width - len(replPrompt)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// replGutterWidth is the display-column width of an index label like
// "[12]" — wide enough that a session running past 99 entries still
// lines up, since m.moduleNum only grows.
const replGutterWidth = 5

// padGutter right-pads label to replGutterWidth, measuring in display
// columns (String.displayWidth's Go counterpart) rather than byte or
// rune count, so a label is never miscounted if it ever carries a
// wide character.
func padGutter(label string) string {
	pad := replGutterWidth - vm.DisplayWidth(label)
	if pad <= 0 {
		return label
	}
	return label + strings.Repeat(" ", pad)
}

func (m *replModel) submit() {
	line := m.input.Value()
	m.input.Reset()
	if strings.TrimSpace(line) == "" {
		return
	}
	m.moduleNum++
	gutter := padGutter(fmt.Sprintf("[%d]", m.moduleNum))
	m.appendLine(replPromptStyle.Render(gutter+replPrompt) + line)

	moduleName := fmt.Sprintf("<repl %d>", m.moduleNum)
	result := m.machine.Interpret(moduleName, line)
	m.flushPending()
	if result != vm.ResultSuccess {
		m.appendLine(replErrorStyle.Render(padGutter("") + "(see diagnostic above)"))
	}
}

func (m *replModel) flushPending() {
	text := strings.TrimSuffix(m.pending.String(), "\n")
	m.pending.Reset()
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		m.appendLine(padGutter("") + line)
	}
}

func (m *replModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.history.SetContent(strings.Join(m.lines, "\n"))
	m.history.GotoBottom()
}

func (m *replModel) View() string {
	return m.history.View() + "\n" + m.input.View()
}

// runPipedREPL degrades to a plain line-by-line evaluator when stdin
// is not a terminal (scripted input, CI, `ember repl < file.wisp`),
// avoiding raw-mode input on a non-interactive descriptor.
func runPipedREPL(machine *vm.VM, pending *strings.Builder, in *os.File) error {
	scanner := bufio.NewScanner(in)
	lineNum := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNum++
		machine.Interpret(fmt.Sprintf("<repl %d>", lineNum), line)
		fmt.Fprint(os.Stdout, pending.String())
		pending.Reset()
	}
	return scanner.Err()
}
