package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/diag"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/log"
)

// editDoneMsg is sent when the edited transcript replayed without errors.
type editDoneMsg struct{ session *lang.Session }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a
// rejected statement.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  list     List global names with their types
  types    List type definitions
  scopes   Print the number of scopes allocated
  reset    Start over with a fresh session
  edit     Edit the accepted statements in $EDITOR and replay them
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type a statement to run it, e.g. inc 41 or twice = f\: Number f f
  #clear clears the screen and #exit leaves the REPL
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	typeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	caretStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)

	signatureStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	currentParamStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// formatCommand formats the echo line of a submitted input.
func formatCommand(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// savedInput is the text and cursor of a mode that is not active.
type savedInput struct {
	text   string
	cursor int
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *lang.Session
	factory      Factory
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []candidate   // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	saved        [2]savedInput // per-mode input, indexed by inputMode
}

// Config configures [Run].
type Config struct {
	// Session is the session statements run in. Required.
	Session *lang.Session
	// Factory creates the sessions used by the reset and edit commands.
	// Both are unavailable when nil.
	Factory Factory
	// HistoryPath is the file history persists to. History is kept in
	// memory when empty.
	HistoryPath string
	Logger      log.Logger
	// In and Out default to the standard streams. The terminal interface
	// is used only when both are terminals.
	In  io.Reader
	Out io.Writer
}

// Run starts the REPL and returns when the user quits or the input ends.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if cfg.Session == nil {
		return ErrNoSession
	}

	if cfg.In == nil {
		cfg.In = os.Stdin
	}

	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	interactive := isTerminal(cfg.In) && isTerminal(cfg.Out)

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("history", cfg.HistoryPath),
		slog.Bool("interactive", interactive),
	)

	if !interactive {
		return runLine(ctx, cfg.Session, cfg.In, cfg.Out)
	}

	history := NewHistory(cfg.HistoryPath)
	if err := history.Load(); err != nil {
		fmt.Fprintf(cfg.Out, "Warning: could not load history: %v\n", err)
	}

	cfg.Logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, cfg, history)

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(cfg.In),
		tea.WithOutput(cfg.Out),
	)
	_, err = p.Run()

	return err
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    cfg.Session,
		factory:    cfg.Factory,
		logger:     cfg.Logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		m.session = msg.session
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("statements", len(m.session.Transcript())),
		)

		return m, tea.Println(resultStyle.Render("✔ — session replayed"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit cancelled"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit discarded, session unchanged"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("🗴 — error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hintLine())
	b.WriteString("\n")

	return b.String()
}

// hintLine returns the line shown below the input.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len(),
		))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type a statement or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if m.mode == modeEval && !m.tabActive {
		app := detectApplication(input, m.cursor())
		if app.ok {
			if params, ret, ok := signature(m.session, app.name); ok {
				return renderSignatureHint(app.name, params, ret, app.argIndex)
			}
		}
	}

	return renderCandidateBar(m.matches, m.candidates, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(-1, false), nil

	case tea.KeyDown:
		return m.recall(1, false), nil

	case tea.KeyShiftUp:
		return m.recall(-1, true), nil

	case tea.KeyShiftDown:
		return m.recall(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.switchToMode(1 - m.mode), nil

	case tea.KeyRunes, tea.KeySpace:
		// Space breaks out of tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping around the matches.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	// Single candidate: complete and confirm immediately.
	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + n) % n
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.setCursor(cursor)

	m.wordEnd = cursor
}

// cursor returns the byte offset of the input cursor. The text input
// positions its cursor in runes.
func (m model) cursor() int {
	runes := []rune(m.input.Value())

	return len(string(runes[:min(m.input.Position(), len(runes))]))
}

// setCursor moves the input cursor to byte offset off.
func (m *model) setCursor(off int) {
	input := m.input.Value()

	m.input.SetCursor(utf8.RuneCountInString(input[:min(off, len(input))]))
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly
// one candidate remains and the typed word already equals it. Deletions
// and cursor movement pass false so that editing never completes
// unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	mode := m.mode

	m.saved = [2]savedInput{}
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Append(input, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "repl history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	m.logger.TraceContext(m.ctxFunc(), "repl submit",
		slog.String("input", input),
		slog.Int("mode", int(mode)),
	)

	if mode == modeCtrl {
		return m.executeCommand(input)
	}

	echo := tea.Println(formatCommand(modeEval, input))

	if word, ok := (lang.Statement{Text: input}).Directive(); ok {
		switch word {
		case lang.DirectiveExit:
			m.quitting = true

			return m, tea.Sequence(echo, tea.Quit)
		case lang.DirectiveClear:
			return m, tea.ClearScreen
		default:
			return m, echo
		}
	}

	return m, tea.Sequence(echo, tea.Println(m.run(input)))
}

// run runs one statement and renders its outcome.
func (m model) run(input string) string {
	res, err := m.session.Run(m.ctxFunc(), input)

	m.logger.TraceContext(m.ctxFunc(), "repl eval result",
		slog.Bool("accepted", res.Accepted()),
		slog.Int("diagnostics", len(res.Diagnostics)),
	)

	switch {
	case err != nil:
		return errorStyle.Render("Runtime Error: " + err.Error())

	case len(res.Diagnostics) > 0:
		lines := make([]string, 0, 2*len(res.Diagnostics))
		for _, d := range res.Diagnostics {
			lines = append(lines, renderDiagnostic(input, d)...)
		}

		return strings.Join(lines, "\n")

	default:
		return renderResult(res)
	}
}

// renderResult renders an accepted statement as "value : Type". Statements
// that produce None, such as assignments, render their type only.
func renderResult(res lang.Result) string {
	if _, none := res.Value.(value.None); none {
		return typeStyle.Render(": " + res.Type.String())
	}

	return resultStyle.Render(res.Value.String()) + typeStyle.Render(" : "+res.Type.String())
}

// renderDiagnostic renders d as its message followed by a caret line
// underlining its span in the echoed input.
func renderDiagnostic(src string, d diag.Diagnostic) []string {
	start := min(max(d.Span.Offset, 0), len(src))
	end := min(max(d.Span.End(), start), len(src))

	pad := lipgloss.Width(evalPrompt) + lipgloss.Width(src[:start])
	width := max(lipgloss.Width(src[start:end]), 1)

	return []string{
		strings.Repeat(" ", pad) + caretStyle.Render("^"+strings.Repeat("~", width-1)),
		errorStyle.Render(d.Category().String() + " Error: " + d.Message()),
	}
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(formatCommand(modeCtrl, input))

	m.logger.TraceContext(m.ctxFunc(), "repl exec command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(listNames(m.session)))

	case "t", "types":
		return m, tea.Sequence(echo, tea.Println(listTypes(m.session)))

	case "s", "scopes":
		return m, tea.Sequence(echo, tea.Println(
			hintStyle.Render(fmt.Sprintf("  %d scopes", m.session.Scopes())),
		))

	case "r", "reset":
		var out string

		m, out = m.reset()

		return m, tea.Sequence(echo, tea.Println(out))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + parts[0] + " (try 'help')"),
		)
	}
}

// reset replaces the session with a fresh one.
func (m model) reset() (model, string) {
	if m.factory == nil {
		return m, errorStyle.Render("🗴 — error: " + ErrNoSession.Error())
	}

	s, err := m.factory(m.ctxFunc())
	if err != nil {
		return m, errorStyle.Render("🗴 — error: " + err.Error())
	}

	m.session = s

	return m, resultStyle.Render("✔ — session reset")
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		session: m.session,
		factory: m.factory,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.replay == nil:
			return editCancelledMsg{}
		default:
			return editDoneMsg{session: cmd.replay}
		}
	})
}

// recall moves through history by step. With sameMode set only entries of
// the current mode are visited; otherwise the mode follows the entry.
// Moving past the newest entry clears the input.
func (m model) recall(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.setCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// switchToMode switches to the specified mode, preserving the input of
// the mode left behind.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode] = savedInput{text: m.input.Value(), cursor: m.input.Position()}
	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	refreshMatches(&m, false)

	return m
}

// listNames renders the global names of s with their types, and values
// where they are not closures.
func listNames(s *lang.Session) string {
	var b strings.Builder

	for _, n := range s.Names() {
		fmt.Fprintf(&b, "  %s %s", n.Name, typeStyle.Render(": "+n.Type.String()))

		if _, v, _ := s.Lookup(n.Name); v != nil && !value.Callable(v) {
			b.WriteString(hintStyle.Render(" = " + v.String()))
		}

		b.WriteByte('\n')
	}

	return b.String()
}

// listTypes renders the type definitions of s.
func listTypes(s *lang.Session) string {
	var b strings.Builder

	for _, d := range s.Definitions() {
		fmt.Fprintf(&b, "  %s %s\n", d.Name, typeStyle.Render("= "+d.Type.String()))
	}

	return b.String()
}
