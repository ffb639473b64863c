package cli

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/blurtapp/blurt/pkg/board"
	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/motion"
	"github.com/blurtapp/blurt/pkg/session"
)

// =============================================================================
// Terminal Geometry
// =============================================================================

// A note is drawn 26 cells wide and 6 rows per layout unit, so 24 characters
// of text fit per line and every unit holds its 4 lines.
const (
	noteCols = 26
	noteRows = 6

	cellWidth  = layout.NoteWidth / noteCols
	cellHeight = layout.NoteBaseHeight / noteRows

	headerRows = 2
	footerRows = 3

	frameInterval = time.Second / 30
)

// toCanvas converts a terminal cell to canvas pixels.
func toCanvas(col, row int) layout.Point {
	return layout.Point{
		X: (float64(col) + 0.5) * cellWidth,
		Y: (float64(row-headerRows) + 0.5) * cellHeight,
	}
}

// toCell converts canvas pixels to the nearest canvas cell.
func toCell(p layout.Point) (col, row int) {
	return int(math.Round(p.X / cellWidth)), int(math.Round(p.Y / cellHeight))
}

// =============================================================================
// Board Model
// =============================================================================

type frameMsg time.Time

type boardModelOptions struct {
	Title         string
	Prompt        string
	ReducedMotion bool
	Save          func(session.Session)
	Now           func() time.Time
	Rand          *rand.Rand
	Logger        *log.Logger
}

// boardModel hosts a [board.Board] in the terminal. Every frame tick
// advances the motion loop by the wall time since the model started.
type boardModel struct {
	board   *board.Board
	loop    *motion.Loop
	now     func() time.Time
	started time.Time
	title   string
	prompt  string

	input      []rune
	width      int
	height     int
	lastLanded string
	summary    *session.Summary
	finished   bool
	status     string
}

func newBoardModel(ctx context.Context, sess session.Session, opts boardModelOptions) (*boardModel, error) {
	m := &boardModel{
		loop:   motion.NewLoop(),
		now:    opts.Now,
		title:  opts.Title,
		prompt: opts.Prompt,
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.started = m.now()
	if m.title == "" {
		m.title = sess.Title
	}
	if m.prompt == "" {
		m.prompt = sess.Prompt
	}

	b, err := board.New(sess, board.Options{
		Scheduler:     m.loop,
		ReducedMotion: opts.ReducedMotion,
		Now:           m.now,
		PointerClock:  func() time.Duration { return m.now().Sub(m.started) },
		Rand:          opts.Rand,
		OnChange:      opts.Save,
		OnFinish: func(s session.Summary) {
			m.summary = &s
			m.finished = true
		},
		OnLanded: func(id string) { m.lastLanded = id },
		Context:  ctx,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	m.board = b
	if sess.IsFinished() {
		s := sess.Summary()
		m.summary = &s
	}
	return m, nil
}

func (m *boardModel) tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *boardModel) Init() tea.Cmd {
	return m.tick()
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.advance(time.Time(msg))
		return m, m.tick()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		return m, m.key(msg)
	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, nil
}

// advance runs the motion loop up to t. A session that finished during the
// frame is reopened in review mode so its notes can still be rearranged.
func (m *boardModel) advance(t time.Time) {
	m.loop.Advance(t.Sub(m.started))
	if m.finished && !m.board.Review() {
		if err := m.board.SwitchSession(m.board.Session()); err != nil {
			m.status = err.Error()
		}
	}
}

func (m *boardModel) resize(width, height int) {
	m.width, m.height = width, height
	rows := max(1, height-headerRows-footerRows)
	m.board.SetCanvasSize(layout.Size{
		Width:  float64(width) * cellWidth,
		Height: float64(rows) * cellHeight,
	})
}

func (m *boardModel) key(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.board.Flush()
		m.board.Close()
		return tea.Quit
	case tea.KeyEnter:
		if _, ok := m.board.AddNote(string(m.input)); ok {
			m.input = m.input[:0]
			m.status = ""
		}
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyCtrlZ:
		if !m.board.Undo() {
			m.status = "nothing to undo"
		}
	case tea.KeyCtrlP:
		if cd := m.board.Countdown(); cd != nil {
			cd.TogglePause()
		}
	case tea.KeyCtrlF:
		if !m.board.Review() {
			m.board.Finalize()
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return nil
}

func (m *boardModel) mouse(msg tea.MouseMsg) {
	p := toCanvas(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if id, ok := m.hit(p); ok {
			m.board.PointerDown(id, p)
		}
	case tea.MouseActionMotion:
		m.board.PointerMove(p)
	case tea.MouseActionRelease:
		m.board.PointerUp()
	}
}

// hit returns the topmost visible note under p.
func (m *boardModel) hit(p layout.Point) (string, bool) {
	notes := m.board.Notes()
	for i := len(notes) - 1; i >= 0; i-- {
		n := notes[i]
		if m.board.Hidden(n.ID) {
			continue
		}
		r := layout.NoteRect(n.X, n.Y, n.Text)
		if p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom {
			return n.ID, true
		}
	}
	return "", false
}

// =============================================================================
// View
// =============================================================================

var (
	styleHeaderTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeaderPrompt = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	styleClock        = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleClockPaused  = lipgloss.NewStyle().Foreground(colorDim)
	styleInput        = lipgloss.NewStyle().Foreground(colorWhite)
	styleHelp         = lipgloss.NewStyle().Foreground(colorDim)
)

// cellStyle indexes cellStyles.
type cellStyle uint8

const (
	cellBlank cellStyle = iota
	cellPaper
	cellBorder
	cellDragging
	cellGliding
	cellSettling
	cellLanded
	cellGhost
)

var cellStyles = [...]lipgloss.Style{
	cellBlank:    lipgloss.NewStyle(),
	cellPaper:    lipgloss.NewStyle().Foreground(colorInk).Background(colorPaper),
	cellBorder:   lipgloss.NewStyle().Foreground(colorGray).Background(colorPaper),
	cellDragging: lipgloss.NewStyle().Foreground(colorCyan).Background(colorPaper).Bold(true),
	cellGliding:  lipgloss.NewStyle().Foreground(colorBlue).Background(colorPaper),
	cellSettling: lipgloss.NewStyle().Foreground(colorGreen).Background(colorPaper),
	cellLanded:   lipgloss.NewStyle().Foreground(colorYellow).Background(colorPaper),
	cellGhost:    lipgloss.NewStyle().Foreground(colorDim),
}

type cell struct {
	r     rune
	style cellStyle
}

// canvasGrid is a rune raster of the board.
type canvasGrid struct {
	cols, rows int
	cells      []cell
}

func newCanvasGrid(cols, rows int) *canvasGrid {
	g := &canvasGrid{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range g.cells {
		g.cells[i] = cell{r: ' '}
	}
	return g
}

func (g *canvasGrid) set(col, row int, r rune, s cellStyle) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row*g.cols+col] = cell{r: r, style: s}
}

// box draws a bordered note with its wrapped text.
func (g *canvasGrid) box(col, row, rows int, lines []string, border, fill cellStyle) {
	for y := 0; y < rows; y++ {
		for x := 0; x < noteCols; x++ {
			r, s := ' ', fill
			switch {
			case y == 0 && x == 0:
				r, s = '╭', border
			case y == 0 && x == noteCols-1:
				r, s = '╮', border
			case y == rows-1 && x == 0:
				r, s = '╰', border
			case y == rows-1 && x == noteCols-1:
				r, s = '╯', border
			case y == 0 || y == rows-1:
				r, s = '─', border
			case x == 0 || x == noteCols-1:
				r, s = '│', border
			}
			g.set(col+x, row+y, r, s)
		}
	}
	for i, line := range lines {
		if i >= rows-2 {
			break
		}
		for j, r := range []rune(line) {
			if j >= noteCols-2 {
				break
			}
			g.set(col+1+j, row+1+i, r, fill)
		}
	}
}

func (g *canvasGrid) String() string {
	var b strings.Builder
	for row := 0; row < g.rows; row++ {
		run := []rune{}
		style := cellBlank
		flush := func() {
			if len(run) > 0 {
				b.WriteString(cellStyles[style].Render(string(run)))
				run = run[:0]
			}
		}
		for col := 0; col < g.cols; col++ {
			c := g.cells[row*g.cols+col]
			if c.style != style {
				flush()
				style = c.style
			}
			run = append(run, c.r)
		}
		flush()
		if row < g.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m *boardModel) noteBorder(id string) cellStyle {
	fx := m.board.Effects(id)
	switch {
	case fx.Dragging:
		return cellDragging
	case fx.Inertia:
		return cellGliding
	case fx.Settling:
		return cellSettling
	case id == m.lastLanded:
		return cellLanded
	}
	return cellBorder
}

func (m *boardModel) renderCanvas(cols, rows int) string {
	g := newCanvasGrid(cols, rows)
	for _, n := range m.board.Notes() {
		if m.board.Hidden(n.ID) {
			continue
		}
		col, row := toCell(layout.Point{X: n.X, Y: n.Y})
		g.box(col, row, layout.Span(n.Text)*noteRows, layout.Wrap(n.Text), m.noteBorder(n.ID), cellPaper)
	}
	for _, gh := range m.board.Ghosts() {
		if gh.Opacity < 0.5 {
			continue
		}
		col, row := toCell(gh.Pos)
		g.box(col, row, noteRows, layout.Wrap(gh.Text), cellGhost, cellGhost)
	}
	return g.String()
}

func (m *boardModel) clock() string {
	cd := m.board.Countdown()
	switch {
	case m.board.Review() || cd == nil:
		return styleClock.Render("Finished")
	case m.board.Finishing():
		return styleClock.Render("Packing…")
	case cd.Paused():
		return styleClockPaused.Render(formatClock(cd.Remaining()) + " paused")
	}
	return styleClock.Render(formatClock(cd.Remaining()))
}

// formatClock renders seconds as "MM:SS left".
func formatClock(seconds int) string {
	seconds = max(0, seconds)
	return fmt.Sprintf("%02d:%02d left", seconds/60, seconds%60)
}

func (m *boardModel) View() string {
	if m.width == 0 {
		return "starting…"
	}

	var b strings.Builder
	left := styleHeaderTitle.Render(m.title)
	if m.prompt != "" {
		left += "  " + styleHeaderPrompt.Render(m.prompt)
	}
	right := m.clock()
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	b.WriteString(left + strings.Repeat(" ", gap) + right + "\n")
	b.WriteString(StyleDim.Render(strings.Repeat("─", m.width)) + "\n")

	rows := max(1, m.height-headerRows-footerRows)
	b.WriteString(m.renderCanvas(m.width, rows) + "\n")

	b.WriteString(StyleDim.Render(strings.Repeat("─", m.width)) + "\n")
	switch {
	case m.summary != nil:
		b.WriteString(formatSummary(*m.summary) + "\n")
		b.WriteString(styleHelp.Render("drag to rearrange · esc quit"))
	default:
		b.WriteString(StyleHighlight.Render(iconInfo+" ") + styleInput.Render(string(m.input)) + StyleHighlight.Render("▏") + "\n")
		help := "enter blurt · ctrl+z undo · ctrl+p pause · ctrl+f finish · esc quit"
		if m.status != "" {
			help = m.status
		}
		b.WriteString(styleHelp.Render(help))
	}
	return b.String()
}
