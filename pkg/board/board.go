package board

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/motion"
	"github.com/blurtapp/blurt/pkg/observability"
	"github.com/blurtapp/blurt/pkg/session"
)

// =============================================================================
// Timing Constants
// =============================================================================

const (
	// LaunchDuration is how long a new note's ghost takes to fly in.
	LaunchDuration = 300 * time.Millisecond

	// InertiaDuration bounds the glide after a fast release.
	InertiaDuration = 220 * time.Millisecond

	// InertiaFriction is the per-second velocity decay rate while gliding.
	InertiaFriction = 7.5

	// InertiaMinSpeed is the release speed in px/s below which a note
	// settles in place.
	InertiaMinSpeed = 20.0

	// SettleDuration is how long the settle flag stays on after a note stops.
	SettleDuration = 180 * time.Millisecond

	// MorphDuration is the per-note duration of the finalize morph.
	MorphDuration = 280 * time.Millisecond

	// MorphStagger delays each note's morph after the previous one.
	MorphStagger = 14 * time.Millisecond

	// sampleWindow is how far back drag samples are kept.
	sampleWindow = 120 * time.Millisecond

	// anchorAge is the minimum age of the sample velocity is measured from.
	anchorAge = 36 * time.Millisecond

	// launchLift raises the launch curve's control point above the higher
	// endpoint.
	launchLift = 140.0
)

// =============================================================================
// Options
// =============================================================================

// Options configures a [Board].
type Options struct {
	// Scheduler drives animations and timers. Required.
	Scheduler motion.Scheduler

	// Canvas is the visible canvas size. Zero uses [layout.DefaultCanvas].
	Canvas layout.Size

	// ReducedMotion applies every change immediately without animation.
	ReducedMotion bool

	// Now supplies wall-clock timestamps. Defaults to time.Now.
	Now func() time.Time

	// PointerClock stamps pointer events for release velocity. It must be
	// monotonic. Nil uses the scheduler's clock, so events delivered within
	// one frame share a timestamp.
	PointerClock func() time.Duration

	// Rand drives random placement. Nil uses the global generator.
	Rand *rand.Rand

	// OnChange receives a snapshot after every change to the note list.
	// It must not block.
	OnChange func(session.Session)

	// OnFinish receives the summary once a live session is finalized.
	OnFinish func(session.Summary)

	// OnLanded is called when a new note has arrived on the canvas.
	OnLanded func(noteID string)

	// Context is passed to observability hooks.
	Context context.Context

	Logger *log.Logger
}

// =============================================================================
// Board
// =============================================================================

// Effects are the transient visual flags of one note.
type Effects struct {
	Dragging bool
	Inertia  bool
	Settling bool
}

func (e Effects) empty() bool { return !e.Dragging && !e.Inertia && !e.Settling }

// Ghost is the in-flight image of a note that was just added.
type Ghost struct {
	ID      string
	Text    string
	Pos     layout.Point
	Scale   float64
	Opacity float64
	Blur    float64
}

// Board is the interactive canvas controller for one session at a time.
type Board struct {
	sched    motion.Scheduler
	now      func() time.Time
	pointer  func() time.Duration
	rng      *rand.Rand
	ctx      context.Context
	logger   *log.Logger
	onChange func(session.Session)
	onFinish func(session.Summary)
	onLanded func(string)

	canvas    layout.Size
	origin    layout.Point
	originSet bool
	reduced   bool

	sess   session.Session
	notes  []session.Note
	review bool
	closed bool

	// finalized is set once finalization has begun; finishing blocks input
	// until the next session.
	finalized bool
	finishing bool

	countdown *Countdown

	drag    *dragState
	samples []sample

	anims    motion.Group
	settles  map[motion.Handle]struct{}
	inertia  map[string]motion.CancelFunc
	launches map[string]motion.CancelFunc
	fx       map[string]Effects
	hidden   map[string]bool
	ghosts   []Ghost
}

// New creates a board for sess. A session that has already finished opens
// in review mode; otherwise its countdown starts immediately.
func New(sess session.Session, opts Options) (*Board, error) {
	if opts.Scheduler == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "board requires a scheduler")
	}
	if err := errors.ValidateSessionID(sess.ID); err != nil {
		return nil, err
	}

	b := &Board{
		sched:    opts.Scheduler,
		now:      opts.Now,
		pointer:  opts.PointerClock,
		rng:      opts.Rand,
		ctx:      opts.Context,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		onFinish: opts.OnFinish,
		onLanded: opts.OnLanded,
		canvas:   opts.Canvas,
		reduced:  opts.ReducedMotion,
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.pointer == nil {
		b.pointer = b.sched.Now
	}
	if b.ctx == nil {
		b.ctx = context.Background()
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	if b.canvas.Width <= 0 || b.canvas.Height <= 0 {
		b.canvas = layout.DefaultCanvas
	}
	b.load(sess)
	return b, nil
}

// load resets all per-session state for sess.
func (b *Board) load(sess session.Session) {
	b.sess = sess.Clone()
	b.sess.Normalize()
	b.notes = session.CloneNotes(b.sess.Notes)
	b.sess.Notes = nil

	b.review = b.sess.IsFinished()
	b.finalized = b.review
	b.finishing = false
	b.drag = nil
	b.samples = nil
	b.settles = make(map[motion.Handle]struct{})
	b.inertia = make(map[string]motion.CancelFunc)
	b.launches = make(map[string]motion.CancelFunc)
	b.fx = make(map[string]Effects)
	b.hidden = make(map[string]bool)
	b.ghosts = nil

	b.countdown = nil
	if !b.review {
		b.countdown = NewCountdown(b.sched, b.sess.DurationSec, b.finalize)
	}
}

// SwitchSession replaces the board's session. In-flight animations and
// settle timers are dropped without persisting anything.
func (b *Board) SwitchSession(sess session.Session) error {
	if err := errors.ValidateSessionID(sess.ID); err != nil {
		return err
	}
	b.release()
	b.closed = false
	b.load(sess)
	return nil
}

// Close releases every animation, timer and the countdown. Later input is
// ignored.
func (b *Board) Close() {
	b.release()
	b.closed = true
}

// release cancels animations, settle timers and the countdown.
func (b *Board) release() {
	b.clearAnimations()
	if b.countdown != nil {
		b.countdown.Stop()
	}
}

// clearAnimations cancels every running animation and pending settle timer.
// Cancelled animations do not persist.
func (b *Board) clearAnimations() {
	b.anims.CancelAll()
	for h := range b.settles {
		b.sched.Cancel(h)
	}
	clear(b.settles)
}

// =============================================================================
// Accessors
// =============================================================================

// Session returns a snapshot of the session with the current notes.
func (b *Board) Session() session.Session { return b.sess.WithNotes(b.notes) }

// Notes returns a copy of the current notes in creation order.
func (b *Board) Notes() []session.Note { return session.CloneNotes(b.notes) }

// Note returns the note with id.
func (b *Board) Note(id string) (session.Note, bool) {
	i := b.index(id)
	if i < 0 {
		return session.Note{}, false
	}
	return b.notes[i], true
}

// Summary computes the statistics of the current notes.
func (b *Board) Summary() session.Summary {
	return session.Summarize(b.notes, b.sess.DurationSec)
}

// Ghosts returns the notes currently flying in.
func (b *Board) Ghosts() []Ghost { return slices.Clone(b.ghosts) }

// Hidden reports whether the note is hidden behind its launch ghost.
func (b *Board) Hidden(id string) bool { return b.hidden[id] }

// Effects returns the visual flags of the note.
func (b *Board) Effects(id string) Effects { return b.fx[id] }

// Countdown returns the session timer, or nil in review mode.
func (b *Board) Countdown() *Countdown { return b.countdown }

// Review reports whether the board is rearranging a finished session.
func (b *Board) Review() bool { return b.review }

// Finishing reports whether finalization has started. Input other than
// review drags is ignored from then on.
func (b *Board) Finishing() bool { return b.finishing }

// Canvas returns the current canvas size.
func (b *Board) Canvas() layout.Size { return b.canvas }

// SetCanvasSize records a new canvas size. Non-positive sizes are ignored.
func (b *Board) SetCanvasSize(size layout.Size) {
	if size.Width > 0 && size.Height > 0 {
		b.canvas = size
	}
}

// SetLaunchOrigin sets where new notes start their flight, usually just
// above the text input.
func (b *Board) SetLaunchOrigin(p layout.Point) {
	b.origin = p
	b.originSet = true
}

// SetReducedMotion toggles animation. Running animations finish normally.
func (b *Board) SetReducedMotion(reduced bool) { b.reduced = reduced }

func (b *Board) launchOrigin() layout.Point {
	if b.originSet {
		return b.origin
	}
	return layout.Point{X: b.canvas.Width/2 - layout.NoteWidth/2, Y: b.canvas.Height}
}

func (b *Board) index(id string) int {
	return slices.IndexFunc(b.notes, func(n session.Note) bool { return n.ID == id })
}

// =============================================================================
// Notes
// =============================================================================

// timeUp reports whether the session no longer accepts new blurts.
func (b *Board) timeUp() bool {
	return b.closed || b.review || b.finishing || (b.countdown != nil && b.countdown.Complete())
}

// AddNote places a new note for text. Blank text and notes after the
// countdown has ended are rejected.
func (b *Board) AddNote(text string) (session.Note, bool) {
	submitted := strings.TrimSpace(text)
	if submitted == "" || b.timeUp() {
		return session.Note{}, false
	}

	pos := layout.Place(b.canvas, b.notes, b.rng)
	note := session.Note{
		ID:          session.NewID(),
		Text:        submitted,
		X:           pos.X,
		Y:           pos.Y,
		CreatedAtMs: b.now().UnixMilli(),
	}
	b.notes = append(b.notes, note)
	b.emit()
	observability.Board().OnNoteAdded(b.ctx, b.sess.ID, len(b.notes))

	if b.reduced {
		b.landed(note.ID)
		return note, true
	}
	b.launch(note)
	return note, true
}

// Undo removes the most recently created note.
func (b *Board) Undo() bool {
	if b.closed || b.finishing || b.review || len(b.notes) == 0 {
		return false
	}
	last := b.notes[len(b.notes)-1]
	if cancel, ok := b.launches[last.ID]; ok {
		cancel()
	}
	if cancel, ok := b.inertia[last.ID]; ok {
		cancel()
	}
	if b.drag != nil && b.drag.id == last.ID {
		b.drag = nil
		b.samples = nil
	}
	delete(b.fx, last.ID)

	b.notes = b.notes[:len(b.notes)-1]
	b.emit()
	return true
}

// Flush persists the current notes. It is meant for the host's hide and
// unload paths and does nothing once finalization has started.
func (b *Board) Flush() {
	if b.finishing || b.closed {
		return
	}
	b.emit()
}

func (b *Board) emit() {
	if b.onChange != nil {
		b.onChange(b.Session())
	}
}

func (b *Board) landed(id string) {
	if b.onLanded != nil {
		b.onLanded(id)
	}
}

func (b *Board) setEffects(id string, update func(*Effects)) {
	fx := b.fx[id]
	update(&fx)
	if fx.empty() {
		delete(b.fx, id)
		return
	}
	b.fx[id] = fx
}

// settle raises the settle flag and clears it after [SettleDuration].
func (b *Board) settle(id string) {
	b.setEffects(id, func(fx *Effects) { fx.Settling = true })
	var h motion.Handle
	h = b.sched.AfterFunc(SettleDuration, func() {
		delete(b.settles, h)
		b.setEffects(id, func(fx *Effects) { fx.Settling = false })
	})
	b.settles[h] = struct{}{}
}

// track registers cancel with the board's animation group and returns the
// function that forgets it again.
func (b *Board) track(cancel motion.CancelFunc) (done func()) {
	id := b.anims.Add(cancel)
	return func() { b.anims.Done(id) }
}
