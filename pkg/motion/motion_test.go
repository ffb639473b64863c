package motion

import (
	"math"
	"testing"
	"time"
)

const frame = 16 * time.Millisecond

type recorder struct {
	frames []Frame
	done   []bool
}

func (r *recorder) onFrame(f Frame) { r.frames = append(r.frames, f) }
func (r *recorder) onDone(ok bool)  { r.done = append(r.done, ok) }
func (r *recorder) last() Frame     { return r.frames[len(r.frames)-1] }
func (r *recorder) animate(l *Loop, d time.Duration) CancelFunc {
	return Animate(l, d, r.onFrame, r.onDone)
}

func TestAnimateCompletes(t *testing.T) {
	loop := NewLoop()
	var r recorder
	r.animate(loop, 100*time.Millisecond)

	for i := 0; i < 20; i++ {
		loop.Step(frame)
	}

	if len(r.done) != 1 || !r.done[0] {
		t.Fatalf("onDone calls = %v, want [true]", r.done)
	}
	if got := r.last().Progress; got != 1 {
		t.Errorf("final progress = %v, want 1", got)
	}
	if r.frames[0].Progress != 0 || r.frames[0].Delta != 0 {
		t.Errorf("first frame = %+v, want zero progress and delta", r.frames[0])
	}
	// 0, 16, ..., 96 then 112 clamps to 1.
	if len(r.frames) != 8 {
		t.Errorf("frames = %d, want 8", len(r.frames))
	}
	if loop.Pending() != 0 {
		t.Errorf("loop still has %d pending requests", loop.Pending())
	}
}

func TestAnimateCancel(t *testing.T) {
	loop := NewLoop()
	var r recorder
	cancel := r.animate(loop, 100*time.Millisecond)

	for loop.Now() < 50*time.Millisecond {
		loop.Step(frame)
	}
	seen := len(r.frames)
	cancel()

	if len(r.done) != 1 || r.done[0] {
		t.Fatalf("onDone calls = %v, want [false]", r.done)
	}
	for i := 0; i < 10; i++ {
		loop.Step(frame)
	}
	if len(r.frames) != seen {
		t.Errorf("frames after cancel: %d, want %d", len(r.frames), seen)
	}

	cancel()
	if len(r.done) != 1 {
		t.Errorf("second cancel fired onDone again: %v", r.done)
	}
}

func TestAnimateCancelAfterCompletion(t *testing.T) {
	loop := NewLoop()
	var r recorder
	cancel := r.animate(loop, 20*time.Millisecond)
	for i := 0; i < 5; i++ {
		loop.Step(frame)
	}
	cancel()
	if len(r.done) != 1 || !r.done[0] {
		t.Errorf("onDone calls = %v, want [true]", r.done)
	}
}

func TestAnimateNonPositiveDuration(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		loop := NewLoop()
		var r recorder
		r.animate(loop, d)
		loop.Step(frame)

		if len(r.frames) != 1 || r.frames[0].Progress != 1 {
			t.Errorf("duration %v: frames = %+v, want single frame at progress 1", d, r.frames)
		}
		if len(r.done) != 1 || !r.done[0] {
			t.Errorf("duration %v: onDone calls = %v", d, r.done)
		}
	}
}

func TestAnimateProgressClamped(t *testing.T) {
	loop := NewLoop()
	var r recorder
	r.animate(loop, 100*time.Millisecond)
	loop.Step(frame)
	loop.Step(time.Second)

	if got := r.last(); got.Progress != 1 || got.Delta != time.Second {
		t.Errorf("last frame = %+v, want progress 1 and delta 1s", got)
	}
}

func TestAnimateCancelFromFrame(t *testing.T) {
	loop := NewLoop()
	var done []bool
	var cancel CancelFunc
	frames := 0
	cancel = Animate(loop, time.Second, func(Frame) {
		frames++
		if frames == 2 {
			cancel()
		}
	}, func(ok bool) { done = append(done, ok) })

	for i := 0; i < 5; i++ {
		loop.Step(frame)
	}
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
	if len(done) != 1 || done[0] {
		t.Errorf("onDone calls = %v, want [false]", done)
	}
}

func TestLoopTimers(t *testing.T) {
	loop := NewLoop()
	var order []string
	loop.AfterFunc(30*time.Millisecond, func() { order = append(order, "b") })
	loop.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	dropped := loop.AfterFunc(20*time.Millisecond, func() { order = append(order, "x") })
	loop.Cancel(dropped)

	loop.Step(5 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("timers fired early: %v", order)
	}
	loop.Step(50 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v, want [a b]", order)
	}
}

func TestLoopDefersNestedWork(t *testing.T) {
	loop := NewLoop()
	runs := 0
	loop.RequestFrame(func(time.Duration) {
		runs++
		loop.RequestFrame(func(time.Duration) { runs++ })
	})
	loop.AfterFunc(0, func() {
		loop.AfterFunc(0, func() { runs += 10 })
	})

	loop.Step(frame)
	if runs != 1 {
		t.Fatalf("runs after first advance = %d, want 1", runs)
	}
	loop.Step(frame)
	if runs != 12 {
		t.Errorf("runs after second advance = %d, want 12", runs)
	}
}

func TestLoopTimeIsMonotonic(t *testing.T) {
	loop := NewLoop()
	loop.Advance(time.Second)
	loop.Advance(time.Millisecond)
	if loop.Now() != time.Second {
		t.Errorf("Now = %v, want 1s", loop.Now())
	}
}

func TestGroupCancelAll(t *testing.T) {
	loop := NewLoop()
	var g Group
	var r1, r2, r3 recorder

	g.Add(r1.animate(loop, time.Second))
	g.Add(r2.animate(loop, time.Second))
	id := g.Add(r3.animate(loop, frame))
	loop.Step(frame)
	loop.Step(frame)
	g.Done(id)

	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	g.CancelAll()
	if g.Len() != 0 {
		t.Errorf("Len after CancelAll = %d", g.Len())
	}
	for i, r := range []recorder{r1, r2} {
		if len(r.done) != 1 || r.done[0] {
			t.Errorf("animation %d: onDone = %v, want [false]", i+1, r.done)
		}
	}
	if len(r3.done) != 1 || !r3.done[0] {
		t.Errorf("finished animation: onDone = %v, want [true]", r3.done)
	}
}

func TestEasing(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		half float64
	}{
		{"cubic", EaseOutCubic, 0.875},
		{"quint", EaseOutQuint, 0.96875},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.fn(0) != 0 || tt.fn(1) != 1 {
				t.Errorf("endpoints = %v, %v", tt.fn(0), tt.fn(1))
			}
			if got := tt.fn(0.5); math.Abs(got-tt.half) > 1e-12 {
				t.Errorf("f(0.5) = %v, want %v", got, tt.half)
			}
			prev := 0.0
			for i := 1; i <= 100; i++ {
				v := tt.fn(float64(i) / 100)
				if v < prev {
					t.Fatalf("not monotonic at %d: %v < %v", i, v, prev)
				}
				prev = v
			}
		})
	}
}

func TestStepVelocity(t *testing.T) {
	for _, v0 := range []float64{900, -640} {
		v := v0
		for i := 0; i < 200; i++ {
			next := StepVelocity(v, 7.5, frame)
			if math.Signbit(next) != math.Signbit(v0) && next != 0 {
				t.Fatalf("v0=%v: sign flipped at step %d", v0, i)
			}
			if math.Abs(next) > math.Abs(v) {
				t.Fatalf("v0=%v: speed grew at step %d", v0, i)
			}
			v = next
		}
		if math.Abs(v) > 1e-6 {
			t.Errorf("v0=%v: did not converge, v=%v", v0, v)
		}
	}

	if got := StepVelocity(100, 7.5, 0); got != 100 {
		t.Errorf("zero delta changed velocity to %v", got)
	}
}
