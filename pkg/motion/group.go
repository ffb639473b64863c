package motion

// Group tracks in-flight animations so they can be cancelled together.
// The zero value is ready to use.
type Group struct {
	next    int
	cancels map[int]CancelFunc
}

// Add registers cancel and returns an id for [Group.Done].
func (g *Group) Add(cancel CancelFunc) int {
	if g.cancels == nil {
		g.cancels = make(map[int]CancelFunc)
	}
	g.next++
	g.cancels[g.next] = cancel
	return g.next
}

// Done forgets id without cancelling it. Call it when the animation finishes
// on its own.
func (g *Group) Done(id int) {
	delete(g.cancels, id)
}

// Len returns the number of tracked animations.
func (g *Group) Len() int { return len(g.cancels) }

// CancelAll cancels and forgets every tracked animation. Animations added by
// the cancel callbacks themselves are kept.
func (g *Group) CancelAll() {
	pending := g.cancels
	g.cancels = nil
	for _, cancel := range pending {
		cancel()
	}
}
