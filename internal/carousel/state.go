// Package carousel implements the swipeable photo container: a pure index
// state machine and its binding to a container node.
package carousel

// DefaultSwipeThreshold is the horizontal travel, in pixels, a touch must
// exceed to count as a swipe.
const DefaultSwipeThreshold = 50

// Keys understood by State.Key.
const (
	KeyLeft  = "ArrowLeft"
	KeyRight = "ArrowRight"
)

// State is the position of a carousel. Index is meaningful only when
// Count > 0.
type State struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

// Focus describes where keyboard input is going when a key arrives.
type Focus struct {
	// Editing is true when an input, textarea or editable text has focus.
	Editing bool
	// InViewport is true when the container is on screen.
	InViewport bool
}

// Clamp forces Index into [0, Count).
func (s State) Clamp() State {
	if s.Count <= 0 {
		return State{}
	}
	if s.Index >= s.Count {
		s.Index = s.Count - 1
	}
	if s.Index < 0 {
		s.Index = 0
	}
	return s
}

// Navigable reports whether the carousel has anything to move between.
func (s State) Navigable() bool { return s.Count > 1 }

// Prev moves one block back.
func (s State) Prev() (State, bool) {
	if s.Index <= 0 {
		return s, false
	}
	s.Index--
	return s, true
}

// Next moves one block forward.
func (s State) Next() (State, bool) {
	if s.Index >= s.Count-1 {
		return s, false
	}
	s.Index++
	return s, true
}

// JumpTo selects block i. Out-of-range or current targets are ignored.
func (s State) JumpTo(i int) (State, bool) {
	if i < 0 || i >= s.Count || i == s.Index {
		return s, false
	}
	s.Index = i
	return s, true
}

// Swipe interprets a touch that started at startX and ended at endX.
// Moving left advances, moving right goes back.
func (s State) Swipe(startX, endX, threshold float64) (State, bool) {
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	diff := startX - endX
	switch {
	case diff > threshold:
		return s.Next()
	case diff < -threshold:
		return s.Prev()
	}
	return s, false
}

// Key handles arrow keys unless focus is elsewhere.
func (s State) Key(key string, f Focus) (State, bool) {
	if f.Editing || !f.InViewport {
		return s, false
	}
	switch key {
	case KeyLeft:
		return s.Prev()
	case KeyRight:
		return s.Next()
	}
	return s, false
}

// Removed returns the state after block i is deleted. The visible block
// stays visible when an earlier one goes away.
func (s State) Removed(i int) State {
	if i < 0 || i >= s.Count {
		return s
	}
	s.Count--
	if i < s.Index {
		s.Index--
	}
	return s.Clamp()
}

// Appended returns the state after a block is added at the end; the new
// block becomes current.
func (s State) Appended() State {
	s.Count++
	s.Index = s.Count - 1
	return s
}
