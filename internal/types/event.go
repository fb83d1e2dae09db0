package types

// EventKind discriminates InputEvent variants.
type EventKind int

const (
	EventClick EventKind = iota
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventKeyPress
	EventNavigate
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventMouseDown:
		return "mousedown"
	case EventMouseUp:
		return "mouseup"
	case EventMouseMove:
		return "mousemove"
	case EventKeyPress:
		return "keyPress"
	case EventNavigate:
		return "navigate"
	default:
		return "unknown"
	}
}

// Navigation action tokens accepted by EventNavigate in place of a URL.
const (
	NavBack    = "back"
	NavForward = "forward"
	NavReload  = "reload"
)

// Modifiers holds the keyboard modifier state reported with a key event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

// Bitmask returns the modifier set in CDP Input.dispatchKeyEvent encoding.
func (m Modifiers) Bitmask() int {
	mask := 0
	if m.Alt {
		mask |= 1
	}
	if m.Ctrl {
		mask |= 2
	}
	if m.Meta {
		mask |= 4
	}
	if m.Shift {
		mask |= 8
	}
	return mask
}

// InputEvent is one parsed client command. Immutable once constructed and
// consumed exactly once by the input dispatcher.
type InputEvent struct {
	Kind EventKind

	// Pointer events. Interpretation of X/Y is resolved by the coordinate
	// normalizer: either fractions of the viewport or raw pixels.
	X float64
	Y float64

	// Key events.
	Key       string
	Modifiers Modifiers

	// Navigate: a URL or one of the Nav* action tokens.
	Target string
}

// PointerEvent creates a pointer-variant InputEvent.
func PointerEvent(kind EventKind, x, y float64) InputEvent {
	return InputEvent{Kind: kind, X: x, Y: y}
}

// KeyEvent creates a keyPress InputEvent.
func KeyEvent(key string, mods Modifiers) InputEvent {
	return InputEvent{Kind: EventKeyPress, Key: key, Modifiers: mods}
}

// NavigateEvent creates a navigate InputEvent.
func NavigateEvent(target string) InputEvent {
	return InputEvent{Kind: EventNavigate, Target: target}
}
