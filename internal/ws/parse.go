package ws

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pagecast/backend/internal/types"
)

var errUnknownType = errors.New("unknown message type")

// ProtocolError reports a malformed or unrecognized inbound message. The
// client gets a diagnostic status message; the connection stays open.
type ProtocolError struct {
	Type string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("protocol: %v", e.Err)
	}
	return fmt.Sprintf("protocol: message type %q: %v", e.Type, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// navPattern recognizes navigation commands in free chat text.
var navPattern = regexp.MustCompile(`(?i)^\s*(?:go to|navigate to|open)\s+(\S+)`)

// ParseChat extracts a navigation command from chat text. The target defaults
// to an https:// scheme when none is given. Returns false for anything that
// is not a navigation command.
func ParseChat(text string) (types.InputEvent, bool) {
	m := navPattern.FindStringSubmatch(text)
	if m == nil {
		return types.InputEvent{}, false
	}
	target := m[1]
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	return types.NavigateEvent(target), true
}

// ParseInput converts an inbound wire message into an InputEvent. Chat and
// ping messages are handled separately by the read loop; everything else
// lands here.
func ParseInput(msg types.ClientMessage) (types.InputEvent, error) {
	switch msg.Type {
	case types.MsgClick:
		return types.PointerEvent(types.EventClick, msg.X, msg.Y), nil
	case types.MsgMouseDown:
		return types.PointerEvent(types.EventMouseDown, msg.X, msg.Y), nil
	case types.MsgMouseUp:
		return types.PointerEvent(types.EventMouseUp, msg.X, msg.Y), nil
	case types.MsgMouseMove:
		return types.PointerEvent(types.EventMouseMove, msg.X, msg.Y), nil
	case types.MsgKeyPress:
		return types.KeyEvent(msg.Key, msg.Mods()), nil
	default:
		return types.InputEvent{}, &ProtocolError{Type: msg.Type, Err: errUnknownType}
	}
}
