// Package input turns parsed client commands into browser driver calls.
//
// Pointer coordinates pass through the normalizer before any driver call.
// Key events are resolved against a fixed table: named keys become driver key
// presses, single characters become literal text input, and unknown
// multi-character identifiers are passed through as raw key events. This
// distinguishes "type the character 'a'" from "press the key named A".
package input

import (
	"context"
	"fmt"
	"unicode/utf8"

	rodinput "github.com/go-rod/rod/lib/input"
	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/coords"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/types"
)

// Browser is the driver surface the dispatcher needs. *browser.Driver
// satisfies it; tests substitute a recorder.
type Browser interface {
	Viewport() types.Viewport
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context) error
	MouseMove(ctx context.Context, x, y int) error
	MouseDown(ctx context.Context) error
	MouseUp(ctx context.Context) error
	Click(ctx context.Context, x, y int) error
	PressKey(ctx context.Context, key rodinput.Key) error
	RawKey(ctx context.Context, key string, modifiers int) error
	TypeText(ctx context.Context, text string) error
}

// DispatchError reports a single failed interaction against a live session.
// The session survives; the failure is surfaced to the client as a status
// message.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("input dispatch %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

func dispatchErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DispatchError{Op: op, Err: err}
}

// Dispatcher executes input events against one session's browser. Callers
// serialize: one event completes (or fails) before the next is dispatched.
type Dispatcher struct {
	browser Browser
	log     *logging.Logger
}

// New creates a dispatcher bound to a session's browser.
func New(b Browser, log *logging.Logger) *Dispatcher {
	return &Dispatcher{browser: b, log: log}
}

// Dispatch consumes one input event, issuing the corresponding driver call.
func (d *Dispatcher) Dispatch(ctx context.Context, ev types.InputEvent) error {
	switch ev.Kind {
	case types.EventClick, types.EventMouseDown, types.EventMouseUp, types.EventMouseMove:
		return d.pointer(ctx, ev)
	case types.EventKeyPress:
		return d.keyPress(ctx, ev)
	case types.EventNavigate:
		return d.navigate(ctx, ev.Target)
	default:
		return &DispatchError{Op: "dispatch", Err: fmt.Errorf("unknown event kind %d", ev.Kind)}
	}
}

func (d *Dispatcher) pointer(ctx context.Context, ev types.InputEvent) error {
	x, y := coords.Normalize(ev.X, ev.Y, d.browser.Viewport())
	d.log.Debug("pointer event",
		zap.String("kind", ev.Kind.String()),
		zap.Float64("raw_x", ev.X), zap.Float64("raw_y", ev.Y),
		zap.Int("x", x), zap.Int("y", y))

	switch ev.Kind {
	case types.EventClick:
		return dispatchErr("click", d.browser.Click(ctx, x, y))
	case types.EventMouseMove:
		return dispatchErr("mousemove", d.browser.MouseMove(ctx, x, y))
	case types.EventMouseDown:
		// The driver has no move-then-press primitive.
		if err := d.browser.MouseMove(ctx, x, y); err != nil {
			return dispatchErr("mousedown", err)
		}
		return dispatchErr("mousedown", d.browser.MouseDown(ctx))
	case types.EventMouseUp:
		if err := d.browser.MouseMove(ctx, x, y); err != nil {
			return dispatchErr("mouseup", err)
		}
		return dispatchErr("mouseup", d.browser.MouseUp(ctx))
	}
	return nil
}

func (d *Dispatcher) keyPress(ctx context.Context, ev types.InputEvent) error {
	if action, ok := historyKeys[ev.Key]; ok {
		switch action {
		case historyBack:
			return dispatchErr("keyPress", d.browser.Back(ctx))
		case historyForward:
			return dispatchErr("keyPress", d.browser.Forward(ctx))
		case historyReload:
			return dispatchErr("keyPress", d.browser.Reload(ctx))
		}
	}

	if key, ok := keyMap[ev.Key]; ok {
		return dispatchErr("keyPress", d.browser.PressKey(ctx, key))
	}

	if utf8.RuneCountInString(ev.Key) == 1 {
		return dispatchErr("keyPress", d.browser.TypeText(ctx, ev.Key))
	}

	return dispatchErr("keyPress", d.browser.RawKey(ctx, ev.Key, ev.Modifiers.Bitmask()))
}

func (d *Dispatcher) navigate(ctx context.Context, target string) error {
	switch target {
	case types.NavBack:
		return dispatchErr("navigate", d.browser.Back(ctx))
	case types.NavForward:
		return dispatchErr("navigate", d.browser.Forward(ctx))
	case types.NavReload:
		return dispatchErr("navigate", d.browser.Reload(ctx))
	default:
		d.log.Info("navigating", zap.String("url", target))
		return dispatchErr("navigate", d.browser.Navigate(ctx, target))
	}
}
