package input

import rodinput "github.com/go-rod/rod/lib/input"

// keyMap is the fixed lookup table from client key names to driver key
// identifiers: navigation keys, editing keys, and common control keys.
var keyMap = map[string]rodinput.Key{
	"Enter":      rodinput.Enter,
	"Tab":        rodinput.Tab,
	"Escape":     rodinput.Escape,
	"Backspace":  rodinput.Backspace,
	"Delete":     rodinput.Delete,
	"Insert":     rodinput.Insert,
	"ArrowLeft":  rodinput.ArrowLeft,
	"ArrowRight": rodinput.ArrowRight,
	"ArrowUp":    rodinput.ArrowUp,
	"ArrowDown":  rodinput.ArrowDown,
	"Home":       rodinput.Home,
	"End":        rodinput.End,
	"PageUp":     rodinput.PageUp,
	"PageDown":   rodinput.PageDown,
}

// historyAction identifies keys that act on browser history rather than the
// page: these become history driver calls, not key events. A raw F5 would
// reach the page but never reload it, since reload is browser chrome.
type historyAction int

const (
	historyNone historyAction = iota
	historyBack
	historyForward
	historyReload
)

var historyKeys = map[string]historyAction{
	"BrowserBack":    historyBack,
	"BrowserForward": historyForward,
	"BrowserRefresh": historyReload,
	"F5":             historyReload,
}
