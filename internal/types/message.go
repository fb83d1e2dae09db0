package types

import (
	"encoding/base64"
	"time"
)

// Inbound message types recognized by the relay.
const (
	MsgClick     = "click"
	MsgMouseDown = "mousedown"
	MsgMouseUp   = "mouseup"
	MsgMouseMove = "mousemove"
	MsgKeyPress  = "keyPress"
	MsgChat      = "chat"
	MsgPing      = "ping"
)

// Outbound message types.
const (
	MsgFrame = "frame"
	MsgPong  = "pong"
)

// ClientMessage is the inbound wire shape. Fields beyond Type are populated
// depending on the message kind.
type ClientMessage struct {
	Type     string       `json:"type"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Key      string       `json:"key"`
	ShiftKey bool         `json:"shiftKey"`
	CtrlKey  bool         `json:"ctrlKey"`
	AltKey   bool         `json:"altKey"`
	MetaKey  bool         `json:"metaKey"`
	Content  *ChatContent `json:"content,omitempty"`
}

// Mods collects the modifier booleans of a keyPress message.
func (m *ClientMessage) Mods() Modifiers {
	return Modifiers{Shift: m.ShiftKey, Ctrl: m.CtrlKey, Alt: m.AltKey, Meta: m.MetaKey}
}

// ChatContent is the payload of a chat message in either direction.
type ChatContent struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
}

// FrameMetadata describes an outbound frame.
type FrameMetadata struct {
	Timestamp int64 `json:"timestamp"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
}

// FrameMessage is the outbound wire shape for one rendered frame. Data is the
// base64-encoded image payload.
type FrameMessage struct {
	Type     string        `json:"type"`
	Data     string        `json:"data"`
	Metadata FrameMetadata `json:"metadata"`
}

// NewFrameMessage encodes a captured frame for transmission.
func NewFrameMessage(f Frame) FrameMessage {
	return FrameMessage{
		Type: MsgFrame,
		Data: base64.StdEncoding.EncodeToString(f.Data),
		Metadata: FrameMetadata{
			Timestamp: f.Timestamp.UnixMilli(),
			Width:     f.Width,
			Height:    f.Height,
		},
	}
}

// ChatMessage is the outbound wire shape for chat and status/diagnostic text.
type ChatMessage struct {
	Type    string      `json:"type"`
	Content ChatContent `json:"content"`
}

// SystemChat builds a status message attributed to the system sender.
func SystemChat(text string) ChatMessage {
	return ChatMessage{
		Type: MsgChat,
		Content: ChatContent{
			Text:      text,
			Sender:    "system",
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// PongMessage answers an inbound ping.
type PongMessage struct {
	Type string `json:"type"`
}
