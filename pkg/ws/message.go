package ws

import "strconv"

// MessageType identifies the kind of a WebSocket message.
type MessageType int

const (
	TextMessage MessageType = iota + 1
	BinaryMessage
	PingMessage
	PongMessage
	CloseMessage
)

func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	case PingMessage:
		return "ping"
	case PongMessage:
		return "pong"
	case CloseMessage:
		return "close"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// CloseFrame is the status carried by a Close message.
type CloseFrame struct {
	Code   uint16
	Reason string
}

// Common close codes.
const (
	CloseNormal        uint16 = 1000
	CloseGoingAway     uint16 = 1001
	CloseProtocolError uint16 = 1002
	CloseUnsupported   uint16 = 1003
	CloseInvalidData   uint16 = 1007
	ClosePolicy        uint16 = 1008
	CloseTooBig        uint16 = 1009
	CloseInternalError uint16 = 1011
)

// Message is one complete WebSocket message. Data holds the payload of
// text, binary, ping and pong messages. Close is set only on Close
// messages and is nil when the peer sent no status code.
type Message struct {
	Type  MessageType
	Data  []byte
	Close *CloseFrame
}

// Text returns a text message.
func Text(s string) Message {
	return Message{Type: TextMessage, Data: []byte(s)}
}

// Binary returns a binary message.
func Binary(b []byte) Message {
	return Message{Type: BinaryMessage, Data: b}
}

// Ping returns a ping message.
func Ping(b []byte) Message {
	return Message{Type: PingMessage, Data: b}
}

// Pong returns a pong message.
func Pong(b []byte) Message {
	return Message{Type: PongMessage, Data: b}
}

// Close returns a close message. A nil frame sends no status code.
func Close(frame *CloseFrame) Message {
	return Message{Type: CloseMessage, Close: frame}
}

// CloseWith returns a close message carrying code and reason.
func CloseWith(code uint16, reason string) Message {
	return Close(&CloseFrame{Code: code, Reason: reason})
}

// IsClose reports whether m is a Close message.
func (m Message) IsClose() bool {
	return m.Type == CloseMessage
}

// String returns the payload as text.
func (m Message) String() string {
	return string(m.Data)
}
