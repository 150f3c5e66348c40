package ws

import "time"

// SessionObserver receives WebSocket lifecycle events. Implementations
// must be safe for concurrent use.
type SessionObserver interface {
	// UpgradeFailed is called when the connection could not be taken over
	// after the 101 response.
	UpgradeFailed(err error)
	SessionStarted()
	SessionEnded(d time.Duration)
	MessageReceived(t MessageType)
	MessageSent(t MessageType)
}

type nopObserver struct{}

func (nopObserver) UpgradeFailed(error)         {}
func (nopObserver) SessionStarted()             {}
func (nopObserver) SessionEnded(time.Duration)  {}
func (nopObserver) MessageReceived(MessageType) {}
func (nopObserver) MessageSent(MessageType)     {}
