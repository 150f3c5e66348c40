package server

import "time"

// Observer receives connection and request events from the runtime.
// Implementations must be safe for concurrent use.
type Observer interface {
	ConnOpened()
	// ConnClosed is called when the runtime is done with a connection,
	// including when it was handed over to an upgraded protocol.
	ConnClosed(d time.Duration)
	TLSHandshakeFailed(err error)
	// RequestServed is called once per request. outcome is "ok" or the
	// kind of the handler failure that was answered with 404.
	RequestServed(method string, status int, outcome string, d time.Duration)
	ProtocolError(err error)
	ConnUpgraded()
}

type nopObserver struct{}

func (nopObserver) ConnOpened()                                       {}
func (nopObserver) ConnClosed(time.Duration)                          {}
func (nopObserver) TLSHandshakeFailed(error)                          {}
func (nopObserver) RequestServed(string, int, string, time.Duration) {}
func (nopObserver) ProtocolError(error)                               {}
func (nopObserver) ConnUpgraded()                                     {}
