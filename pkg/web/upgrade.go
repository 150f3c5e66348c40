package web

import (
	"bufio"
	"context"
	"net"
	"sync"
	"sync/atomic"
)

// Upgraded is the raw transport handed over after a 101 response.
// Reader holds any bytes the HTTP parser buffered past the request head
// and must be read before Conn.
type Upgraded struct {
	Conn   net.Conn
	Reader *bufio.Reader
}

// PendingUpgrade resolves once the runtime has either handed the connection
// over or decided it cannot. It resolves exactly once.
type PendingUpgrade struct {
	requested atomic.Bool
	once      sync.Once
	done      chan struct{}
	up        *Upgraded
	err       error
}

// NewPendingUpgrade returns an unresolved upgrade slot.
func NewPendingUpgrade() *PendingUpgrade {
	return &PendingUpgrade{done: make(chan struct{})}
}

// Requested reports whether a handler asked for the connection.
func (p *PendingUpgrade) Requested() bool {
	return p.requested.Load()
}

// Complete hands the connection over. Later calls are ignored.
func (p *PendingUpgrade) Complete(conn net.Conn, br *bufio.Reader) {
	p.once.Do(func() {
		if br == nil {
			br = bufio.NewReader(conn)
		}
		p.up = &Upgraded{Conn: conn, Reader: br}
		close(p.done)
	})
}

// Fail resolves the slot with err. Later calls are ignored.
func (p *PendingUpgrade) Fail(err error) {
	p.once.Do(func() {
		if err == nil {
			err = ErrUpgradeUnavailable
		}
		p.err = err
		close(p.done)
	})
}

// Wait blocks until the slot resolves or ctx is done.
func (p *PendingUpgrade) Wait(ctx context.Context) (*Upgraded, error) {
	select {
	case <-p.done:
		return p.up, p.err
	case <-ctx.Done():
		return nil, ErrUpgradeUnavailable.Wrap(ctx.Err())
	}
}

// Done is closed once the slot resolves.
func (p *PendingUpgrade) Done() <-chan struct{} {
	return p.done
}
