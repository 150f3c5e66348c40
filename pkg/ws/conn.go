package ws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/alexu8007/Oxidized/pkg/web"
)

// ErrClosed is returned by Send after a Close message was sent or received.
var ErrClosed = errors.New("ws: connection closed")

// Conn is the server side of an established WebSocket session.
//
// Receive and Messages must be used from a single goroutine. Send may be
// called concurrently with reads and with other Sends.
type Conn struct {
	raw net.Conn
	rd  *wsutil.Reader

	// Control frame replies are rendered here by the framing layer and
	// flushed under wmu.
	ctl       bytes.Buffer
	onControl wsutil.FrameHandlerFunc

	wmu       sync.Mutex
	sentClose bool

	recvClose bool
	closeOnce sync.Once
	closeErr  error

	observer SessionObserver
}

func newConn(up *web.Upgraded, observer SessionObserver) *Conn {
	var src io.Reader = up.Conn
	if up.Reader != nil {
		src = up.Reader
	}
	if observer == nil {
		observer = nopObserver{}
	}
	c := &Conn{
		raw:      up.Conn,
		observer: observer,
	}
	c.onControl = wsutil.ControlFrameHandler(&c.ctl, ws.StateServerSide)
	c.rd = &wsutil.Reader{
		Source:         src,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: c.control,
	}
	return c
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Receive reads the next message. Fragmented messages are reassembled.
// Ping, pong and close frames are answered by the framing layer before
// they are returned. After a Close message has been returned, or one has
// been sent, Receive returns io.EOF.
func (c *Conn) Receive() (Message, error) {
	if c.recvClose || c.closing() {
		return Message{}, io.EOF
	}
	for {
		hdr, err := c.rd.NextFrame()
		if err != nil {
			return c.readFailed(err)
		}

		if hdr.OpCode.IsControl() {
			var payload bytes.Buffer
			err := c.control(hdr, io.TeeReader(c.rd, &payload))
			if err != nil {
				return c.readFailed(err)
			}
			msg := Message{Data: payload.Bytes()}
			switch hdr.OpCode {
			case ws.OpPing:
				msg.Type = PingMessage
			case ws.OpPong:
				msg.Type = PongMessage
			default:
				continue
			}
			c.observer.MessageReceived(msg.Type)
			return msg, nil
		}

		var typ MessageType
		switch hdr.OpCode {
		case ws.OpText:
			typ = TextMessage
		case ws.OpBinary:
			typ = BinaryMessage
		default:
			if err := c.rd.Discard(); err != nil {
				return c.readFailed(err)
			}
			continue
		}

		data, err := io.ReadAll(c.rd)
		if err != nil {
			return c.readFailed(err)
		}
		c.observer.MessageReceived(typ)
		return Message{Type: typ, Data: data}, nil
	}
}

// Messages returns the inbound messages as a lazy sequence. The sequence
// stops after a Close message, on the first error, or when ctx is done; in
// the last case the error yielded is ctx.Err().
func (c *Conn) Messages(ctx context.Context) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		stop := context.AfterFunc(ctx, func() {
			c.raw.SetReadDeadline(time.Unix(1, 0))
		})
		defer stop()

		for {
			msg, err := c.Receive()
			if err == io.EOF {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				yield(Message{}, err)
				return
			}
			if !yield(msg, nil) || msg.IsClose() {
				return
			}
		}
	}
}

// Send writes one message. Sending a Close message ends the session for
// writing; later Sends return ErrClosed.
func (c *Conn) Send(m Message) error {
	op, payload, err := frameOf(m)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.sentClose {
		return ErrClosed
	}
	if err := wsutil.WriteServerMessage(c.raw, op, payload); err != nil {
		return web.NewError(web.KindIO, "write websocket frame").Wrap(err)
	}
	if op == ws.OpClose {
		c.sentClose = true
	}
	c.observer.MessageSent(m.Type)
	return nil
}

// Close sends a normal closure if no Close was exchanged yet and closes
// the underlying connection. A failure to send the closure is returned when
// closing the connection itself succeeds. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		var sendErr error
		if !c.closing() {
			sendErr = c.Send(CloseWith(CloseNormal, ""))
		}
		c.closeErr = c.raw.Close()
		if c.closeErr == nil {
			c.closeErr = sendErr
		}
	})
	return c.closeErr
}

func (c *Conn) closing() bool {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.sentClose
}

// control runs the framing layer's control handler for h and flushes its
// reply. A close reply is suppressed when this side already sent one.
func (c *Conn) control(h ws.Header, r io.Reader) error {
	c.ctl.Reset()
	err := c.onControl(h, r)
	if c.ctl.Len() == 0 {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.sentClose {
		return err
	}
	if _, werr := c.raw.Write(c.ctl.Bytes()); werr != nil && err == nil {
		err = web.NewError(web.KindIO, "write control frame").Wrap(werr)
	}
	if h.OpCode == ws.OpClose {
		c.sentClose = true
	}
	return err
}

// readFailed turns a close handshake into a Close message and everything
// else into a read error.
func (c *Conn) readFailed(err error) (Message, error) {
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		c.recvClose = true
		msg := Close(nil)
		if closed.Code != ws.StatusNoStatusRcvd {
			msg = CloseWith(uint16(closed.Code), closed.Reason)
		}
		c.observer.MessageReceived(CloseMessage)
		return msg, nil
	}
	if errors.Is(err, io.EOF) {
		c.recvClose = true
		return Message{}, io.EOF
	}
	return Message{}, web.NewError(web.KindIO, "read websocket frame").Wrap(err)
}

func frameOf(m Message) (ws.OpCode, []byte, error) {
	switch m.Type {
	case TextMessage:
		return ws.OpText, m.Data, nil
	case BinaryMessage:
		return ws.OpBinary, m.Data, nil
	case PingMessage:
		return ws.OpPing, m.Data, nil
	case PongMessage:
		return ws.OpPong, m.Data, nil
	case CloseMessage:
		if m.Close == nil {
			return ws.OpClose, nil, nil
		}
		return ws.OpClose, ws.NewCloseFrameBody(ws.StatusCode(m.Close.Code), m.Close.Reason), nil
	default:
		return 0, nil, web.NewError(web.KindProtocol, "unknown websocket message type "+m.Type.String())
	}
}
