// Package ws implements the server side of the WebSocket opening handshake
// and the message stream handed to user code afterwards.
//
// Upgrade returns a handler for the router's upgrade table. It answers
// with 101 Switching Protocols and starts the session on its own
// goroutine once the connection runtime has flushed the response and
// released the connection:
//
//	r := router.New().WS("/echo", func(ctx context.Context, c *ws.Conn) error {
//		for msg, err := range c.Messages(ctx) {
//			if err != nil {
//				return err
//			}
//			if msg.Type == ws.TextMessage {
//				if err := c.Send(msg); err != nil {
//					return err
//				}
//			}
//		}
//		return nil
//	})
//
// Framing, masking, ping/pong replies and the close handshake are handled
// by github.com/gobwas/ws.
package ws
