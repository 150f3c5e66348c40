// Package http1 writes HTTP/1.1 responses onto a connection.
package http1

import (
	"bufio"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// WriteResponse writes a complete response: status line, headers and body.
//
// Content-Length is derived from body for every status that may carry
// one; a caller-supplied Content-Length is replaced. When keepAlive is
// false and hdr has no Connection header, "Connection: close" is added.
// headOnly writes the head of a HEAD response, keeping Content-Length.
func WriteResponse(bw *bufio.Writer, status int, hdr http.Header, body []byte, keepAlive, headOnly bool) error {
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason(status)); err != nil {
		return err
	}

	allowed := BodyAllowed(status)
	for _, k := range slices.Sorted(maps.Keys(hdr)) {
		if strings.EqualFold(k, "Content-Length") {
			continue
		}
		for _, v := range hdr[k] {
			if _, err := fmt.Fprintf(bw, "%s: %s\r\n", k, sanitizeHeaderValue(v)); err != nil {
				return err
			}
		}
	}
	if allowed {
		if _, err := fmt.Fprintf(bw, "Content-Length: %d\r\n", len(body)); err != nil {
			return err
		}
	}
	if !keepAlive && hdr.Get("Connection") == "" {
		if _, err := bw.WriteString("Connection: close\r\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	if allowed && !headOnly && len(body) > 0 {
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return nil
}

// WriteError writes a bodyless error response and closes the exchange.
func WriteError(bw *bufio.Writer, status int) error {
	if err := WriteResponse(bw, status, nil, nil, false, false); err != nil {
		return err
	}
	return bw.Flush()
}

// BodyAllowed reports whether a response with status may carry a body.
func BodyAllowed(status int) bool {
	if status >= 100 && status < 200 {
		return false
	}
	return status != http.StatusNoContent && status != http.StatusNotModified
}

// KeepAlive reports whether the connection stays open after responding to
// a request with the given protocol version and headers.
func KeepAlive(major, minor int, hdr http.Header) bool {
	conn := strings.ToLower(hdr.Get("Connection"))
	if major == 1 && minor >= 1 {
		return !strings.Contains(conn, "close")
	}
	return strings.Contains(conn, "keep-alive")
}

func reason(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "status code " + strconv.Itoa(status)
}

func sanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	// Remove CR/LF and other control chars except HTAB
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// WriteContinue writes the interim 100 Continue response and flushes it.
func WriteContinue(bw *bufio.Writer) error {
	if _, err := bw.WriteString("HTTP/1.1 100 Continue\r\n\r\n"); err != nil {
		return err
	}
	return bw.Flush()
}
