// Package server is the connection runtime: it binds a TCP listener,
// accepts connections on their own goroutines, optionally terminates TLS,
// and drives the HTTP/1.1 request loop against a single web.Handler.
//
// Requests on one connection are handled strictly in order. Any handler
// failure is answered with 404 and the body "Not Found"; the failure kind
// reaches the logger and the Observer but never the client.
//
// When a handler claims the connection with Request.OnUpgrade and answers
// 101, the runtime flushes the response and hands the connection to the
// upgrade slot instead of reading the next request.
//
// There are no read or write timeouts and no graceful drain: Close and
// cancelling the Serve context only stop the accept loop.
package server
