// Package router maps requests to handlers by exact method and path.
//
// A router holds two tables. The upgrade table is keyed by path alone and
// is consulted first, so a WebSocket endpoint answers every method at its
// path. The method table is keyed by method, then path. Nothing is
// normalised: no trailing slash handling, no case folding, no patterns.
//
//	r := router.New().
//		Get("/", web.NoArg(index)).
//		Post("/echo", web.WithBody(echo)).
//		WS("/ws", session)
//
//	h := r.Layer(middleware.Log(logger)).Layer(middleware.RequestID())
package router
