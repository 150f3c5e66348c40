// Package middleware provides layers for use with web.Stack and
// router.Router.Layer.
//
// Layers are applied outermost first:
//
//	h := router.Layer(middleware.Log(logger)).
//		Layer(middleware.Recover(logger)).
//		Layer(middleware.RequestID())
//
// Here RequestID runs first, so the ID is already in the context when
// Recover and Log see the request.
package middleware
