// Package binder fills request structs from path parameters and JSON bodies.
//
// Binders share the signature func(*http.Request, any) error so the handler
// package can run several in sequence over one request value. Failures wrap
// the sentinel errors in this package so callers can map them onto statuses.
package binder
