// Package events implements the Event Dispatcher.
//
// The dispatcher is an ordered publish/subscribe registry keyed by a closed
// set of event kinds. Handlers for a kind run in subscription order, one
// event at a time. A handler that panics is logged and skipped; the
// remaining handlers still receive the event.
package events
