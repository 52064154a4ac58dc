// Package client is the command surface used by game views.
//
// A Client turns user intent into protocol frames (start, steer, restart,
// quit, session configuration) and hands them to the Connection Manager.
// It keeps no game state of its own: everything a view renders arrives as
// events through Subscribe.
package client
