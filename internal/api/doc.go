// Package api wires HTTP routes and the WebSocket session namespaces
// to their handlers.
package api
