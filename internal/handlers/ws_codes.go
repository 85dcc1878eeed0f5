// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes. These give the client a more specific
// reason for closure than the standard registry provides.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
)
