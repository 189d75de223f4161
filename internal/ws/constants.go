package websocket

import (
	"github.com/gorilla/websocket"
)

// Message type constants re-exported for callers that handle raw frames.
const (
	TextMessage = websocket.TextMessage
	PingMessage = websocket.PingMessage
	PongMessage = websocket.PongMessage
)

// Close codes the server treats as expected shutdowns.
const (
	CloseNormalClosure    = websocket.CloseNormalClosure
	CloseGoingAway        = websocket.CloseGoingAway
	CloseNoStatusReceived = websocket.CloseNoStatusReceived
)

// IsUnexpectedCloseError returns true if the error is a websocket closing
// error but not one of the provided expected close codes.
func IsUnexpectedCloseError(err error, codes ...int) bool {
	return websocket.IsUnexpectedCloseError(err, codes...)
}
