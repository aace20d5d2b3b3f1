package broadcast

import "errors"

var (
	// ErrClientClosed means the connection is already gone. Expected on viewer disconnects.
	ErrClientClosed = errors.New("client closed")
	// ErrClientSlow means the outbound buffer is full and the viewer is not keeping up.
	ErrClientSlow = errors.New("client send buffer full")
)

// Client is one live connection as seen by the Hub.
// Send must not block; it queues payload or fails.
type Client interface {
	ID() string
	Send(payload []byte) error
	Close() error
}
