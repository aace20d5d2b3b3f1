package broadcast

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// ConnClient is a Client backed by a websocket connection. A dedicated goroutine owns
// the write side of the connection; Send only queues.
type ConnClient struct {
	id          string
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	exited      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

var _ Client = (*ConnClient)(nil)

// NewConnClient starts the writer goroutine for connection. The caller keeps ownership
// of the read side and must keep reading so pong frames are processed.
func NewConnClient(id string, connection *websocket.Conn, clock clockwork.Clock) *ConnClient {
	cc := &ConnClient{
		id:          id,
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
		exited:      make(chan struct{}),
	}
	cc.configurePongHandler()
	cc.wg.Add(1)
	go cc.run()
	return cc
}

func (cc *ConnClient) ID() string {
	return cc.id
}

// Send queues payload for the writer goroutine. It never blocks.
func (cc *ConnClient) Send(payload []byte) error {
	select {
	case <-cc.exited:
		return ErrClientClosed
	default:
	}

	select {
	case cc.sendChannel <- payload:
		return nil
	default:
		return ErrClientSlow
	}
}

// Close stops the writer and closes the connection without a close frame.
func (cc *ConnClient) Close() error {
	cc.stop()
	return nil
}

// CloseGraceful stops the writer, then sends a normal-closure frame with reason.
func (cc *ConnClient) CloseGraceful(reason string) {
	cc.stopOnce.Do(func() {
		close(cc.doneChannel)
		// The writer must be gone before this goroutine writes the close frame.
		cc.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cc.updateWriteDeadline()
		_ = cc.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cc.connection.Close()
	})
}

func (cc *ConnClient) run() {
	ticker := cc.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cc.wg.Done()
	defer close(cc.exited)

	for {
		select {
		case msg := <-cc.sendChannel:
			cc.updateWriteDeadline()
			if err := cc.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = cc.connection.Close()
				return
			}
		case <-ticker.Chan():
			cc.updateWriteDeadline()
			if err := cc.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = cc.connection.Close()
				return
			}
		case <-cc.doneChannel:
			return
		}
	}
}

func (cc *ConnClient) stop() {
	cc.stopOnce.Do(func() {
		close(cc.doneChannel)
		_ = cc.connection.Close()
	})
	cc.wg.Wait()
}

func (cc *ConnClient) configurePongHandler() {
	cc.updateReadDeadline()
	cc.connection.SetPongHandler(func(string) error {
		cc.updateReadDeadline()
		return nil
	})
}

func (cc *ConnClient) updateWriteDeadline() {
	_ = cc.connection.SetWriteDeadline(cc.clock.Now().Add(writeDeadline))
}

func (cc *ConnClient) updateReadDeadline() {
	_ = cc.connection.SetReadDeadline(cc.clock.Now().Add(pongDeadline))
}
