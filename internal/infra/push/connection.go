package push

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection is one dialed websocket. Writes are serialized because
// gorilla/websocket supports a single concurrent writer.
type connection struct {
	id  string
	gen uint64
	ws  *websocket.Conn

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(id string, gen uint64, ws *websocket.Conn) *connection {
	return &connection{
		id:   id,
		gen:  gen,
		ws:   ws,
		done: make(chan struct{}),
	}
}

func (c *connection) writeText(payload string, wait time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, []byte(payload))
}

// stop ends the heartbeat goroutine. Safe to call more than once.
func (c *connection) stop() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// closeWith sends a close frame and releases the socket.
func (c *connection) closeWith(code int, reason string, wait time.Duration) {
	c.stop()

	c.writeMu.Lock()
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wait),
	)
	c.writeMu.Unlock()
	_ = c.ws.Close()
}

// abort releases the socket without a close handshake.
func (c *connection) abort() {
	c.stop()
	_ = c.ws.Close()
}
