package ws

// Client is one observer connection. Messages are queued on a bounded send
// channel drained by the transport's write pump.
type Client struct {
	send chan []byte
}

const sendBufferSize = 256

// NewClient creates a new observer connection handle.
func NewClient() *Client {
	return &Client{
		send: make(chan []byte, sendBufferSize),
	}
}

// Send returns the channel the write pump drains.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// trySend queues the message without blocking. An observer that cannot keep
// up is dropped so slow consumers never stall the publisher.
//
// The queue attempt runs under the hub's read lock and Unregister closes the
// channel under the write lock, so a send on a closed channel cannot happen.
func (c *Client) trySend(h *Hub, msg Message) {
	b, err := msg.JSON()
	if err != nil {
		h.logger.Warn("observer message marshal failed", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	_, registered := h.clients[c]
	queued := false
	if registered {
		select {
		case c.send <- b:
			queued = true
		default:
		}
	}
	h.mu.RUnlock()

	if registered && !queued {
		h.logger.Warn("observer send buffer full, dropping connection")
		h.Unregister(c)
	}
}
