package api

import "testing"

func TestSendMessageDropsWhenBufferFull(t *testing.T) {
	c := &chatWebSocketClient{send: make(chan outgoing, 1)}

	c.sendMessage(outgoing{Type: "fragment", EventID: "e1"})
	// Buffer is full now; overflow frames are dropped, and later sends must
	// still be safe from any goroutine.
	c.sendMessage(outgoing{Type: "fragment", EventID: "e2"})
	c.sendMessage(outgoing{Type: "done", EventID: "e1"})
	c.sendError("stream failed", "e1")

	select {
	case msg := <-c.send:
		if msg.Type != "fragment" || msg.EventID != "e1" {
			t.Errorf("queued frame = %+v, want the first fragment", msg)
		}
	default:
		t.Fatal("first queued frame lost")
	}

	select {
	case msg := <-c.send:
		t.Errorf("overflow frame %+v should have been dropped", msg)
	default:
	}
}
