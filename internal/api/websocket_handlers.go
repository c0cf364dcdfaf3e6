package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/entrepeneur4lyf/mak/internal/orchestrator"
	"github.com/gorilla/websocket"
)

// WebSocketMessage is the frame exchanged over the chat socket.
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	EventID string          `json:"event_id,omitempty"`
}

// outgoing is a frame with an already-materialized payload.
type outgoing struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	EventID string      `json:"event_id,omitempty"`
}

// chatWebSocketClient represents one connected browser.
type chatWebSocketClient struct {
	conn   *websocket.Conn
	send   chan outgoing
	server *Server
}

// handleChatWebSocket upgrades the connection and serves the live chat
// channel: "chat_message" and "edit_message" frames run turns, fragments
// stream back as "fragment" frames.
func (s *Server) handleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &chatWebSocketClient{
		conn:   conn,
		send:   make(chan outgoing, 256),
		server: s,
	}

	log.Printf("WebSocket client connected")
	go client.writePump()
	client.readPump()
}

// readPump handles incoming frames until the connection drops.
func (c *chatWebSocketClient) readPump() {
	defer func() {
		c.conn.Close()
		log.Printf("WebSocket client disconnected")
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg WebSocketMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.handleMessage(msg)
	}
}

// writePump handles outgoing frames and keepalive pings.
func (c *chatWebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one incoming frame.
func (c *chatWebSocketClient) handleMessage(msg WebSocketMessage) {
	switch msg.Type {
	case "chat_message":
		var req ChatRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.sendError("Invalid message data", msg.EventID)
			return
		}
		go c.runTurn(msg.EventID, func(onFragment orchestrator.FragmentFunc) (interface{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			return c.server.app.Controller.Submit(ctx, req.Text, req.Images, req.Audio, onFragment)
		})
	case "edit_message":
		var req struct {
			MessageID string `json:"message_id"`
			Text      string `json:"text"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.sendError("Invalid message data", msg.EventID)
			return
		}
		go c.runTurn(msg.EventID, func(onFragment orchestrator.FragmentFunc) (interface{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			return c.server.app.Controller.EditMessage(ctx, req.MessageID, req.Text, onFragment)
		})
	case "ping":
		c.sendMessage(outgoing{Type: "pong", EventID: msg.EventID})
	default:
		c.sendError("Unknown message type", msg.EventID)
	}
}

// runTurn executes one turn, relaying fragments and the final result.
func (c *chatWebSocketClient) runTurn(eventID string, turn func(orchestrator.FragmentFunc) (interface{}, error)) {
	final, err := turn(func(f orchestrator.Fragment) {
		c.sendMessage(outgoing{Type: "fragment", EventID: eventID, Data: f})
	})
	if err != nil {
		c.sendError(err.Error(), eventID)
		return
	}
	c.sendMessage(outgoing{
		Type:    "done",
		EventID: eventID,
		Data: map[string]interface{}{
			"message":    final,
			"session_id": c.server.app.Controller.CurrentSessionID(),
		},
	})
}

// sendMessage queues a frame. When the client's buffer is full the frame is
// dropped; closing the channel here would panic concurrent senders (the turn
// relay goroutine and the read loop both call this).
func (c *chatWebSocketClient) sendMessage(msg outgoing) {
	select {
	case c.send <- msg:
	default:
		log.Printf("WebSocket client buffer full, dropping %s frame", msg.Type)
	}
}

func (c *chatWebSocketClient) sendError(message, eventID string) {
	c.sendMessage(outgoing{Type: "error", Error: message, EventID: eventID})
}
