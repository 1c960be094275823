package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/askbook/internal/rag"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the format of every frame sent to the client. Type is
// "stage", "answer" or "error".
type wsMessage struct {
	Type    string       `json:"type"`
	Stage   rag.Stage    `json:"stage,omitempty"`
	Message string       `json:"message,omitempty"`
	Result  *askResponse `json:"result,omitempty"`
}

// handleWebSocket answers each {"question": ...} frame, streaming the
// pipeline stages before the final answer.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "error", err)
			}
			return
		}

		var req askRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, wsMessage{Type: "error", Message: "invalid message format"})
			continue
		}

		resp, err := s.ask(r, req.Question, func(e rag.Event) {
			s.send(conn, wsMessage{Type: "stage", Stage: e.Stage, Message: e.Message})
		})
		if err != nil {
			s.send(conn, wsMessage{Type: "error", Message: err.Error()})
			continue
		}
		s.send(conn, wsMessage{Type: "answer", Result: resp})
	}
}

// send writes one frame. The pipeline calls observers synchronously, so
// writes never race.
func (s *Server) send(conn *websocket.Conn, m wsMessage) {
	if err := conn.WriteJSON(m); err != nil {
		s.logger.Warn("websocket write", "error", err)
	}
}
