package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"adaptiq-quiz-service/internal/app"
	"github.com/gorilla/websocket"
)

// ProctorWSHandler is the websocket endpoint for the camera-monitoring
// collaborator: it streams violation events in and warning verdicts out.
type ProctorWSHandler struct {
	proctor  *app.ProctorService
	upgrader websocket.Upgrader
}

func NewProctorWSHandler(proctor *app.ProctorService) *ProctorWSHandler {
	return &ProctorWSHandler{
		proctor: proctor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type violationPayload struct {
	ViolationType string `json:"violationType"`
	Reason        string `json:"reason"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection, starts monitoring for the session, and
// answers each reported violation with the warning verdict. Crossing the
// warning threshold emits a forceQuit event and closes the stream;
// disconnecting stops monitoring.
func (h *ProctorWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	status, err := h.proctor.StartMonitoring(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer func() {
		// The request context is already canceled once the read loop ends.
		if _, err := h.proctor.StopMonitoring(context.Background(), sessionID); err != nil {
			log.Printf("stop monitoring %s: %v", sessionID, err)
		}
	}()

	// Single writer goroutine so warning and forceQuit frames never interleave.
	send := make(chan interface{}, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "monitoring", Payload: status}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "violation":
			var payload violationPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid violation payload"}}
				continue
			}
			result, err := h.proctor.ReportViolation(r.Context(), sessionID, payload.ViolationType, payload.Reason)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "warning", Payload: result}
			if result.ShouldForceQuit {
				send <- outboundMessage[any]{Type: "forceQuit", Payload: result}
				close(send)
				<-writerDone
				return
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}
