package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adaptiq-quiz-service/internal/app"
	"adaptiq-quiz-service/internal/domain"
	"adaptiq-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestProctorWebSocketForceQuit(t *testing.T) {
	sessions := memory.NewSessionStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	quiz := app.NewQuizService(sessions, questions, 10)
	monitors := memory.NewMonitorStore()
	proctor := app.NewProctorService(monitors, quiz, 2)

	start, err := quiz.StartQuiz(context.Background(), "u1", "computer")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/proctor", NewProctorWSHandler(proctor).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/proctor?sessionId=" + start.SessionID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Monitoring confirmation comes first.
	msgType, _ := readNext(conn, t, "monitoring")
	if msgType != "monitoring" {
		t.Fatalf("expected monitoring, got %s", msgType)
	}

	violation := map[string]any{
		"type": "violation",
		"payload": map[string]any{
			"violationType": "looking_away",
			"reason":        "gaze left frame",
		},
	}
	for i := 1; i <= 2; i++ {
		if err := conn.WriteJSON(violation); err != nil {
			t.Fatalf("write violation %d: %v", i, err)
		}
		_, payload := readNext(conn, t, "warning")
		if payload["shouldForceQuit"] == true {
			t.Fatalf("violation %d should not force quit", i)
		}
	}

	if err := conn.WriteJSON(violation); err != nil {
		t.Fatalf("write violation 3: %v", err)
	}
	_, payload := readNext(conn, t, "warning")
	if payload["shouldForceQuit"] != true {
		t.Fatalf("expected force quit on 3rd violation, got %+v", payload)
	}
	msgType, _ = readNext(conn, t, "forceQuit")
	if msgType != "forceQuit" {
		t.Fatalf("expected forceQuit event, got %s", msgType)
	}

	session, err := quiz.GetSession(context.Background(), start.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.State != domain.SessionTerminated {
		t.Fatalf("expected terminated session, got %s", session.State)
	}
}

func TestProctorWebSocketStopsOnDisconnect(t *testing.T) {
	sessions := memory.NewSessionStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	quiz := app.NewQuizService(sessions, questions, 10)
	monitors := memory.NewMonitorStore()
	proctor := app.NewProctorService(monitors, quiz, 2)

	start, err := quiz.StartQuiz(context.Background(), "u1", "computer")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/proctor", NewProctorWSHandler(proctor).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/proctor?sessionId=" + start.SessionID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readNext(conn, t, "monitoring")
	conn.Close()

	// The handler stops monitoring once the read loop ends.
	deadline := time.Now().Add(2 * time.Second)
	for {
		state, err := monitors.Get(context.Background(), start.SessionID)
		if err == nil && !state.CameraActive {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("camera still active after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
