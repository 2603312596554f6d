package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"adaptiq-quiz-service/internal/app"
	"adaptiq-quiz-service/internal/domain"
)

// Handler exposes the quiz and proctoring use cases as JSON endpoints.
type Handler struct {
	quiz    *app.QuizService
	proctor *app.ProctorService
}

func NewHandler(quiz *app.QuizService, proctor *app.ProctorService) *Handler {
	return &Handler{quiz: quiz, proctor: proctor}
}

// Register wires all routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/quiz/start-quiz", h.startQuiz)
	mux.HandleFunc("/api/quiz/submit-answer", h.submitAnswer)
	mux.HandleFunc("/api/quiz/quiz-stats", h.quizStats)
	mux.HandleFunc("/api/quiz/start-camera-monitoring", h.startMonitoring)
	mux.HandleFunc("/api/quiz/stop-camera-monitoring", h.stopMonitoring)
	mux.HandleFunc("/api/quiz/report-movement-violation", h.reportViolation)
}

type startQuizRequest struct {
	UserID   string `json:"userId"`
	Category string `json:"category"`
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.quiz.StartQuiz(r.Context(), req.UserID, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type submitAnswerRequest struct {
	SessionID      string `json:"sessionId"`
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.quiz.SubmitAnswer(r.Context(), req.SessionID, req.QuestionID, req.SelectedAnswer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) quizStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}
	stats, err := h.quiz.Stats(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type monitorRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) startMonitoring(w http.ResponseWriter, r *http.Request) {
	var req monitorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := h.proctor.StartMonitoring(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) stopMonitoring(w http.ResponseWriter, r *http.Request) {
	var req monitorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := h.proctor.StopMonitoring(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type violationRequest struct {
	SessionID     string `json:"sessionId"`
	ViolationType string `json:"violationType"`
	Reason        string `json:"reason"`
}

func (h *Handler) reportViolation(w http.ResponseWriter, r *http.Request) {
	var req violationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.proctor.ReportViolation(r.Context(), req.SessionID, req.ViolationType, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type errorBody struct {
	Error string `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON payload"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrNoQuestionsAvailable),
		errors.Is(err, domain.ErrMonitorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
