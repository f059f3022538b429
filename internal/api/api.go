// Package api serves a small read-mostly HTTP view of the running bot.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lingocall/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Calls is the orchestrator as seen by the API
type Calls interface {
	State() domain.CallState
	Session() domain.Session
	EndConversation()
}

// Schedule answers which words are due
type Schedule interface {
	DueWords(language string, asOf time.Time) ([]string, error)
}

// Pending reports queued durable writes
type Pending interface {
	Pending() int
}

type Deps struct {
	Calls    Calls
	Schedule Schedule
	Queue    Pending // optional
	Logger   *zap.Logger
	now      func() time.Time
}

// NewHandler builds the router
func NewHandler(deps Deps) http.Handler {
	if deps.now == nil {
		deps.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth(deps))
	r.Get("/session", handleSession(deps))
	r.Post("/session/hangup", handleHangup(deps))
	r.Get("/words/due", handleDue(deps))

	return r
}

type turnResponse struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type sessionResponse struct {
	Active              bool           `json:"active"`
	State               string         `json:"state"`
	SessionID           string         `json:"session_id,omitempty"`
	Contact             string         `json:"contact,omitempty"`
	Language            string         `json:"language,omitempty"`
	NativeLanguage      string         `json:"native_language,omitempty"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	StartedAt           *time.Time     `json:"started_at,omitempty"`
	Turns               []turnResponse `json:"turns"`
}

type dueResponse struct {
	Language string    `json:"language"`
	AsOf     time.Time `json:"as_of"`
	Words    []string  `json:"words"`
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if deps.Queue != nil {
			body["pending_writes"] = deps.Queue.Pending()
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func handleSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionView(deps.Calls))
	}
}

func sessionView(calls Calls) sessionResponse {
	s := calls.Session()
	resp := sessionResponse{
		Active:              s.Active,
		State:               string(calls.State()),
		ConsecutiveFailures: s.ConsecutiveFailures,
		Turns:               make([]turnResponse, 0, len(s.History)),
	}
	if !s.Active {
		return resp
	}

	resp.SessionID = s.ID
	resp.Contact = s.Contact.Name
	resp.Language = s.Contact.Language
	resp.NativeLanguage = s.NativeLanguage
	started := s.StartedAt
	resp.StartedAt = &started
	for _, t := range s.History {
		resp.Turns = append(resp.Turns, turnResponse{Speaker: string(t.Speaker), Text: t.Text, At: t.At})
	}
	return resp
}

func handleHangup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Calls.EndConversation()
		if deps.Logger != nil {
			deps.Logger.Info("Call ended through API")
		}
		writeJSON(w, http.StatusOK, sessionView(deps.Calls))
	}
}

func handleDue(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := r.URL.Query().Get("language")
		if language == "" {
			httpError(w, http.StatusBadRequest, "language is required")
			return
		}

		asOf := deps.now()
		if v := r.URL.Query().Get("as_of"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid as_of: %v", err)
				return
			}
			asOf = t
		}

		words, err := deps.Schedule.DueWords(language, asOf)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Error("Failed to load due words", zap.String("language", language), zap.Error(err))
			}
			httpError(w, http.StatusInternalServerError, "failed to load due words")
			return
		}
		if words == nil {
			words = []string{}
		}

		writeJSON(w, http.StatusOK, dueResponse{Language: language, AsOf: asOf, Words: words})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
		},
	})
}
