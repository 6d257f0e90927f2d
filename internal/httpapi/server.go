package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"titleboost/internal/core/domain"
)

const queuedMessage = "Your request has been queued. You will get an email soon with improved suggestions for your youtube videos"

// Submitter accepts a channel/email pair and returns the new job id.
type Submitter interface {
	Submit(ctx context.Context, channel, email string) (string, error)
}

type submitRequest struct {
	Channel string `json:"channel"`
	Email   string `json:"email"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the intake endpoint over HTTP.
type Server struct {
	submitter Submitter
	logger    *log.Logger
}

func NewServer(submitter Submitter, logger *log.Logger) *Server {
	return &Server{submitter: submitter, logger: logger}
}

// Router builds the chi router with request logging and panic recovery.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/submit", s.handleSubmit)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /submit
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	jobID, err := s.submitter.Submit(r.Context(), req.Channel, req.Email)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message})
			return
		}
		s.logger.Printf("Error handling submission: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{Success: true, Message: queuedMessage, JobID: jobID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
