package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/ipcee/internal/bus"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	state := s.bus.State()
	resp := HealthzResponse{
		Status:        "ok",
		BusID:         s.bus.ID(),
		BusState:      state.String(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	status := http.StatusOK
	if state != bus.StateAttached {
		resp.Status = "detached"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

func (s *Server) handleBus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, BusResponse{
		ID:       s.bus.ID(),
		State:    s.bus.State().String(),
		Patterns: s.bus.Patterns(),
	})
}

// handleSend handles POST /send/{topic}. The body, if any, is a JSON array
// of positional arguments.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var args []any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			s.writeError(w, http.StatusBadRequest, "body must be a JSON array of arguments")
			return
		}
	}

	err = s.bus.SendCall(bus.Call{Topic: topic, Args: args})
	switch {
	case err == nil:
	case errors.Is(err, bus.ErrDetached):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, bus.ErrEmptyTopic):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		s.logger.Error("admin send failed", "topic", topic, "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, SendResponse{Topic: topic, Args: len(args)})
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
