package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/service"
)

type chatRequest struct {
	Address string `json:"address"`
	Message string `json:"message"`
	Network string `json:"network,omitempty"`
}

type adviceRequest struct {
	Address string `json:"address"`
	Network string `json:"network,omitempty"`
}

// handleChat handles POST /api/chat. A missing address is not an error:
// the connect-wallet message is returned with 200. An empty body counts as
// a request without an address.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := parseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondServiceError(w, r, apperrors.NewInvalidParameterError("body", "invalid JSON"))
		return
	}

	resp, err := s.services.Advisory.Chat(r.Context(), service.ChatInput{
		Address: strings.TrimSpace(req.Address),
		Message: req.Message,
		Network: s.config.Networks.Resolve(req.Network),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleAdvice handles POST /api/advice
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondServiceError(w, r, apperrors.NewInvalidParameterError("body", "invalid JSON"))
		return
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		respondServiceError(w, r, apperrors.NewMissingAddressError())
		return
	}

	advisory, err := s.services.Advisory.Advise(r.Context(), address, s.config.Networks.Resolve(req.Network))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, advisory)
}

// parseLimit reads an optional positive limit query parameter; zero means unset
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, apperrors.NewInvalidParameterError("limit", "must be a positive integer")
	}
	return limit, nil
}

// handleAdviceHistory handles GET /api/advice/history
func (s *Server) handleAdviceHistory(w http.ResponseWriter, r *http.Request) {
	address, _, err := s.addressQuery(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	records, err := s.services.Advisory.History(r.Context(), address, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"address": address,
		"records": records,
	})
}

// handleAdviceMetrics handles GET /api/advice/metrics
func (s *Server) handleAdviceMetrics(w http.ResponseWriter, r *http.Request) {
	if s.services.MetricsHistory == nil {
		respondServiceError(w, r, apperrors.NewServiceUnavailableError("advisory metrics"))
		return
	}

	address, network, err := s.addressQuery(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	rows, err := s.services.MetricsHistory.LatestSnapshots(r.Context(), address, network, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"address": address,
		"network": network,
		"metrics": rows,
	})
}
