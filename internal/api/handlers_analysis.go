package api

import (
	"net/http"
	"strings"

	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/types"
)

// addressQuery reads the address and network query parameters
func (s *Server) addressQuery(r *http.Request) (string, types.NetworkID, error) {
	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		return "", "", apperrors.NewMissingAddressError()
	}
	return address, s.config.Networks.Resolve(q.Get("network")), nil
}

// handlePortfolio handles GET /api/sui-portfolio
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	address, network, err := s.addressQuery(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	snapshot, err := s.services.Portfolio.GetPortfolio(r.Context(), address, network)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// handleGas handles GET /api/sui-gas
func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	address, network, err := s.addressQuery(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	summary, err := s.services.Gas.Summarize(r.Context(), address, network)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleStaking handles GET /api/sui-staking
func (s *Server) handleStaking(w http.ResponseWriter, r *http.Request) {
	address, network, err := s.addressQuery(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	summary, err := s.services.Staking.Summarize(r.Context(), address, network)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleTax handles GET /api/sui-tax
func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	address, network, err := s.addressQuery(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	summary, err := s.services.Tax.Summarize(r.Context(), address, network)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

type reportFunc func(r *http.Request, address string, network types.NetworkID) (string, error)

// serveReport wraps a report renderer into a {address, network, report} response
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, render reportFunc) {
	address, network, err := s.addressQuery(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	report, err := render(r, address, network)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, types.ReportResponse{
		Address: address,
		Network: network,
		Report:  report,
	})
}

func (s *Server) handleGasReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, func(r *http.Request, address string, network types.NetworkID) (string, error) {
		return s.services.Gas.Report(r.Context(), address, network)
	})
}

func (s *Server) handleStakingReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, func(r *http.Request, address string, network types.NetworkID) (string, error) {
		return s.services.Staking.Report(r.Context(), address, network)
	})
}

func (s *Server) handleTaxReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, func(r *http.Request, address string, network types.NetworkID) (string, error) {
		return s.services.Tax.Report(r.Context(), address, network)
	})
}
