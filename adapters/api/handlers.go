package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"calengine/domain/calibration"
	"calengine/domain/certificate"
	"calengine/domain/core"
	"calengine/domain/graph"
)

// CalibrateRequest is the wire form of one calibration subject. The graph
// travels inline so the engine can hash exactly what the caller evaluated.
type CalibrateRequest struct {
	InstanceID string                   `json:"instance_id,omitempty"`
	Method     string                   `json:"method"`
	Role       string                   `json:"role"`
	Node       int64                    `json:"node"`
	Graph      graph.Graph              `json:"graph"`
	Context    calibration.ContextTuple `json:"context"`
	Evidence   calibration.EvidenceBag  `json:"evidence"`
}

// VerifyRequest carries a certificate to re-verify.
type VerifyRequest struct {
	Certificate certificate.Certificate `json:"certificate"`
}

// VerifyResponse reports the recomputed-MAC comparison.
type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	var req CalibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request: " + err.Error(), Kind: "bad_request"})
		return
	}

	g := req.Graph
	if err := g.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}

	subject := calibration.Subject{
		Instance: core.InstanceID(req.InstanceID),
		Method:   core.MethodID(req.Method),
		Role:     calibration.Role(req.Role),
		Node:     graph.NodeID(req.Node),
		Graph:    &g,
		Context:  req.Context,
		Evidence: req.Evidence,
	}

	cert, err := s.calibrator.Calibrate(r.Context(), subject)
	if err != nil {
		s.logger.Warn("calibration rejected: %v", err)
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: kindFor(err)})
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request: " + err.Error(), Kind: "bad_request"})
		return
	}

	valid, err := s.calibrator.Verify(req.Certificate)
	resp := VerifyResponse{Valid: valid}
	if err != nil {
		// Integrity mismatches are reported in-band, never auto-corrected.
		resp.Reason = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	if s.certs == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no certificate store configured", Kind: "not_found"})
		return
	}
	id := core.InstanceID(chi.URLParam(r, "instanceID"))
	cert, err := s.certs.GetByInstance(r.Context(), id)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: kindFor(err)})
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsValidationError(err):
		return http.StatusBadRequest
	case core.IsEvaluationError(err):
		return http.StatusUnprocessableEntity
	case core.IsConfigurationError(err):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func kindFor(err error) string {
	switch {
	case core.IsNotFoundError(err):
		return "not_found"
	case core.IsValidationError(err):
		return "validation_error"
	case core.IsEvaluationError(err):
		return "evaluation_error"
	case core.IsConfigurationError(err):
		return "configuration_error"
	case core.IsManifestIntegrityError(err):
		return "manifest_integrity_error"
	default:
		return "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
