package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/JonMunkholm/scanmaster/internal/web/templates"
	"github.com/google/uuid"
)

// maxScanBody bounds a scan request body.
const maxScanBody = 4 << 10

// scanRequest is the body of POST /api/escanear, sent as JSON or as a form.
// The EAN bound matches the catalog column.
type scanRequest struct {
	EAN          string `json:"ean" validate:"max=64"`
	SubmissionID string `json:"submission_id"`
}

type scanResponse struct {
	Success  bool              `json:"success"`
	Status   core.ScanStatus   `json:"status"`
	EAN      string            `json:"ean"`
	Reading  *core.ScanReading `json:"reading,omitempty"`
	Replayed bool              `json:"replayed,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// handleScan validates one scanned code. Matched codes answer 200 with the
// recorded reading, unknown codes 404, blank codes 400.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	req, submissionID, err := s.decodeScanRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.ValidateSubmission(r.Context(), submissionID, req.EAN)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ScanResult(res).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render scan result", "error", err)
		}
		return
	}

	if !res.Matched() {
		writeJSON(w, r, http.StatusNotFound, scanResponse{
			Success: false,
			Status:  res.Status,
			EAN:     res.EAN,
			Message: "EAN no existe en el maestro",
		})
		return
	}

	writeJSON(w, r, http.StatusOK, scanResponse{
		Success:  true,
		Status:   res.Status,
		EAN:      res.EAN,
		Reading:  res.Reading,
		Replayed: res.Replayed,
	})
}

// decodeScanRequest reads the body and parses the optional submission id.
// A missing id yields uuid.Nil. Upper and lower case hex are both accepted.
func (s *Server) decodeScanRequest(w http.ResponseWriter, r *http.Request) (scanRequest, uuid.UUID, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanBody)

	var req scanRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, uuid.Nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, uuid.Nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
		req.EAN = r.PostForm.Get("ean")
		req.SubmissionID = r.PostForm.Get("submission_id")
	}

	if err := s.validate.Struct(req); err != nil {
		return req, uuid.Nil, fmt.Errorf("%w: ean longer than 64 characters", errInvalidRequest)
	}

	id := strings.TrimSpace(req.SubmissionID)
	if id == "" {
		return req, uuid.Nil, nil
	}
	submissionID, err := uuid.Parse(id)
	if err != nil {
		return req, uuid.Nil, fmt.Errorf("%w: submission_id must be a uuid", errInvalidRequest)
	}
	return req, submissionID, nil
}
