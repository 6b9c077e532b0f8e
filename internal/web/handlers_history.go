package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/JonMunkholm/scanmaster/internal/logging"
)

type readingsResponse struct {
	Readings []core.ScanReading `json:"readings"`
	Count    int                `json:"count"`
}

// handleReadings lists recent readings, most recent first by default.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r, s.loc)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	readings, err := s.service.RecentReadings(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, readingsResponse{Readings: readings, Count: len(readings)})
}

// handleExport streams the scan history as an xlsx or csv attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r, s.loc)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := core.ExportFileName(format, s.service.Now().In(s.loc))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	tw := &trackingWriter{w: w}
	n, err := s.service.Export(r.Context(), tw, core.ExportRequest{Filter: filter, Format: format})
	if err != nil {
		if !tw.wrote {
			w.Header().Del("Content-Disposition")
			s.respondError(w, r, err)
			return
		}
		// Headers are sent; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("export interrupted", "rows", n, "error", err)
	}
}

// trackingWriter records whether any byte reached the response.
type trackingWriter struct {
	w     http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		t.wrote = true
	}
	return t.w.Write(p)
}
