package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/JonMunkholm/scanmaster/internal/database"
	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/JonMunkholm/scanmaster/internal/web/templates"
)

// importFormField is the multipart field holding the catalog file.
const importFormField = "archivo"

// healthTimeout bounds the database ping behind /healthz.
const healthTimeout = 2 * time.Second

// abortedImport is the body of an import that stopped part way. The report
// covers the rows handled before the failure.
type abortedImport struct {
	*core.ImportReport
	Error ErrorResponse `json:"error"`
}

// handleImport reconciles an uploaded xlsx or csv file into the catalog.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		if isTooLarge(err) {
			s.respondError(w, r, fmt.Errorf("upload: %w", err))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(importFormField)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer file.Close()

	logger := logging.WithFields(r.Context(), "file", header.Filename, "size", header.Size)
	logger.Info("catalog upload received")

	report, err := s.service.ImportFile(r.Context(), header.Filename, file)
	if err != nil && report == nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		status := http.StatusOK
		if err != nil {
			status = statusFor(err)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if rerr := templates.ImportReport(report).Render(r.Context(), w); rerr != nil {
			logger.Error("render import report", "error", rerr)
		}
		return
	}

	if err != nil {
		status := statusFor(err)
		logger.Warn("import aborted", "rows", report.TotalRows, "status", status, "error", err)
		writeJSON(w, r, status, abortedImport{
			ImportReport: report,
			Error:        newErrorResponse(core.MapError(err)),
		})
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

// isTooLarge reports whether err came from the upload size limit. The
// multipart reader does not always wrap it, so the message is checked too.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || core.MapError(err).Code == "IMP006"
}

// handleArticleCount reports the catalog size.
func (s *Server) handleArticleCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.CountArticles(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int64{"count": n})
}

type healthResponse struct {
	Status  string                   `json:"status"`
	Pool    database.PoolStats       `json:"pool"`
	Imports core.ImportLimiterStatus `json:"imports"`
	Error   string                   `json:"error,omitempty"`
}

// handleHealth pings the database. It answers 503 while the database is
// unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:  "ok",
		Pool:    s.health.Stats(),
		Imports: s.service.ImportLimiterStatus(),
	}

	if err := s.health.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		resp.Status = "unavailable"
		resp.Error = core.MapError(err).Message
		writeJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}
