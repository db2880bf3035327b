package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/catalog-import/internal/core"
	"github.com/JonMunkholm/catalog-import/internal/web/templates"
)

// upload is a validated multipart import request.
type upload struct {
	file      multipart.File
	name      string
	overrides []core.MappingEntry
}

// readUpload bounds the body by IMPORT_MAX_FILE_SIZE and extracts the file
// and the optional mapping overrides. The caller closes u.file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingFile) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}

	u := &upload{file: file, name: header.Filename}
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &u.overrides); err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: %w", errInvalidMapping, err)
		}
	}
	return u, nil
}

// requestContext tags the request context with the client for import logs.
func requestContext(r *http.Request) *http.Request {
	return r.WithContext(core.ContextWithClient(r.Context(), clientIP(r), r.UserAgent()))
}

// clientIP is the host part of RemoteAddr after TrustedRealIP ran.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.service.Categories(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// handleListTargets lists the fields a column can be mapped to.
func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	names := make([]string, len(core.AllTargets))
	for i, t := range core.AllTargets {
		names[i] = t.String()
	}
	writeJSON(w, http.StatusOK, names)
}

// handleImportStatus reports import slot usage for monitoring.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleAnalyze parses the upload and returns the proposed mapping.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	u, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer u.file.Close()

	analysis, err := s.service.Analyze(r.Context(), u.name, u.file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.AnalysisTable(analysis).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// handlePreview runs the pipeline without writing to the catalog.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	u, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer u.file.Close()

	res, err := s.service.Preview(r.Context(), u.name, u.file, u.overrides)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.ImportSummary(&res.Result, true).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleImport runs the pipeline and commits the accepted rows.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r = requestContext(r)
	u, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer u.file.Close()

	res, err := s.service.Import(r.Context(), u.name, u.file, u.overrides)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.ImportSummary(res, false).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
