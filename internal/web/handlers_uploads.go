package web

import (
	"encoding/json"
	"net/http"

	"github.com/excelops/sheetops/internal/core"
)

// handleUpload stages one file for later job submissions. The response
// carries the staged id plus, for workbooks, the sheet list so the UI
// can offer sheet selection before submitting.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	staged, err := s.service.SaveUpload(r.Context(), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, staged)
}

// handleInspect runs the schema inspector over staged uploads without
// queueing a job. The UI calls it as a pre-flight check before combines.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req core.InspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := s.service.InspectFiles(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, report)
}
