package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/export"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/web/templates"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// readUploads reads every file of the multipart "files" field.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]core.Upload, error) {
	// Allow a full batch plus form overhead; per-file limits are enforced by the service.
	maxBody := s.cfg.Upload.MaxFileSize*int64(s.cfg.Upload.MaxFiles) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		// Single-file clients commonly use "file".
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return nil, core.ErrNoFile
	}

	uploads := make([]core.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", h.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", h.Filename, err)
		}
		uploads = append(uploads, core.Upload{Name: h.Filename, Data: data})
	}
	return uploads, nil
}

// handleUpload loads the uploaded files and shows one alert per file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	outcomes := s.service.UploadFiles(ctx, sessionID(r), uploads)

	alerts := make([]templates.Alert, 0, len(outcomes))
	loaded := 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			alerts = append(alerts, errorAlert(o.Name, o.Err))
		case o.Notice != "":
			loaded++
			alerts = append(alerts, templates.Alert{Kind: templates.AlertInfo, Title: o.Name, Message: o.Notice})
		default:
			loaded++
			alerts = append(alerts, templates.Alert{
				Kind:    templates.AlertSuccess,
				Title:   o.Name,
				Message: fmt.Sprintf("Loaded %d rows and %d columns", o.File.Table.NumRows(), o.File.Table.NumCols()),
			})
		}
	}

	logging.FromContext(r.Context()).Info("upload processed",
		"files", len(outcomes),
		"loaded", loaded,
	)

	if isHTMX(r) {
		render(w, r, templates.UploadResults(alerts, s.panels(sessionID(r))))
		return
	}
	s.renderDashboard(w, r, alerts)
}

// handleExport downloads a file converted to the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = "csv"
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	fileID := chi.URLParam(r, "fileID")
	file, err := s.service.Export(sessionID(r), fileID, format)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "file_id", fileID).
		Info("file exported", "format", format, "filename", file.Name, "bytes", len(file.Data))

	w.Header().Set("Content-Type", file.MIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// render writes an HTML component, logging failures once headers are sent.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}
