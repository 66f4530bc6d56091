package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

// fileSummary is the API view of a loaded file.
type fileSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Size           int64     `json:"size"`
	Encoding       string    `json:"encoding"`
	LoadedAt       time.Time `json:"loadedAt"`
	Rows           int       `json:"rows"`
	Columns        []string  `json:"columns"`
	NumericColumns []string  `json:"numericColumns"`
}

func summarize(f core.File) fileSummary {
	return fileSummary{
		ID:             f.ID,
		Name:           f.Name,
		Size:           f.Size,
		Encoding:       f.Encoding,
		LoadedAt:       f.LoadedAt,
		Rows:           f.Table.NumRows(),
		Columns:        f.Table.Names(),
		NumericColumns: f.Table.NumericColumns(),
	}
}

// fileDetail adds the preview rows and column stats.
type fileDetail struct {
	fileSummary
	Preview [][]string          `json:"preview"`
	Stats   []table.ColumnStats `json:"stats"`
}

// uploadResult reports one file of an API upload.
type uploadResult struct {
	Name   string         `json:"name"`
	OK     bool           `json:"ok"`
	File   *fileSummary   `json:"file,omitempty"`
	Notice string         `json:"notice,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// handleAPIListFiles returns every file of the session.
func (s *Server) handleAPIListFiles(w http.ResponseWriter, r *http.Request) {
	files := s.service.Files(sessionID(r))
	out := make([]fileSummary, len(files))
	for i, f := range files {
		out[i] = summarize(f)
	}
	writeJSON(w, map[string]any{
		"sessionId": sessionID(r),
		"files":     out,
	})
}

// handleAPIUpload loads the multipart "files" field and reports per file.
func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	outcomes := s.service.UploadFiles(WithRequestMetadata(r.Context(), r), sessionID(r), uploads)
	results := make([]uploadResult, len(outcomes))
	for i, o := range outcomes {
		res := uploadResult{Name: o.Name, OK: o.OK(), Notice: o.Notice}
		if o.OK() {
			sum := summarize(*o.File)
			res.File = &sum
		} else {
			msg := core.MapError(o.Err)
			res.Error = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
		}
		results[i] = res
	}

	writeJSON(w, map[string]any{
		"sessionId": sessionID(r),
		"results":   results,
	})
}

// handleAPIFile returns one file with its preview and stats.
func (s *Server) handleAPIFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.service.File(sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, s.detail(f))
}

func (s *Server) detail(f core.File) fileDetail {
	return fileDetail{
		fileSummary: summarize(f),
		Preview:     f.Table.Head(s.cfg.Preview.Rows).Records(),
		Stats:       f.Table.Stats(),
	}
}

// handleAPIRemoveFile deletes a file.
func (s *Server) handleAPIRemoveFile(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveFile(sessionID(r), chi.URLParam(r, "fileID")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAPIDropDuplicates removes repeated rows.
func (s *Server) handleAPIDropDuplicates(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	f, removed, err := s.service.DropDuplicates(sessionID(r), fileID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.WithFields(r.Context(), "file_id", fileID).Info("duplicates removed", "removed", removed)

	writeJSON(w, map[string]any{
		"file":    s.detail(f),
		"removed": removed,
		"message": fmt.Sprintf("Duplicates removed: %d", removed),
	})
}

// handleAPIFillMissing fills numeric gaps with column means.
func (s *Server) handleAPIFillMissing(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	f, filled, err := s.service.FillMissing(sessionID(r), fileID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.WithFields(r.Context(), "file_id", fileID).Info("missing values filled", "filled", filled)

	writeJSON(w, map[string]any{
		"file":    s.detail(f),
		"filled":  filled,
		"message": "Missing values have been filled",
	})
}

// selectRequest is the body of a column selection.
type selectRequest struct {
	Columns []string `json:"columns"`
}

// handleAPISelectColumns keeps the requested columns. Accepts a JSON body
// or form values.
func (s *Server) handleAPISelectColumns(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, r, fmt.Errorf("decode columns: %w", err), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		req.Columns = r.PostForm["columns"]
	}

	f, err := s.service.SelectColumns(sessionID(r), chi.URLParam(r, "fileID"), req.Columns)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, s.detail(f))
}

// handleAPIChart returns the scaled bar, line and area series.
func (s *Server) handleAPIChart(w http.ResponseWriter, r *http.Request) {
	set, err := s.service.Chart(sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, set)
}
