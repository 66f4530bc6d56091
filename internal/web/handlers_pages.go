package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/web/templates"
)

// handleDashboard renders the upload form and every file of the session.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, nil)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, alerts []templates.Alert) {
	params := templates.DashboardParams{
		Alerts:      alerts,
		Panels:      s.panels(sessionID(r)),
		MaxFiles:    s.cfg.Upload.MaxFiles,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	}
	render(w, r, templates.Dashboard(params))
}

// panels builds a panel for each file of a session.
func (s *Server) panels(session string) []templates.FilePanelParams {
	files := s.service.Files(session)
	panels := make([]templates.FilePanelParams, len(files))
	for i, f := range files {
		panels[i] = s.panel(session, f, nil)
	}
	return panels
}

func (s *Server) panel(session string, f core.File, alerts []templates.Alert) templates.FilePanelParams {
	params := templates.FilePanelParams{
		File:        f,
		PreviewRows: s.cfg.Preview.Rows,
		Alerts:      alerts,
	}
	set, err := s.service.Chart(session, f.ID)
	if err != nil {
		params.ChartMessage = core.MapError(err).Message
	} else {
		params.Charts = set
	}
	return params
}

// handleFilePage renders one file. HTMX requests get the panel only.
func (s *Server) handleFilePage(w http.ResponseWriter, r *http.Request) {
	f, err := s.service.File(sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.renderFile(w, r, f, nil)
}

func (s *Server) renderFile(w http.ResponseWriter, r *http.Request, f core.File, alerts []templates.Alert) {
	params := s.panel(sessionID(r), f, alerts)
	if isHTMX(r) {
		render(w, r, templates.FilePanel(params))
		return
	}
	render(w, r, templates.FilePage(params))
}

// handleDropDuplicates removes repeated rows from a file.
func (s *Server) handleDropDuplicates(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	f, removed, err := s.service.DropDuplicates(sessionID(r), fileID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "file_id", fileID, "filename", f.Name).
		Info("duplicates removed", "removed", removed)

	s.renderFile(w, r, f, []templates.Alert{{
		Kind:    templates.AlertSuccess,
		Message: fmt.Sprintf("Duplicates removed: %d", removed),
	}})
}

// handleFillMissing fills numeric gaps with column means.
func (s *Server) handleFillMissing(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	f, filled, err := s.service.FillMissing(sessionID(r), fileID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "file_id", fileID, "filename", f.Name).
		Info("missing values filled", "filled", filled)

	s.renderFile(w, r, f, []templates.Alert{{
		Kind:    templates.AlertSuccess,
		Message: fmt.Sprintf("Missing values have been filled: %d", filled),
	}})
}

// handleSelectColumns keeps the checked columns.
func (s *Server) handleSelectColumns(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	f, err := s.service.SelectColumns(sessionID(r), chi.URLParam(r, "fileID"), r.PostForm["columns"])
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	s.renderFile(w, r, f, []templates.Alert{{
		Kind:    templates.AlertSuccess,
		Message: fmt.Sprintf("Columns selected: %d", f.Table.NumCols()),
	}})
}

// handleRemoveFile drops a file and returns to the dashboard.
func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveFile(sessionID(r), chi.URLParam(r, "fileID")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
