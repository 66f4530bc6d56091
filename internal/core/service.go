package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/JonMunkholm/datasweeper/internal/chart"
	"github.com/JonMunkholm/datasweeper/internal/export"
	"github.com/JonMunkholm/datasweeper/internal/loader"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

// Service owns the per-session workspaces and every operation on them.
type Service struct {
	cfg     Config
	limiter *LoadLimiter
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*workspace
}

// workspace is one browser session's uploaded files.
type workspace struct {
	files    map[string]*File
	lastSeen time.Time
}

// NewService creates a Service. Zero fields in cfg take their defaults.
func NewService(cfg Config) *Service {
	def := DefaultConfig()
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = def.MaxConcurrentLoads
	}
	if cfg.LoadWait <= 0 {
		cfg.LoadWait = def.LoadWait
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.ChartWidth <= 0 {
		cfg.ChartWidth = def.ChartWidth
	}
	if cfg.ChartHeight <= 0 {
		cfg.ChartHeight = def.ChartHeight
	}

	return &Service{
		cfg:      cfg,
		limiter:  NewLoadLimiter(cfg.MaxConcurrentLoads, cfg.LoadWait),
		now:      time.Now,
		sessions: make(map[string]*workspace),
	}
}

// NewSessionID returns a fresh session identifier.
func (s *Service) NewSessionID() string {
	return uuid.NewString()
}

// Limiter exposes the load limiter for shutdown draining.
func (s *Service) Limiter() *LoadLimiter {
	return s.limiter
}

// Config returns the effective service limits.
func (s *Service) Config() Config {
	return s.cfg
}

// UploadFiles loads each upload into the session's workspace. Files are
// processed independently: a failure on one never stops the others. A file
// with the same name as one already in the workspace replaces it and keeps
// its ID.
func (s *Service) UploadFiles(ctx context.Context, sessionID string, uploads []Upload) []FileOutcome {
	outcomes := make([]FileOutcome, len(uploads))
	for i, up := range uploads {
		if s.cfg.MaxFiles > 0 && i >= s.cfg.MaxFiles {
			outcomes[i] = FileOutcome{
				Name: up.Name,
				Err:  fmt.Errorf("%w: limit is %d", ErrTooManyFiles, s.cfg.MaxFiles),
			}
			continue
		}
		outcomes[i] = s.uploadOne(ctx, sessionID, up)
	}
	return outcomes
}

func (s *Service) uploadOne(ctx context.Context, sessionID string, up Upload) FileOutcome {
	out := FileOutcome{Name: up.Name}
	logger := logging.WithFields(ctx,
		"session_id", sessionID,
		"client_ip", GetIPAddressFromContext(ctx),
		"filename", up.Name,
		"size", len(up.Data),
	)

	if !loader.Supported(up.Name) {
		out.Err = fmt.Errorf("load %s: %w", up.Name, loader.ErrUnsupportedFormat)
		return out
	}
	if s.cfg.MaxFileSize > 0 && int64(len(up.Data)) > s.cfg.MaxFileSize {
		out.Err = fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
			humanize.Bytes(uint64(len(up.Data))), humanize.Bytes(uint64(s.cfg.MaxFileSize)))
		return out
	}

	var res *loader.Result
	start := s.now()
	err := s.limiter.Do(ctx, func() error {
		var err error
		res, err = loader.LoadFile(up.Name, up.Data)
		return err
	})
	if err != nil {
		logger.Warn("load failed", "error", err)
		out.Err = fmt.Errorf("load %s: %w", up.Name, err)
		return out
	}

	f := &File{
		Name:     up.Name,
		Size:     int64(len(up.Data)),
		Encoding: res.Encoding,
		LoadedAt: s.now(),
		Table:    res.Table,
	}
	s.store(sessionID, f)

	logger.Info("file loaded",
		"file_id", f.ID,
		"encoding", f.Encoding,
		"rows", f.Table.NumRows(),
		"columns", f.Table.NumCols(),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)

	snapshot := *f
	out.File = &snapshot
	if res.Fallback() {
		out.Notice = fmt.Sprintf("Successfully read %s with encoding: %s", up.Name, res.Encoding)
	}
	return out
}

// store adds f to the session's workspace, replacing a file of the same
// name. f.ID is assigned here.
func (s *Service) store(sessionID string, f *File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sessions[sessionID]
	if !ok {
		ws = &workspace{files: make(map[string]*File)}
		s.sessions[sessionID] = ws
	}
	ws.lastSeen = s.now()

	for id, existing := range ws.files {
		if existing.Name == f.Name {
			f.ID = id
			ws.files[id] = f
			return
		}
	}
	f.ID = uuid.NewString()
	ws.files[f.ID] = f
}

// Files lists a session's files in upload order. An unknown session has no
// files.
func (s *Service) Files(sessionID string) []File {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	ws.lastSeen = s.now()

	files := make([]File, 0, len(ws.files))
	for _, f := range ws.files {
		files = append(files, *f)
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].LoadedAt.Equal(files[j].LoadedAt) {
			return files[i].Name < files[j].Name
		}
		return files[i].LoadedAt.Before(files[j].LoadedAt)
	})
	return files
}

// File returns one file of a session.
func (s *Service) File(sessionID, fileID string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.lookup(sessionID, fileID)
	if err != nil {
		return File{}, err
	}
	return *f, nil
}

// lookup finds a file and marks the session as active. Callers hold s.mu.
func (s *Service) lookup(sessionID, fileID string) (*File, error) {
	ws, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	ws.lastSeen = s.now()

	f, ok := ws.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	return f, nil
}

// RemoveFile drops a file from the workspace.
func (s *Service) RemoveFile(sessionID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(sessionID, fileID); err != nil {
		return err
	}
	delete(s.sessions[sessionID].files, fileID)
	return nil
}

// update replaces a file's table with the result of op.
func (s *Service) update(sessionID, fileID string, op func(*table.Table) (*table.Table, error)) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.lookup(sessionID, fileID)
	if err != nil {
		return File{}, err
	}

	next, err := op(f.Table)
	if err != nil {
		return File{}, err
	}

	updated := *f
	updated.Table = next
	s.sessions[sessionID].files[fileID] = &updated
	return updated, nil
}

// DropDuplicates removes repeated rows and returns how many were removed.
func (s *Service) DropDuplicates(sessionID, fileID string) (File, int, error) {
	var removed int
	f, err := s.update(sessionID, fileID, func(t *table.Table) (*table.Table, error) {
		var next *table.Table
		next, removed = t.DropDuplicates()
		return next, nil
	})
	return f, removed, err
}

// FillMissing fills numeric gaps with column means and returns how many
// cells were filled.
func (s *Service) FillMissing(sessionID, fileID string) (File, int, error) {
	var filled int
	f, err := s.update(sessionID, fileID, func(t *table.Table) (*table.Table, error) {
		var next *table.Table
		next, filled = t.FillMissing()
		return next, nil
	})
	return f, filled, err
}

// SelectColumns keeps only the named columns, in the given order.
func (s *Service) SelectColumns(sessionID, fileID string, names []string) (File, error) {
	return s.update(sessionID, fileID, func(t *table.Table) (*table.Table, error) {
		next, err := t.Select(names...)
		if err != nil {
			return nil, fmt.Errorf("select columns: %w", err)
		}
		return next, nil
	})
}

// Export encodes a file's current table.
func (s *Service) Export(sessionID, fileID string, format export.Format) (*export.File, error) {
	f, err := s.File(sessionID, fileID)
	if err != nil {
		return nil, err
	}
	return export.Export(f.Table, format, f.Name)
}

// Chart builds the visualization series for a file.
func (s *Service) Chart(sessionID, fileID string) (*chart.Set, error) {
	f, err := s.File(sessionID, fileID)
	if err != nil {
		return nil, err
	}
	return chart.Build(f.Table, s.cfg.ChartWidth, s.cfg.ChartHeight)
}

// Status reports session and load counts.
func (s *Service) Status() Status {
	s.mu.RLock()
	st := Status{Sessions: len(s.sessions)}
	for _, ws := range s.sessions {
		st.Files += len(ws.files)
	}
	s.mu.RUnlock()

	st.Loads = s.limiter.Status()
	return st
}
