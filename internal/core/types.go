package core

import (
	"errors"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

var (
	// ErrNoFile is returned when an upload carries no files.
	ErrNoFile = errors.New("no file provided")

	// ErrTooManyFiles is returned for files beyond the per-upload limit.
	ErrTooManyFiles = errors.New("too many files in one upload")

	// ErrFileTooLarge is returned for files over the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrSessionNotFound is returned when a session has no workspace,
	// usually because it expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrFileNotFound is returned for an unknown file ID in a workspace.
	ErrFileNotFound = errors.New("file not found")
)

// Config holds service limits.
type Config struct {
	MaxFileSize        int64         // Per-file byte limit; zero disables the check
	MaxFiles           int           // Files accepted per upload; zero disables the check
	MaxConcurrentLoads int           // Parallel loads server-wide
	LoadWait           time.Duration // How long a load waits for a slot
	SessionTTL         time.Duration // Idle time before a workspace is dropped
	ChartWidth         int
	ChartHeight        int
}

// DefaultConfig returns the limits used when no configuration is supplied.
func DefaultConfig() Config {
	return Config{
		MaxFileSize:        50 << 20,
		MaxFiles:           10,
		MaxConcurrentLoads: DefaultMaxConcurrentLoads,
		LoadWait:           DefaultLoadWait,
		SessionTTL:         time.Hour,
		ChartWidth:         640,
		ChartHeight:        320,
	}
}

// Upload is one file received from a client.
type Upload struct {
	Name string
	Data []byte
}

// File is a loaded file in a workspace. Table is the current value after
// any cleaning operations; tables are immutable, so a File is a snapshot.
type File struct {
	ID       string
	Name     string
	Size     int64
	Encoding string // Empty for spreadsheets
	LoadedAt time.Time
	Table    *table.Table
}

// FileOutcome is the result of loading one upload. Exactly one of File and
// Err is set.
type FileOutcome struct {
	Name   string
	File   *File
	Err    error
	Notice string // Set when a fallback encoding was needed
}

// OK reports whether the file loaded.
func (o FileOutcome) OK() bool {
	return o.Err == nil
}

// Status is a snapshot of service load for health reporting.
type Status struct {
	Sessions int               `json:"sessions"`
	Files    int               `json:"files"`
	Loads    LoadLimiterStatus `json:"loads"`
}
