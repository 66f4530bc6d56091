// Package core provides the business logic behind the data sweeper.
//
// The package holds everything between the transport layer and the table
// packages, and can be used by web handlers, the CLI or tests without
// modification.
//
// # Workspaces
//
// Each browser session owns a workspace of uploaded files keyed by a
// generated ID. Workspaces live in memory only and are dropped by the
// session sweeper after [Config.SessionTTL] of inactivity:
//
//	svc := core.NewService(core.DefaultConfig())
//	go svc.StartSessionSweeper(ctx, core.DefaultSweepInterval)
//
// # Uploads
//
// [Service.UploadFiles] loads each file independently through the loader
// and returns one [FileOutcome] per file. A file that needed a fallback
// encoding carries a notice naming the encoding. Loads run under a
// server-wide [LoadLimiter].
//
// # Operations
//
// Cleaning operations ([Service.DropDuplicates], [Service.FillMissing],
// [Service.SelectColumns]) replace the stored table with a new value.
// Tables are never mutated in place, so a [File] returned to a caller stays
// valid while other requests modify the workspace.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (size, format, encoding, empty)
//   - PARSE001: Malformed file structure
//   - SESS001-SESS002: Expired sessions and removed files
//   - COL001-COL002: Column selection and charting
//   - EXP001: Export format
//   - UPL002-UPL005: Load capacity, cancellation and timeouts
package core
