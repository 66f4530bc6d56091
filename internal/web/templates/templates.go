// Package templates renders the HTML views of the web UI as templ components.
//
// The .templ files are the source; run `templ generate` after editing them.
package templates

import (
	"github.com/JonMunkholm/datasweeper/internal/chart"
	"github.com/JonMunkholm/datasweeper/internal/core"
)

const (
	// FlashID is the element HTMX error fragments are swapped into.
	FlashID = "flash"

	// WorkspaceID wraps the upload alerts and file panels on the dashboard.
	WorkspaceID = "workspace"

	// HTMXOrigin serves the htmx script; the CSP allows scripts from it.
	HTMXOrigin = "https://unpkg.com"

	// HTMXSrc is the pinned htmx build loaded by every page.
	HTMXSrc = HTMXOrigin + "/htmx.org@2.0.4/dist/htmx.min.js"
)

// htmxConfig swaps error responses too, so alert fragments returned with a
// 4xx or 5xx status reach the page.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"...","swap":true}]}`

// AlertKind selects the alert colour.
type AlertKind string

const (
	AlertInfo    AlertKind = "info"
	AlertSuccess AlertKind = "success"
	AlertError   AlertKind = "error"
)

// Alert is one message shown above the file list.
type Alert struct {
	Kind    AlertKind
	Title   string // Usually the filename the alert is about
	Message string
	Action  string
	Code    string
}

// DashboardParams is the content of the home page.
type DashboardParams struct {
	Alerts      []Alert
	Panels      []FilePanelParams
	MaxFiles    int
	MaxFileSize int64
}

// FilePanelParams is everything shown for one uploaded file.
type FilePanelParams struct {
	File         core.File
	PreviewRows  int
	Charts       *chart.Set
	ChartMessage string // Shown instead of charts when none can be drawn
	Alerts       []Alert
}
