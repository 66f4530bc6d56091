package web

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datasweeper/internal/config"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/chart"
	"github.com/JonMunkholm/datasweeper/internal/export"
	"github.com/JonMunkholm/datasweeper/internal/web/templates"
)

const testSession = "6f1c2f7e-3b7a-4f43-9a59-0c3f4a7d2b11"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxFiles:      3,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Session: config.SessionConfig{
			TTL:        time.Hour,
			CookieName: "sweeper_session",
		},
		Preview: config.PreviewConfig{Rows: 5, ChartWidth: 400, ChartHeight: 200},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc := core.NewService(core.Config{
		MaxFileSize:        cfg.Upload.MaxFileSize,
		MaxFiles:           cfg.Upload.MaxFiles,
		MaxConcurrentLoads: cfg.Upload.MaxConcurrent,
		LoadWait:           cfg.Upload.MaxWaitTime,
		SessionTTL:         cfg.Session.TTL,
		ChartWidth:         cfg.Preview.ChartWidth,
		ChartHeight:        cfg.Preview.ChartHeight,
	})
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(t.Context()) })
	return s
}

type upload struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, field string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func apiRequest(method, target string, body *bytes.Buffer, contentType string) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("X-Session-ID", testSession)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

type apiUpload struct {
	SessionID string `json:"sessionId"`
	Results   []struct {
		Name   string         `json:"name"`
		OK     bool           `json:"ok"`
		Notice string         `json:"notice"`
		File   *fileSummary   `json:"file"`
		Error  *ErrorResponse `json:"error"`
	} `json:"results"`
}

func uploadAPI(t *testing.T, s *Server, files ...upload) apiUpload {
	t.Helper()
	body, ct := multipartBody(t, "files", files...)
	rec := do(s, apiRequest(http.MethodPost, "/api/files", body, ct))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out apiUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestDashboard_IssuesSessionCookie(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No files uploaded yet")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sweeper_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, rec.Header().Get("X-Session-ID"))
}

func TestDashboard_KeepsValidCookie(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sweeper_session", Value: testSession})
	rec := do(s, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, testSession, rec.Header().Get("X-Session-ID"))
}

func TestUpload_FormShowsOutcomePerFile(t *testing.T) {
	s := newTestServer(t, testConfig())

	body, ct := multipartBody(t, "files",
		upload{"sales.csv", []byte("region,amount\nnorth,10\nsouth,20\n")},
		upload{"notes.txt", []byte("hello")},
	)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req.AddCookie(&http.Cookie{Name: "sweeper_session", Value: testSession})
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "Loaded 2 rows and 2 columns")
	assert.Contains(t, html, "Only CSV and XLSX files can be loaded")
	assert.Contains(t, html, "FILE002")
	assert.Contains(t, html, "sales.csv")
	assert.Contains(t, html, "<svg")
}

func TestUpload_NoFiles(t *testing.T) {
	s := newTestServer(t, testConfig())

	body, ct := multipartBody(t, "other")
	rec := do(s, apiRequest(http.MethodPost, "/api/files", body, ct))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE004")
}

func TestUpload_HTMXGetsPartial(t *testing.T) {
	s := newTestServer(t, testConfig())

	body, ct := multipartBody(t, "files", upload{"a.csv", []byte("v\n1\n")})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("HX-Request", "true")
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), "a.csv")
}

func TestDashboard_LoadsHTMX(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `<script src="`+templates.HTMXSrc+`">`)
	assert.Contains(t, html, `href="/static/app.css"`)
	assert.Contains(t, html, `hx-post="/upload"`)
	assert.Contains(t, html, `id="`+templates.FlashID+`"`)
	assert.Contains(t, html, `id="`+templates.WorkspaceID+`"`)

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' "+templates.HTMXOrigin)
}

func TestStatic_ServesStylesheet(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".alert-error")
}

func TestFileForms_HTMX(t *testing.T) {
	s := newTestServer(t, testConfig())
	id := uploadAPI(t, s, upload{"dup.csv", []byte("n\n1\n1\n")}).Results[0].File.ID

	htmx := func(path, form string) *httptest.ResponseRecorder {
		req := apiRequest(http.MethodPost, path, bytes.NewBufferString(form), "application/x-www-form-urlencoded")
		req.Header.Set("HX-Request", "true")
		return do(s, req)
	}

	t.Run("panel replaced", func(t *testing.T) {
		rec := htmx("/file/"+id+"/dedupe", "")

		require.Equal(t, http.StatusOK, rec.Code)
		html := rec.Body.String()
		assert.True(t, strings.HasPrefix(html, `<section class="file-panel" id="file-`+id+`"`), html)
		assert.NotContains(t, html, "<html")
		assert.Contains(t, html, "Duplicates removed: 1")
		assert.Contains(t, html, `hx-target="#file-`+id+`"`)
	})

	t.Run("errors go to the flash area", func(t *testing.T) {
		rec := htmx("/file/missing/dedupe", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "#"+templates.FlashID, rec.Header().Get("HX-Retarget"))
		assert.Equal(t, "innerHTML", rec.Header().Get("HX-Reswap"))
		assert.Contains(t, rec.Body.String(), "SESS002")
	})

	t.Run("remove redirects home", func(t *testing.T) {
		rec := htmx("/file/"+id+"/delete", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))
	})
}

func TestAPI_ChartExtremeValues(t *testing.T) {
	s := newTestServer(t, testConfig())
	id := uploadAPI(t, s, upload{"big.csv", []byte("v\n-1e308\n1e308\n")}).Results[0].File.ID

	rec := do(s, apiRequest(http.MethodGet, "/api/files/"+id+"/chart", nil, ""))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var set chart.Set
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Line.Series, 1)
	assert.Len(t, set.Line.Series[0].Points, 2)

	rec = do(s, apiRequest(http.MethodGet, "/api/files/"+id, nil, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()), rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"mean":0`)
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()

	writeJSON(rec, map[string]float64{"v": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "ERR000")
}

func TestAPI_FallbackEncodingNotice(t *testing.T) {
	s := newTestServer(t, testConfig())

	out := uploadAPI(t, s, upload{"cafe.csv", []byte("name,price\ncaf\xe9,3\n")})

	require.Len(t, out.Results, 1)
	res := out.Results[0]
	require.True(t, res.OK)
	assert.Equal(t, "Successfully read cafe.csv with encoding: latin-1", res.Notice)
	assert.Equal(t, "latin-1", res.File.Encoding)
	assert.Equal(t, testSession, out.SessionID)
}

func TestAPI_TooManyFiles(t *testing.T) {
	s := newTestServer(t, testConfig())

	files := make([]upload, 4)
	for i := range files {
		files[i] = upload{name: string(rune('a'+i)) + ".csv", data: []byte("v\n1\n")}
	}
	out := uploadAPI(t, s, files...)

	require.Len(t, out.Results, 4)
	for _, r := range out.Results[:3] {
		assert.True(t, r.OK, r.Name)
	}
	require.NotNil(t, out.Results[3].Error)
	assert.Equal(t, "FILE006", out.Results[3].Error.Code)
}

func TestAPI_CleaningFlow(t *testing.T) {
	s := newTestServer(t, testConfig())

	out := uploadAPI(t, s, upload{"data.csv", []byte("a,b\n1,x\n1,x\n,y\n3,z\n")})
	require.True(t, out.Results[0].OK)
	id := out.Results[0].File.ID

	var dedupe struct {
		Removed int        `json:"removed"`
		File    fileDetail `json:"file"`
	}
	rec := do(s, apiRequest(http.MethodPost, "/api/files/"+id+"/dedupe", nil, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dedupe))
	assert.Equal(t, 1, dedupe.Removed)
	assert.Equal(t, 3, dedupe.File.Rows)

	var fill struct {
		Filled int        `json:"filled"`
		File   fileDetail `json:"file"`
	}
	rec = do(s, apiRequest(http.MethodPost, "/api/files/"+id+"/fill-missing", nil, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fill))
	assert.Equal(t, 1, fill.Filled)
	assert.Equal(t, []string{"2", "y"}, fill.File.Preview[2])

	rec = do(s, apiRequest(http.MethodGet, "/api/files/"+id+"/chart", nil, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bar"`)

	rec = do(s, apiRequest(http.MethodPost, "/api/files/"+id+"/columns",
		bytes.NewBufferString(`{"columns":["b"]}`), "application/json"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail fileDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, []string{"b"}, detail.Columns)
	assert.Empty(t, detail.NumericColumns)

	rec = do(s, apiRequest(http.MethodGet, "/api/files/"+id+"/chart", nil, ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "COL002")

	rec = do(s, apiRequest(http.MethodPost, "/api/files/"+id+"/columns",
		bytes.NewBufferString(`{"columns":["zip"]}`), "application/json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "COL001")

	rec = do(s, apiRequest(http.MethodDelete, "/api/files/"+id, nil, ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(s, apiRequest(http.MethodGet, "/api/files/"+id, nil, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESS002")
}

func TestAPI_UnknownSession(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(s, apiRequest(http.MethodGet, "/api/files/nope", nil, ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SESS001", resp.Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, testConfig())
	id := uploadAPI(t, s, upload{"report.csv", []byte("x,y\n1,a\n2,b\n")}).Results[0].File.ID

	t.Run("csv", func(t *testing.T) {
		rec := do(s, apiRequest(http.MethodGet, "/file/"+id+"/export?format=csv", nil, ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, export.MIMECSV, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=report.csv`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "x,y\n1,a\n2,b\n", rec.Body.String())
	})

	t.Run("excel", func(t *testing.T) {
		rec := do(s, apiRequest(http.MethodGet, "/api/files/"+id+"/export?format=excel", nil, ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, export.MIMEXLSX, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(export.SheetName)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, rows[0])
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := do(s, apiRequest(http.MethodGet, "/api/files/"+id+"/export?format=pdf", nil, ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "EXP001")
	})
}

func TestFileForms(t *testing.T) {
	s := newTestServer(t, testConfig())
	id := uploadAPI(t, s, upload{"dup.csv", []byte("n\n1\n1\n")}).Results[0].File.ID

	post := func(path string, form string) *httptest.ResponseRecorder {
		req := apiRequest(http.MethodPost, path, bytes.NewBufferString(form), "application/x-www-form-urlencoded")
		return do(s, req)
	}

	rec := post("/file/"+id+"/dedupe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Duplicates removed: 1")

	rec = post("/file/"+id+"/fill-missing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing values have been filled: 0")

	rec = post("/file/"+id+"/columns", "columns=n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Columns selected: 1")

	rec = post("/file/"+id+"/delete", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	rec := do(s, apiRequest(http.MethodGet, "/api/files", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := apiRequest(http.MethodGet, "/api/files", nil, "")
	req.Header.Set("X-API-Key", "secret")
	rec = do(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Browser pages are not behind the key.
	rec = do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute, stop)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"), "limits are per IP")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.allow("1.2.3.4"), "window resets")
}

func TestRateLimiter_Middleware(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	s := newTestServer(t, cfg)

	send := func() *httptest.ResponseRecorder {
		body, ct := multipartBody(t, "files", upload{"a.csv", []byte("v\n1\n")})
		return do(s, apiRequest(http.MethodPost, "/api/files", body, ct))
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, strings.Contains(rec.Body.String(), "RATE001"))
}
