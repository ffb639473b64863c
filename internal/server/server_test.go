package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/session"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newTestServer(t *testing.T, opts ...func(*session.RepositoryOptions)) (*httptest.Server, *session.Repository) {
	t.Helper()
	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ro := session.RepositoryOptions{
		Mode:   session.ModeLocal,
		Local:  store,
		Now:    func() time.Time { return fixedNow },
		Logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&ro)
	}
	repo := session.NewRepository(ro)
	srv := New(Options{Repo: repo, Logger: log.New(io.Discard), Now: func() time.Time { return fixedNow }})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, body)
	}
}

func startSession(t *testing.T, ts *httptest.Server, title string) session.Session {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/sessions", startRequest{Title: title, DurationSec: 120})
	wantStatus(t, resp, http.StatusCreated)
	return decode[session.Session](t, resp)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	wantStatus(t, resp, http.StatusOK)
	got := decode[healthResponse](t, resp)
	if got.Status != "ok" || got.Mode != "local" || got.OfflineReadOnly {
		t.Errorf("health = %+v", got)
	}
}

func TestStartAndGetSession(t *testing.T) {
	ts, _ := newTestServer(t)

	sess := startSession(t, ts, "  Ideas  ")
	if sess.Title != "Ideas" || sess.DurationSec != 120 || sess.StartedAtMs != fixedNow.UnixMilli() {
		t.Errorf("started = %+v", sess)
	}
	if sess.Notes == nil || len(sess.Notes) != 0 {
		t.Errorf("notes = %#v, want empty", sess.Notes)
	}

	resp := do(t, http.MethodGet, ts.URL+"/sessions/"+sess.ID, nil)
	wantStatus(t, resp, http.StatusOK)
	if got := decode[session.Session](t, resp); got.ID != sess.ID {
		t.Errorf("got id %q, want %q", got.ID, sess.ID)
	}

	resp = do(t, http.MethodGet, ts.URL+"/sessions", nil)
	wantStatus(t, resp, http.StatusOK)
	if list := decode[[]session.Session](t, resp); len(list) != 1 || list[0].ID != sess.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestStartSessionDefaultsDuration(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/sessions", startRequest{Title: "t"})
	wantStatus(t, resp, http.StatusCreated)
	if got := decode[session.Session](t, resp); got.DurationSec != session.DefaultDurationSec {
		t.Errorf("duration = %d, want %d", got.DurationSec, session.DefaultDurationSec)
	}
}

func TestStartSessionFromTemplate(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/templates", session.Template{
		Name: "Retro", TitleDefault: "Sprint retro", PromptDefault: "What went well?", DurationSecDefault: 600,
	})
	wantStatus(t, resp, http.StatusCreated)
	tmpl := decode[session.Template](t, resp)

	resp = do(t, http.MethodPost, ts.URL+"/sessions", startRequest{TemplateID: tmpl.ID})
	wantStatus(t, resp, http.StatusCreated)
	got := decode[session.Session](t, resp)
	if got.Title != "Sprint retro" || got.Prompt != "What went well?" || got.DurationSec != 600 {
		t.Errorf("session = %+v", got)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts, _ := newTestServer(t)
	sess := startSession(t, ts, "t")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   errors.Code
	}{
		{"missing session", http.MethodGet, "/sessions/nope", nil, http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"blank title", http.MethodPost, "/sessions", startRequest{Title: " "}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"short duration", http.MethodPost, "/sessions", startRequest{Title: "t", DurationSec: 5}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown template", http.MethodPost, "/sessions", startRequest{TemplateID: "gone"}, http.StatusNotFound, errors.ErrCodeTemplateNotFound},
		{"id mismatch", http.MethodPut, "/sessions/" + sess.ID, session.Session{ID: "other", Title: "t"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad format", http.MethodGet, "/sessions/" + sess.ID + "/export.gif", nil, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad width", http.MethodPost, "/sessions/" + sess.ID + "/pack?width=abc", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"narrow width", http.MethodPost, "/sessions/" + sess.ID + "/pack?width=100", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, tt.body)
			wantStatus(t, resp, tt.status)
			got := decode[errorResponse](t, resp)
			if got.Code != tt.code || got.Message == "" {
				t.Errorf("error = %+v, want code %s", got, tt.code)
			}
		})
	}
}

func TestInvalidBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/sessions", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusBadRequest)
}

func TestPutSessionAndSummary(t *testing.T) {
	ts, _ := newTestServer(t)
	sess := startSession(t, ts, "t")

	sess.Notes = []session.Note{
		{ID: "a", Text: "one two", X: 10, Y: 10},
		{ID: "b", Text: "three", X: 300, Y: 10},
	}
	resp := do(t, http.MethodPut, ts.URL+"/sessions/"+sess.ID, sess)
	wantStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, ts.URL+"/sessions/"+sess.ID+"/summary", nil)
	wantStatus(t, resp, http.StatusOK)
	got := decode[summaryResponse](t, resp)
	// 2 notes over 2 minutes
	if got.TotalNotes != 2 || got.TotalWords != 3 || got.NotesPerMinute != 1 {
		t.Errorf("summary = %+v", got)
	}
	if got.Remaining != "02:00 left" {
		t.Errorf("remaining = %q, want 02:00 left", got.Remaining)
	}
}

func TestPackPersists(t *testing.T) {
	ts, repo := newTestServer(t)
	sess := startSession(t, ts, "t")
	sess.Notes = []session.Note{
		{ID: "a", Text: "first", X: 500, Y: 300},
		{ID: "b", Text: "second", X: 40, Y: 200},
	}
	wantStatus(t, do(t, http.MethodPut, ts.URL+"/sessions/"+sess.ID, sess), http.StatusOK)

	resp := do(t, http.MethodPost, ts.URL+"/sessions/"+sess.ID+"/pack?width=960", nil)
	wantStatus(t, resp, http.StatusOK)
	got := decode[packResponse](t, resp)
	if got.Width != 960 || len(got.Notes) != 2 {
		t.Fatalf("pack = %+v", got)
	}
	if got.Notes[0].X != 20 || got.Notes[0].Y != 20 || got.Notes[1].X != 252 || got.Notes[1].Y != 20 {
		t.Errorf("packed positions = %+v", got.Notes)
	}
	if got.BoardHeight < 460 {
		t.Errorf("board height = %v, want >= 460", got.BoardHeight)
	}

	stored, err := repo.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Notes[0].X != 20 || stored.Notes[1].X != 252 {
		t.Errorf("stored notes not packed: %+v", stored.Notes)
	}
}

func TestExport(t *testing.T) {
	ts, _ := newTestServer(t)
	sess := startSession(t, ts, "Big ideas")
	sess.Notes = []session.Note{{ID: "a", Text: "first idea", X: 10, Y: 10}}
	wantStatus(t, do(t, http.MethodPut, ts.URL+"/sessions/"+sess.ID, sess), http.StatusOK)

	t.Run("png", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/sessions/"+sess.ID+"/export.png?width=500", nil)
		wantStatus(t, resp, http.StatusOK)
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type = %q", ct)
		}
		if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "Big_ideas_blurt_full.png") {
			t.Errorf("content disposition = %q", cd)
		}
		if _, err := png.Decode(resp.Body); err != nil {
			t.Errorf("decode png: %v", err)
		}
	})

	t.Run("json", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/sessions/"+sess.ID+"/export.json", nil)
		wantStatus(t, resp, http.StatusOK)
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "first idea") {
			t.Errorf("json export missing note text: %s", body)
		}
	})
}

func TestExportFileNameHeader(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"quotes", `Say "hi"; x=1`, `Say_"hi";_x=1_blurt_full.json`},
		{"backslash", `a\b`, `a\b_blurt_full.json`},
		{"non-ascii", "Idées café", "Idées_café_blurt_full.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := startSession(t, ts, tt.title)
			resp := do(t, http.MethodGet, ts.URL+"/sessions/"+sess.ID+"/export.json", nil)
			wantStatus(t, resp, http.StatusOK)

			disposition, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
			if err != nil {
				t.Fatalf("parse %q: %v", resp.Header.Get("Content-Disposition"), err)
			}
			if disposition != "attachment" || params["filename"] != tt.want {
				t.Errorf("disposition = %q, filename = %q, want %q", disposition, params["filename"], tt.want)
			}
			if len(params) != 1 {
				t.Errorf("params = %v, want only filename", params)
			}
		})
	}
}

func TestTemplatesCRUD(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/templates", session.Template{Name: "Daily", TitleDefault: "Daily"})
	wantStatus(t, resp, http.StatusCreated)
	created := decode[session.Template](t, resp)
	if created.ID == "" || created.UpdatedAtMs != fixedNow.UnixMilli() || created.DurationSecDefault != session.DefaultDurationSec {
		t.Errorf("created = %+v", created)
	}

	created.Name = "Weekly"
	resp = do(t, http.MethodPut, ts.URL+"/templates/"+created.ID, created)
	wantStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, ts.URL+"/templates", nil)
	wantStatus(t, resp, http.StatusOK)
	list := decode[[]session.Template](t, resp)
	if len(list) != 1 || list[0].Name != "Weekly" {
		t.Fatalf("templates = %+v", list)
	}

	wantStatus(t, do(t, http.MethodDelete, ts.URL+"/templates/"+created.ID, nil), http.StatusNoContent)

	resp = do(t, http.MethodGet, ts.URL+"/templates", nil)
	if list := decode[[]session.Template](t, resp); len(list) != 0 {
		t.Errorf("templates after delete = %+v", list)
	}
}

func TestReadOnlyConflict(t *testing.T) {
	ts, _ := newTestServer(t, func(o *session.RepositoryOptions) {
		o.Mode = session.ModeCloud
		o.Cloud = o.Local
		o.StartOffline = true
		o.UserID = "u1"
	})

	resp := do(t, http.MethodPost, ts.URL+"/sessions", startRequest{Title: "t"})
	wantStatus(t, resp, http.StatusConflict)
	if got := decode[errorResponse](t, resp); got.Code != errors.ErrCodeReadOnly {
		t.Errorf("code = %s, want READ_ONLY", got.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeTemplateNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidStorageMode, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeReadOnly, "x"), http.StatusConflict},
		{errors.New(errors.ErrCodeNetwork, "x"), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
