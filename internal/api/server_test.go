package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narvanalabs/sgt-web/internal/live"
	"github.com/narvanalabs/sgt-web/internal/runner"
	"github.com/narvanalabs/sgt-web/internal/town"
	"github.com/narvanalabs/sgt-web/pkg/config"
	"github.com/narvanalabs/sgt-web/pkg/logger"
)

// fakeRunner answers sgt invocations from a table keyed by the first arg.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   [][]string
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	if err := f.errs[args[0]]; err != nil {
		return "", err
	}
	return f.outputs[args[0]], nil
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

type fixture struct {
	root   string
	runner *fakeRunner
	server *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	bin := filepath.Join(root, "sgt")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	cfg := config.LoadWithDefaults()
	cfg.SGTRoot = root
	cfg.SGTBin = bin

	log := logger.Discard().Logger
	fr := &fakeRunner{outputs: map[string]string{}, errs: map[string]error{}}
	hub := live.NewHub(fr, live.DefaultConfig(cfg.LogPath()), log)
	srv := NewServer(cfg, fr, town.New(root, log), hub, log)
	return &fixture{root: root, runner: fr, server: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	f.runner.outputs["status"] = "=== Agents ===\n  daemon: on\n"

	rec := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Raw    string `json:"raw"`
		Parsed struct {
			Agents []struct {
				Name   string `json:"name"`
				Status string `json:"status"`
			} `json:"agents"`
			Polecats []json.RawMessage `json:"polecats"`
		} `json:"parsed"`
	}
	decode(t, rec, &body)
	assert.Equal(t, f.runner.outputs["status"], body.Raw)
	require.Len(t, body.Parsed.Agents, 1)
	assert.Equal(t, "daemon", body.Parsed.Agents[0].Name)
	assert.NotNil(t, body.Parsed.Polecats)
}

func TestStatusEndpointCommandFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.errs["status"] = &runner.ExecError{Args: []string{"status"}, Stderr: "no town here\n", Err: errors.New("exit status 1")}

	rec := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "no town here", body["error"])
	assert.Equal(t, "command_failed", body["code"])
	assert.NotEmpty(t, body["request_id"])
}

func TestPeekEndpointNonCommandFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.errs["peek"] = errors.New("pipe closed")

	rec := f.do(t, http.MethodGet, "/api/peek/toast", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "internal_error", body["code"])
	assert.NotContains(t, body["error"], "pipe closed")
}

func TestRigsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.runner.outputs["rig"] = "  myapp  https://github.com/acme/myapp\n    polecats: 1  witness: on  refinery: on\n"

	rec := f.do(t, http.MethodGet, "/api/rigs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"myapp","repo":"https://github.com/acme/myapp","polecats":1,"witness":"on","refinery":"on"}]`, rec.Body.String())
	assert.Equal(t, []string{"rig", "list"}, f.runner.Calls()[0])
}

func TestPeekEndpoint(t *testing.T) {
	f := newFixture(t)
	f.runner.outputs["peek"] = "working on #5\n"

	rec := f.do(t, http.MethodGet, "/api/peek/myapp-abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"output":"working on #5\n"}`, rec.Body.String())
	assert.Equal(t, []string{"peek", "myapp-abc"}, f.runner.Calls()[0])
}

func TestSlingValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		msg  string
	}{
		{"sling missing task", "/api/sling", `{"rig":"myapp"}`, "rig and task are required"},
		{"sling missing rig", "/api/sling", `{"task":"fix"}`, "rig and task are required"},
		{"sling invalid json", "/api/sling", `{`, "rig and task are required"},
		{"sling empty body", "/api/sling", ``, "rig and task are required"},
		{"dog missing issue", "/api/sling-dog", `{"rig":"myapp"}`, "rig and issue are required"},
		{"dog missing rig", "/api/sling-dog", `{"issue":"#1"}`, "rig and issue are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			decode(t, rec, &body)
			assert.Equal(t, tt.msg, body["error"])
			assert.Empty(t, f.runner.Calls())
		})
	}
}

func TestSlingDispatches(t *testing.T) {
	f := newFixture(t)
	f.runner.outputs["sling"] = "slung myapp-abc\n"

	rec := f.do(t, http.MethodPost, "/api/sling", `{"rig":"myapp","task":"fix login","convoy":"c1","labels":["bug"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"output":"slung myapp-abc\n"}`, rec.Body.String())
	assert.Equal(t, []string{"sling", "myapp", "fix login", "--convoy", "c1", "--label", "bug"}, f.runner.Calls()[0])

	rec = f.do(t, http.MethodPost, "/api/sling-dog", `{"rig":"myapp","issue":"#12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"dog", "myapp", "#12"}, f.runner.Calls()[1])
}

func TestStateEndpointsEmptyWithoutDirectories(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/polecats", "/api/dogs", "/api/merge-queue", "/api/crew", "/api/molecules"} {
		rec := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "[]\n", rec.Body.String(), path)
	}
	assert.Empty(t, f.runner.Calls())
}

func TestStateEndpoints(t *testing.T) {
	f := newFixture(t)
	f.write(t, ".sgt/polecats/myapp-abc", "state=running\ncmd=make test=1\n")
	f.write(t, ".sgt/merge-queue/myapp-abc", "pr=42\n")

	rec := f.do(t, http.MethodGet, "/api/polecats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"myapp-abc","state":"running","cmd":"make test=1"}]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/merge-queue", "")
	assert.JSONEq(t, `[{"name":"myapp-abc","pr":"42"}]`, rec.Body.String())
}

func TestEscalationEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/escalation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	f.write(t, ".sgt/escalation.json", `{"after":"10m"}`)
	rec = f.do(t, http.MethodGet, "/api/escalation", "")
	assert.JSONEq(t, `{"after":"10m"}`, rec.Body.String())
}

func TestAgentsEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"daemon":{"running":false}}`, rec.Body.String())
}

func TestLogsEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lines":[]}`, rec.Body.String())

	var b bytes.Buffer
	for i := 0; i < 120; i++ {
		b.WriteString("entry\n")
	}
	b.WriteString("last\n")
	f.write(t, "sgt.log", b.String())

	var body struct {
		Lines []string `json:"lines"`
	}
	for _, q := range []string{"", "?lines=abc", "?lines=0", "?lines=-3"} {
		rec = f.do(t, http.MethodGet, "/api/logs"+q, "")
		decode(t, rec, &body)
		assert.Len(t, body.Lines, 100, q)
	}

	rec = f.do(t, http.MethodGet, "/api/logs?lines=2", "")
	decode(t, rec, &body)
	assert.Equal(t, []string{"entry", "last"}, body.Lines)

	rec = f.do(t, http.MethodGet, "/api/logs?lines=3abc", "")
	decode(t, rec, &body)
	assert.Equal(t, []string{"entry", "entry", "last"}, body.Lines)
}

func TestOverviewEndpoint(t *testing.T) {
	f := newFixture(t)
	f.runner.outputs["status"] = "=== Agents ===\n  daemon: on\n"
	f.runner.errs["rig"] = errors.New("rig list exploded")
	f.write(t, ".sgt/dogs/dog-1", "issue=#12\n")

	rec := f.do(t, http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Timestamp string `json:"timestamp"`
		Status    struct {
			Agents []json.RawMessage `json:"agents"`
		} `json:"status"`
		Rigs     []json.RawMessage `json:"rigs"`
		Polecats []json.RawMessage `json:"polecats"`
		Dogs     []json.RawMessage `json:"dogs"`
		Errors   map[string]string `json:"errors"`
	}
	decode(t, rec, &body)
	_, err := time.Parse("2006-01-02T15:04:05.000Z", body.Timestamp)
	assert.NoError(t, err)
	assert.Len(t, body.Status.Agents, 1)
	assert.NotNil(t, body.Rigs)
	assert.Empty(t, body.Rigs)
	assert.NotNil(t, body.Polecats)
	assert.Len(t, body.Dogs, 1)
	assert.Equal(t, map[string]string{"rigs": "rig list exploded"}, body.Errors)
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status     string                       `json:"status"`
		Components map[string]map[string]string `json:"components"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Contains(t, body.Components, "sgt_binary")
	assert.Contains(t, body.Components, "sgt_root")
	assert.Equal(t, "0 active sessions", body.Components["live"]["message"])

	require.NoError(t, os.Remove(filepath.Join(f.root, "sgt")))
	rec = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIndexServed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/ws")

	rec = f.do(t, http.MethodGet, "/missing.js", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveEndpoint(t *testing.T) {
	f := newFixture(t)
	f.runner.outputs["status"] = ""

	ts := httptest.NewServer(f.server.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var hello map[string]string
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello["type"])
}

func TestRecoveryReturnsJSON(t *testing.T) {
	f := newFixture(t)
	f.server.Router().Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := f.do(t, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "internal_error", body["code"])
}

func TestUnknownAPIRouteIsJSON404(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/convoys", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "not_found", body["code"])
}
