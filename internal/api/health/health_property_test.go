package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(s Status) Check {
	return func(context.Context) ComponentStatus { return ComponentStatus{Status: s} }
}

func TestPropertyOverallStatusIsWorstComponent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	levels := []Status{StatusHealthy, StatusDegraded, StatusUnhealthy}

	properties.Property("overall status and HTTP code follow the worst component", prop.ForAll(
		func(picks []int) bool {
			statuses := make([]Status, len(picks))
			for i, p := range picks {
				statuses[i] = levels[p]
			}

			c := NewChecker("test")
			want := StatusHealthy
			for i, s := range statuses {
				c.Register(string(rune('a'+i)), fixed(s))
				want = worst(want, s)
			}

			rr := httptest.NewRecorder()
			c.Handler()(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			var resp Response
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				return false
			}
			if resp.Status != want || len(resp.Components) != len(statuses) || resp.Version != "test" {
				return false
			}
			if want == StatusUnhealthy {
				return rr.Code == http.StatusServiceUnavailable
			}
			return rr.Code == http.StatusOK
		},
		gen.SliceOf(gen.IntRange(0, len(levels)-1)),
	))

	properties.TestingRun(t)
}

func TestExecutableCheck(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	assert.Equal(t, StatusUnhealthy, ExecutableCheck(filepath.Join(dir, "missing"))(ctx).Status)
	assert.Equal(t, StatusUnhealthy, ExecutableCheck(dir)(ctx).Status)

	plain := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))
	assert.Equal(t, StatusUnhealthy, ExecutableCheck(plain)(ctx).Status)

	exe := filepath.Join(dir, "sgt")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
	assert.Equal(t, StatusHealthy, ExecutableCheck(exe)(ctx).Status)
}

func TestDirCheck(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, StatusHealthy, DirCheck(t.TempDir())(ctx).Status)
	assert.Equal(t, StatusDegraded, DirCheck(filepath.Join(t.TempDir(), "nope"))(ctx).Status)
}

type counter int

func (c counter) ActiveSessions() int { return int(c) }

func TestSessionsCheck(t *testing.T) {
	cs := SessionsCheck(counter(3))(context.Background())
	assert.Equal(t, StatusHealthy, cs.Status)
	assert.Equal(t, "3 active sessions", cs.Message)
}
