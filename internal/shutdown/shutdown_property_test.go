package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the order in which components were shut down.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// funcComponent adapts a function to the Component interface.
type funcComponent struct {
	name string
	fn   func(ctx context.Context) error
}

func newFuncComponent(name string, fn func(ctx context.Context) error) *funcComponent {
	return &funcComponent{name: name, fn: fn}
}

func (c *funcComponent) Name() string { return c.name }

func (c *funcComponent) Shutdown(ctx context.Context) error { return c.fn(ctx) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPropertyComponentsStopInReverseOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("every component stops once, last registered first", prop.ForAll(
		func(n int) bool {
			rec := &recorder{}
			c := NewCoordinator(WithTimeout(time.Second), WithLogger(quietLogger()))

			want := make([]string, 0, n)
			for i := 0; i < n; i++ {
				name := string(rune('a' + i))
				c.Register(newFuncComponent(name, func(ctx context.Context) error {
					rec.add(name)
					return nil
				}))
				want = append([]string{name}, want...)
			}

			if err := c.Shutdown(); err != nil {
				return false
			}
			got := rec.names()
			if len(got) != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return c.ExitCode() == 0
		},
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}

func TestPropertyFailuresAreReportedWithoutStoppingOthers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("a failing component does not prevent the rest from stopping", prop.ForAll(
		func(failing []bool) bool {
			rec := &recorder{}
			c := NewCoordinator(WithTimeout(time.Second), WithLogger(quietLogger()))

			anyFail := false
			for i, fail := range failing {
				name := string(rune('a' + i))
				fail := fail
				anyFail = anyFail || fail
				c.Register(newFuncComponent(name, func(ctx context.Context) error {
					rec.add(name)
					if fail {
						return errors.New("boom")
					}
					return nil
				}))
			}

			err := c.Shutdown()
			if len(rec.names()) != len(failing) {
				return false
			}
			if anyFail {
				return err != nil && c.ExitCode() == 1
			}
			return err == nil && c.ExitCode() == 0
		},
		gen.SliceOfN(6, gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestShutdownIsIdempotent(t *testing.T) {
	calls := 0
	c := NewCoordinator(WithLogger(quietLogger()))
	c.Register(newFuncComponent("once", func(ctx context.Context) error {
		calls++
		return nil
	}))

	require.NoError(t, c.Shutdown())
	require.NoError(t, c.Shutdown())
	assert.Equal(t, 1, calls)
}

func TestShutdownTimeoutSkipsRemaining(t *testing.T) {
	rec := &recorder{}
	c := NewCoordinator(WithTimeout(50*time.Millisecond), WithLogger(quietLogger()))
	c.Register(newFuncComponent("first", func(ctx context.Context) error {
		rec.add("first")
		return nil
	}))
	c.Register(newFuncComponent("slow", func(ctx context.Context) error {
		rec.add("slow")
		<-ctx.Done()
		return ctx.Err()
	}))

	err := c.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"slow"}, rec.names())
	assert.Equal(t, 1, c.ExitCode())
}

func TestWaitForSignal(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	stopped := make(chan struct{})
	c := NewCoordinator(WithSignalChannel(sigCh), WithLogger(quietLogger()))
	c.Register(newFuncComponent("marker", func(ctx context.Context) error {
		close(stopped)
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- c.WaitForSignal(context.Background()) }()

	sigCh <- os.Interrupt

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	<-stopped
}

func TestWaitForSignalContextCancel(t *testing.T) {
	c := NewCoordinator(WithSignalChannel(make(chan os.Signal)), WithLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.WaitForSignal(ctx))
	c.Wait()
	assert.Equal(t, 0, c.ExitCode())
}

func TestHTTPServerComponentWaitsForInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	srv.Start()
	defer srv.Close()

	respCh := make(chan int, 1)
	go func() {
		resp, err := http.Get(srv.URL)
		if err != nil {
			respCh <- 0
			return
		}
		resp.Body.Close()
		respCh <- resp.StatusCode
	}()
	<-started

	comp := NewHTTPServerComponent("http", srv.Config)
	assert.Equal(t, "http", comp.Name())

	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errCh <- comp.Shutdown(ctx)
	}()

	close(release)
	require.NoError(t, <-errCh)
	assert.Equal(t, http.StatusOK, <-respCh)
}
