package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/lastcall/vector"
)

type fakeServer struct {
	listenErr error
	started   chan struct{}
	stop      chan struct{}
	shutdowns int
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	f.started <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns++
	close(f.stop)
	return nil
}

func TestHTTPService_Serve(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		srv := newFakeServer()
		svc := newHTTPService(srv, time.Second)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()
		<-srv.started
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() did not return after cancel")
		}
		if srv.shutdowns != 1 {
			t.Errorf("shutdowns = %d, want 1", srv.shutdowns)
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		srv := newFakeServer()
		srv.listenErr = errors.New("address in use")
		svc := newHTTPService(srv, 0)

		err := svc.Serve(context.Background())
		if err == nil || !strings.Contains(err.Error(), "address in use") {
			t.Errorf("Serve() error = %v, want listen failure", err)
		}
	})

	if got := newHTTPService(newFakeServer(), 0).String(); got != "metrics-http" {
		t.Errorf("String() = %q", got)
	}
}

func TestOpsMux(t *testing.T) {
	idx, err := vector.Load([]int64{1, 2}, [][]float32{{1, 0}, {0, 1}}, 2)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	mux := newOpsMux(idx)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", rec.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Items   int    `json:"items"`
		Dim     int    `json:"dim"`
		Version uint64 `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode /healthz: %v", err)
	}
	if body.Status != "ok" || body.Items != 2 || body.Dim != 2 || body.Version != 1 {
		t.Errorf("/healthz = %+v", body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", rec.Code)
	}
}
