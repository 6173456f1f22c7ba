// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug probes and the HTTP endpoint that exposes them
// together with prometheus metrics.

package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any)
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// DebugServer serves /metrics, /healthz and /debug/probes on a side
// address, away from WebSocket traffic.
type DebugServer struct {
	srv    *http.Server
	probes *DebugProbes
}

// NewDebugServer wires the debug routes for the given gatherer and
// probe registry.
func NewDebugServer(addr string, g prometheus.Gatherer, probes *DebugProbes) *DebugServer {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/debug/probes", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(probes.DumpState())
	}).Methods(http.MethodGet)

	return &DebugServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		probes: probes,
	}
}

// Handler exposes the route tree, mainly for tests.
func (d *DebugServer) Handler() http.Handler {
	return d.srv.Handler
}

// ListenAndServe blocks serving debug requests until Shutdown.
func (d *DebugServer) ListenAndServe() error {
	err := d.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the debug endpoint.
func (d *DebugServer) Shutdown(ctx context.Context) error {
	return d.srv.Shutdown(ctx)
}
