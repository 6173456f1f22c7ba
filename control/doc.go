// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection layer for strictws.
//
// Provides:
//   - Prometheus collectors for the connection driver
//   - Probe registration and state export for live inspection
//   - An optional HTTP debug endpoint serving /metrics, /healthz and
//     /debug/probes
package control
