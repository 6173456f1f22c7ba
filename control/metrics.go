// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the connection driver. All update methods
// are nil-safe so metrics stay optional wiring.

package control

import "github.com/prometheus/client_golang/prometheus"

// Handshake result labels.
const (
	HandshakeAccepted  = "accepted"
	HandshakeRejected  = "rejected"
	HandshakeMalformed = "malformed"
)

// Metrics holds the driver's collectors.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	Handshakes        *prometheus.CounterVec
	FramesDecoded     prometheus.Counter
	FrameErrors       *prometheus.CounterVec
	MessagesEchoed    prometheus.Counter
	BytesRead         prometheus.Counter
	BytesWritten      prometheus.Counter
}

// NewMetrics builds the collector set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strictws",
			Name:      "connections_total",
			Help:      "TCP connections accepted since start.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "strictws",
			Name:      "connections_active",
			Help:      "Connections currently open.",
		}),
		Handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strictws",
			Name:      "handshakes_total",
			Help:      "Handshake outcomes by result.",
		}, []string{"result"}),
		FramesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strictws",
			Name:      "frames_decoded_total",
			Help:      "Inbound frames decoded successfully.",
		}),
		FrameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strictws",
			Name:      "frame_errors_total",
			Help:      "Frames rejected by the decoder, by reason.",
		}, []string{"reason"}),
		MessagesEchoed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strictws",
			Name:      "messages_echoed_total",
			Help:      "Replies written back to clients.",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strictws",
			Name:      "bytes_read_total",
			Help:      "Payload bytes received in decoded frames.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strictws",
			Name:      "bytes_written_total",
			Help:      "Payload bytes sent in reply frames.",
		}),
	}
	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.Handshakes,
		m.FramesDecoded,
		m.FrameErrors,
		m.MessagesEchoed,
		m.BytesRead,
		m.BytesWritten,
	)
	return m
}

// OnConnOpen records an accepted connection.
func (m *Metrics) OnConnOpen() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// OnConnClose records a closed connection.
func (m *Metrics) OnConnClose() {
	if m == nil {
		return
	}
	m.ConnectionsActive.Dec()
}

// OnHandshake records one handshake outcome.
func (m *Metrics) OnHandshake(result string) {
	if m == nil {
		return
	}
	m.Handshakes.WithLabelValues(result).Inc()
}

// OnFrame records a successfully decoded frame of n payload bytes.
func (m *Metrics) OnFrame(n int) {
	if m == nil {
		return
	}
	m.FramesDecoded.Inc()
	m.BytesRead.Add(float64(n))
}

// OnFrameError records a decoder rejection.
func (m *Metrics) OnFrameError(reason string) {
	if m == nil {
		return
	}
	m.FrameErrors.WithLabelValues(reason).Inc()
}

// OnEcho records a reply of n payload bytes.
func (m *Metrics) OnEcho(n int) {
	if m == nil {
		return
	}
	m.MessagesEchoed.Inc()
	m.BytesWritten.Add(float64(n))
}
