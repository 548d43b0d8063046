package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ShapeSequence = "sequence"
	ShapeHandle   = "handle"
	ShapeBare     = "bare"
)

var (
	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipcee_messages_sent_total",
		Help: "Total number of messages handed to the raw channel by wire shape",
	}, []string{"shape"})

	MessagesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipcee_messages_received_total",
		Help: "Total number of inbound messages dispatched by wire shape",
	}, []string{"shape"})

	SendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipcee_send_errors_total",
		Help: "Total number of sends rejected synchronously, by reason",
	}, []string{"reason"})

	DroppedArgsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ipcee_handle_dropped_args_total",
		Help: "Total number of positional arguments dropped after a handle",
	})

	ExitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ipcee_channel_exits_total",
		Help: "Total number of channel terminations observed by attached buses",
	})

	AttachedBuses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ipcee_attached_buses",
		Help: "Number of buses currently attached to a channel",
	})
)

// IncSent records an outbound message of the given wire shape.
func IncSent(shape string) {
	MessagesSentTotal.WithLabelValues(shape).Inc()
}

// IncReceived records an inbound message of the given wire shape.
func IncReceived(shape string) {
	MessagesReceivedTotal.WithLabelValues(shape).Inc()
}

// IncSendError records a rejected send with a concrete reason.
func IncSendError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	SendErrorsTotal.WithLabelValues(reason).Inc()
}

// AddDroppedArgs records positional arguments discarded after a handle.
func AddDroppedArgs(n int) {
	if n <= 0 {
		return
	}
	DroppedArgsTotal.Add(float64(n))
}
