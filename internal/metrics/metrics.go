package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rickgao/snake-client/internal/client"
	"github.com/rickgao/snake-client/internal/connection"
	"github.com/rickgao/snake-client/internal/events"
	"github.com/rickgao/snake-client/internal/router"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "snake").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

func defaultConfig() Config {
	return Config{
		Namespace: "snake",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Sources are the components whose statistics are exported. Nil sources
// are skipped.
type Sources struct {
	Manager    interface{ Stats() connection.ManagerStats }
	Router     interface{ Stats() router.RouterStats }
	Dispatcher interface{ Stats() events.Stats }
}

// Metrics holds the collectors fed by calls rather than by Stats snapshots.
type Metrics struct {
	eventsTotal     *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
}

// New registers the collectors for src.
func New(src Sources, opts ...Option) *Metrics {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	counter := func(name, help string, value func() int64) {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		}, func() float64 { return float64(value()) })
	}
	gauge := func(name, help string, value func() float64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		}, value)
	}

	if mgr := src.Manager; mgr != nil {
		gauge("connection_state", "Connection state (0 idle, 1 connecting, 2 open, 3 closed, 4 reconnect pending)",
			func() float64 { return float64(mgr.Stats().State) })
		gauge("connection_up", "1 when the connection is open",
			func() float64 {
				if mgr.Stats().State == connection.StateOpen {
					return 1
				}
				return 0
			})
		gauge("reconnect_attempts", "Reconnects scheduled since the last successful open",
			func() float64 { return float64(mgr.Stats().Attempts) })
		counter("connection_opens_total", "Successful connection attempts",
			func() int64 { return mgr.Stats().Opens })
		counter("connection_dial_failures_total", "Failed connection attempts",
			func() int64 { return mgr.Stats().DialFailures })
		counter("connection_drops_total", "Unexpected closures of an open connection",
			func() int64 { return mgr.Stats().Drops })
		counter("reconnects_scheduled_total", "Reconnect timers armed",
			func() int64 { return mgr.Stats().ReconnectsScheduled })
		counter("reconnects_exhausted_total", "Times the reconnect budget ran out",
			func() int64 { return mgr.Stats().Exhausted })
		counter("frames_sent_total", "Outbound frames written",
			func() int64 { return mgr.Stats().FramesSent })
		counter("sends_rejected_total", "Outbound frames dropped because the connection was not open",
			func() int64 { return mgr.Stats().SendsRejected })
	}

	if rt := src.Router; rt != nil {
		counter("frames_received_total", "Inbound frames read",
			func() int64 { return rt.Stats().FramesReceived })
		counter("snapshots_total", "Inbound game state snapshots",
			func() int64 { return rt.Stats().Snapshots })
		counter("generic_messages_total", "Inbound frames without a snake field",
			func() int64 { return rt.Stats().GenericMessages })
		counter("protocol_errors_total", "Inbound frames dropped as malformed",
			func() int64 { return rt.Stats().ProtocolErrors })
	}

	if d := src.Dispatcher; d != nil {
		counter("handler_panics_total", "Event handlers that panicked",
			func() int64 { return d.Stats().HandlerPanics })
	}

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "events_total",
			Help:        "Events published by kind",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),

		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "config_deliveries_total",
			Help:        "Session config delivery outcomes",
			ConstLabels: cfg.ConstLabels,
		}, []string{"result"}),
	}
}

// Attach counts every event published on bus.
func (m *Metrics) Attach(bus client.Bus) error {
	for _, k := range events.Kinds {
		counter := m.eventsTotal.WithLabelValues(k.String())
		if _, err := bus.Subscribe(k, func(events.Event) { counter.Inc() }); err != nil {
			return err
		}
	}
	return nil
}

// ObserveDelivery records the result of a SendConfig call.
func (m *Metrics) ObserveDelivery(err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, client.ErrConfigDelivery):
		result = "exhausted"
	default:
		result = "error"
	}
	m.deliveriesTotal.WithLabelValues(result).Inc()
}
