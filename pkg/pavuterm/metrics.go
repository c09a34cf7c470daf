package pavuterm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsNamespace = "pavuterm"

// Metrics counts what the dispatch loop and the command worker do. Every instance owns
// its registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	notifications   *prometheus.CounterVec
	frames          prometheus.Counter
	commands        *prometheus.CounterVec
	commandsDropped *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_total",
			Help:      "Catalog notifications received by category and operation",
		}, []string{"category", "operation"}),

		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_rendered_total",
			Help:      "Frames drawn by the render loop",
		}),

		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Commands queued for the server by kind",
		}, []string{"command"}),

		commandsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_dropped_total",
			Help:      "Commands dropped because the command queue was full",
		}, []string{"command"}),
	}
}

func (m *Metrics) notificationReceived(event CatalogEvent) {
	m.notifications.WithLabelValues(event.Category.String(), event.Operation.String()).Inc()
}

func (m *Metrics) frameRendered() {
	m.frames.Inc()
}

func (m *Metrics) commandIssued(name string) {
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) commandDropped(name string) {
	m.commandsDropped.WithLabelValues(name).Inc()
}

// serve exposes the registry on addr until ctx is done.
func (m *Metrics) serve(ctx context.Context, logger *zap.SugaredLogger, addr string) error {
	logger = logger.Named("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("Failed to shut down metrics server", "error", err)
		}
	}()

	logger.Infow("Serving metrics", "addr", addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warnw("Metrics server failed", "error", err)
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}
