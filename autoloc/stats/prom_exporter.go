package stats

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PrometheusExporter scrapes autolocd's own JSON /counters endpoint
// and republishes it as Prometheus gauges, exactly following
// ptp/sptp/stats/prom_exporter.go's scrape-then-serve design (rather
// than registering collectors that read the counters directly) so the
// exporter can run as an independent process against a remote
// autolocd if needed.
type PrometheusExporter struct {
	registry   *prometheus.Registry
	listenPort int
	sourcePort int
	interval   time.Duration
}

// NewPrometheusExporter returns an exporter that will listen on
// listenPort and scrape http://localhost:sourcePort every
// scrapeInterval.
func NewPrometheusExporter(listenPort, sourcePort int, scrapeInterval time.Duration) *PrometheusExporter {
	return &PrometheusExporter{
		registry:   prometheus.NewRegistry(),
		listenPort: listenPort,
		sourcePort: sourcePort,
		interval:   scrapeInterval,
	}
}

// Start begins the scrape loop and blocks serving /metrics.
func (e *PrometheusExporter) Start() {
	go func() {
		for {
			e.scrapeMetrics()
			time.Sleep(e.interval)
		}
	}()

	http.Handle("/metrics", promhttp.HandlerFor(
		e.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))

	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", e.listenPort), nil))
}

func (e *PrometheusExporter) scrapeMetrics() {
	counters, err := FetchCounters(fmt.Sprintf("http://localhost:%d", e.sourcePort))
	if err != nil {
		log.Errorf("autoloc: failed to fetch counters: %v", err)
		return
	}
	for key, val := range counters {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: flattenKey(key),
			Help: key,
		})
		if err := e.registry.Register(gauge); err != nil {
			are := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, are) {
				gauge = are.ExistingCollector.(prometheus.Gauge)
			} else {
				log.Errorf("autoloc: failed to register metric %s: %v", key, err)
				continue
			}
		}
		gauge.Set(float64(val))
	}
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}
