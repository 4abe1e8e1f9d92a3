package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds configuration for the Prometheus listener.
type Config struct {
	// Enabled toggles the metrics endpoint.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Port is the port the metrics listener binds to.
	Port string `mapstructure:"port" default:"9091"`
}

var (
	// EventsScraped counts canonical events stored per scrape run.
	EventsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nursery_sync_events_scraped_total",
		Help: "Canonical events stored from scrape runs, by service.",
	}, []string{"service"})

	// EntriesSynced counts entries created in the target system.
	EntriesSynced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nursery_sync_entries_synced_total",
		Help: "Entries created in the target system.",
	})

	// SyncItemFailures counts per-item sync failures.
	SyncItemFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nursery_sync_item_failures_total",
		Help: "Sync items that failed and stayed in the missing set.",
	})

	// ScrapeFailures counts aborted scrape runs per service.
	ScrapeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nursery_sync_scrape_failures_total",
		Help: "Scrape runs that aborted, by service.",
	}, []string{"service"})

	// RunsInFlight tracks running scrape/sync operations per service.
	RunsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nursery_sync_runs_in_flight",
		Help: "Scrape or sync runs currently executing, by service.",
	}, []string{"service"})
)

// Serve starts the metrics HTTP listener on its own port.
// It blocks, so callers run it in a goroutine.
func Serve(cfg Config) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
