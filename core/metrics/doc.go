// Package metrics exposes Prometheus counters for scrape and sync
// activity on a dedicated listener, separate from the API port.
package metrics
