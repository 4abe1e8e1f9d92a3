// Package sync drives scrape and sync runs: it resolves the missing set
// from the matched-pair view, creates the corresponding entries in the
// target system one at a time, and records durable per-fingerprint sync
// markers so an entry is never created twice. Runs per service are
// serialized and report durable progress.
package sync
