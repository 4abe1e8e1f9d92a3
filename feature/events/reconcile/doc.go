// Package reconcile pairs canonical events from the source and target
// systems into MatchedPairs.
//
// Matching is fingerprint-first: events carrying a fingerprint group on
// it, so minor timestamp drift between platforms does not matter. Split
// fragments and fingerprint-less events fall back to a heuristic key that
// includes the precise (precision-truncated) sub-entry time, keeping
// fragments of one bundled record apart. Intra-source duplicate detection
// is advisory only.
package reconcile
