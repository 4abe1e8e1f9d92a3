// Package fingerprint derives the deterministic content identity of
// canonical events. Both the event store and the reconciler depend on
// it, which is why it lives below them as a leaf package.
package fingerprint
