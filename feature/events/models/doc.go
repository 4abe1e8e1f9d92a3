// Package models defines the persisted shapes of the event store:
// canonical events, ignored fingerprints, durable synced markers,
// settings and run progress records.
package models
