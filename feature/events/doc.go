// Package events implements the canonical-event side of the system: the
// normaliser that turns raw scraped records into canonical events, the
// splitter that expands bundled records, the fingerprint engine, the
// event store with its sticky ignored flags and durable synced markers,
// and the operator-editable settings tables.
package events
