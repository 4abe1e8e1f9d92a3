// Package database provides the GORM connection used by the event store.
//
// It supports sqlite (default, file-backed) and mysql drivers, selected by
// configuration. Connection pooling and an initial ping with timeout are
// applied regardless of driver.
package database
