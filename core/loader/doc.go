// Package loader provides the plugin-like feature loading system.
//
// Features (events, sync, ...) implement the Feature interface and are
// registered with a Manager at startup; LoadAll initialises every enabled
// feature and wires its routes. This keeps modules developed and tested
// in isolation.
package loader
