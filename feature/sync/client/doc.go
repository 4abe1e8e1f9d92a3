// Package client defines the external collaborator boundary: the
// scraping client that extracts raw records from a platform and the
// target client that creates entries, plus the shared failure taxonomy.
//
// The bundled BridgeClient speaks HTTP to an automation bridge sidecar;
// the browser automation itself lives outside this system.
package client
