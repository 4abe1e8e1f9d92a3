// Package storage provides the object storage client used by the
// raw-capture archive.
//
// Every scrape run can archive the raw payload it extracted as a JSON
// object, so normalisation changes can be replayed against historical
// captures without re-scraping. The Client interface wraps the Minio SDK
// and has a testify mock in the mocks subpackage.
package storage
