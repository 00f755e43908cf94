// Package assetstore downloads content assets over HTTP and caches them on
// disk for render contexts with an asset-store source.
//
// Downloads are asynchronous: Fetch returns immediately and the completion
// callback fires from a background goroutine once the asset is on disk. The
// caller is responsible for marshaling callbacks onto whatever goroutine owns
// the mapping engine.
//
// A SQLite index maps asset ids to cached file paths so lookups survive
// daemon restarts without rescanning the cache directory.
package assetstore
