// Package domain defines context packs and the pure rules around them.
//
// A pack is built from a PackConfig: its sources are fetched, cut into
// overlapping Chunks, optionally summarised, embedded and stored in a
// per-pack collection. A RegistryEntry aggregates what was stored, and a
// DownloadPage is one cursor-ordered slice of a pack.
//
// The deterministic pieces live here so every adapter agrees on them:
// document identifiers, collection names, metadata merging and download
// limits. The package imports only the standard library.
package domain
