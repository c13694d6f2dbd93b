// Package trigger runs a post activation end to end: permalink parsing,
// metadata fetch, media resolution, naming and download.
//
// Errors stay inside the activation. They are logged, counted and returned
// to the caller, but never reach the feed scanner.
package trigger
