// Package downloader persists the assets of one activation.
//
// Every task is issued concurrently. A task whose attempt times out is
// re-issued with the same URL, filename and headers until it succeeds, a
// non-timeout failure occurs, or the configured attempt bound is reached.
package downloader
