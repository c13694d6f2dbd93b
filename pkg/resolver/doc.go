// Package resolver extracts downloadable media URLs from post metadata.
//
// Post payloads come in several shapes (picture sets with optional live
// photo companions, videos, stories, promoted cards). The resolver tries an
// ordered list of branches and the first one producing assets wins. Fields are
// read with compiled jq paths so that any absent or malformed value simply
// fails the branch.
package resolver
